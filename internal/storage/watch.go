package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchPurge calls onPurge whenever the file at path is deleted or moved away
// by something other than an atomic rewrite. It watches the parent directory
// so the file does not need to exist yet. The watch stops when ctx is done.
func WatchPurge(ctx context.Context, path string, logger *slog.Logger, onPurge func()) error {
	if logger == nil {
		logger = slog.Default()
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving storage path: %w", err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				// An atomic rewrite lands a new file at target; only react when it is really gone.
				if _, err := os.Stat(target); os.IsNotExist(err) {
					logger.Info("storage file purged externally", "path", target)
					onPurge()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("storage watcher error", "error", err)
			}
		}
	}()

	return nil
}
