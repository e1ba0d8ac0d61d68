package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File is a KV persisted as a single JSON object on disk.
// Every mutation rewrites the file atomically.
type File struct {
	filePath string
	quota    int64
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[string]string
	loaded  bool
}

// NewFile creates a file-backed store. The file is read lazily on first use.
func NewFile(filePath string, quota int64, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{
		filePath: filePath,
		quota:    quota,
		logger:   logger,
	}
}

// Path returns the backing file path
func (f *File) Path() string {
	return f.filePath
}

// Get returns the value for key
func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadUnlocked(); err != nil {
		return "", false, err
	}
	v, ok := f.entries[key]
	return v, ok, nil
}

// Set stores value under key and writes the file
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadUnlocked(); err != nil {
		return err
	}

	if f.quota > 0 {
		var total int64
		for k, v := range f.entries {
			if k != key {
				total += usage(k, v)
			}
		}
		if total+usage(key, value) > f.quota {
			return ErrQuotaExceeded
		}
	}

	old, existed := f.entries[key]
	f.entries[key] = value
	if err := f.saveUnlocked(); err != nil {
		if existed {
			f.entries[key] = old
		} else {
			delete(f.entries, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and writes the file
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadUnlocked(); err != nil {
		return err
	}
	if _, ok := f.entries[key]; !ok {
		return nil
	}
	delete(f.entries, key)
	return f.saveUnlocked()
}

// Invalidate drops the cached entries so the next call rereads the file
func (f *File) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = false
	f.entries = nil
}

// loadUnlocked reads the file once (must be called with lock held)
func (f *File) loadUnlocked() error {
	if f.loaded {
		return nil
	}

	data, err := os.ReadFile(f.filePath)
	if os.IsNotExist(err) {
		f.entries = make(map[string]string)
		f.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read storage file: %w", err)
	}

	entries := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			// Corrupted file - backup and start fresh
			backupPath := f.filePath + ".backup"
			if renameErr := os.Rename(f.filePath, backupPath); renameErr != nil {
				f.logger.Warn("failed to back up corrupted storage file", "path", f.filePath, "error", renameErr)
			}
			f.logger.Warn("storage file corrupted, starting empty", "path", f.filePath, "backup", backupPath, "error", err)
			entries = make(map[string]string)
		}
	}

	f.entries = entries
	f.loaded = true
	return nil
}

// saveUnlocked writes all entries (must be called with lock held)
func (f *File) saveUnlocked() error {
	data, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}
	return writeFileAtomic(f.filePath, data, 0600)
}

// writeFileAtomic writes to a temp file in the same directory, syncs it and
// renames it over path so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
