package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"interview-coach/internal/coach"
	"interview-coach/internal/config"
	"interview-coach/internal/conversation"
	"interview-coach/internal/history"
	"interview-coach/internal/markdown"
	"interview-coach/internal/storage"
	"interview-coach/internal/terminal"
)

// app holds the components shared by every command
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	kv      storage.KV
	client  *coach.Client
	ctrl    *conversation.Controller
	closers []io.Closer
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	logger, logFile, err := openLogger(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a.logger = logger
	a.closers = append(a.closers, logFile)

	kv, err := a.openStorage()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.kv = kv

	repo := history.NewKVRepository(kv, cfg.StorageKey, logger)
	conv := history.OpenConversation(repo)

	a.client = coach.NewClient(coach.Options{
		BaseURL:       cfg.BaseURL,
		InterviewPath: cfg.InterviewPath,
		Timeout:       cfg.RequestTimeout,
		UserAgent:     cfg.UserAgent,
		HTTPProxy:     cfg.HTTPProxy,
		NoProxy:       cfg.NoProxy,
		Logger:        logger,
	})
	a.ctrl = conversation.NewController(conv, a.client, logger)

	logger.Info("session started",
		"version", version,
		"backend", cfg.BaseURL,
		"storage", cfg.StorageBackend,
		"messages", conv.Len())
	return a, nil
}

func (a *app) openStorage() (storage.KV, error) {
	path := a.cfg.ResolvedStoragePath()
	switch a.cfg.StorageBackend {
	case config.BackendSQLite:
		db, err := storage.OpenSQLite(path, a.cfg.StorageQuota)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		a.closers = append(a.closers, db)
		return db, nil
	default:
		return storage.NewFile(path, a.cfg.StorageQuota, a.logger), nil
	}
}

// watchPurge reloads the transcript when the storage file is deleted.
// Only the file backend is watched; an open database survives unlinking.
func (a *app) watchPurge(ctx context.Context) {
	file, ok := a.kv.(*storage.File)
	if !ok {
		return
	}
	err := storage.WatchPurge(ctx, file.Path(), a.logger, func() {
		file.Invalidate()
		a.ctrl.Reload()
	})
	if err != nil {
		a.logger.Warn("storage watch unavailable", "error", err)
	}
}

// ping checks the backend without failing the command
func (a *app) ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		a.logger.Warn("backend not reachable", "url", a.cfg.BaseURL, "error", err)
		return err
	}
	return nil
}

// newSession builds the line-mode session writing to out
func (a *app) newSession(in io.Reader, out io.Writer) *terminal.Session {
	tty := isTerminal(out)
	width := 80
	if f, ok := out.(*os.File); ok && tty {
		width = terminal.Width(f)
	}

	var renderer *markdown.Renderer
	if tty {
		r, err := markdown.New(a.cfg.Theme, width-4)
		if err != nil {
			a.logger.Warn("markdown renderer unavailable", "error", err)
		} else {
			renderer = r
		}
	}

	display := terminal.NewDisplay(terminal.DisplayOptions{
		Out:         out,
		Color:       tty,
		Interactive: tty,
		Width:       width,
		Renderer:    renderer,
	})
	s := terminal.NewSession(display, terminal.NewInput(in), a.ctrl)
	s.BaseURL = a.cfg.BaseURL
	s.Typing = a.cfg.Typing
	s.Delay = a.cfg.TypingDelay
	s.Interval = a.cfg.TypingInterval
	return s
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

// openLogger writes structured logs to path so they never mix with the UI
func openLogger(path, level string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler), f, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && terminal.IsTerminal(f)
}
