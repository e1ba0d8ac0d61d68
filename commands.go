package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"interview-coach/internal/config"
	"interview-coach/internal/terminal"
	"interview-coach/internal/ui"
)

// flags holds the persistent command-line overrides
type flags struct {
	configPath  string
	baseURL     string
	timeout     time.Duration
	storagePath string
	backend     string
	logLevel    string
	plain       bool
	noTyping    bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "interview-coach",
		Short: "Practice interview questions with an AI coach",
		Long: `Practice interview questions with an AI coach.

Runs a full-screen chat by default, or a line-based prompt with --plain or
when output is not a terminal. The conversation is kept between runs.

Examples:
  interview-coach
  interview-coach ask "Tell me about yourself"
  interview-coach --base-url http://coach.internal:8000 --backend sqlite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default ~/.interview-coach/config.toml)")
	pf.StringVar(&f.baseURL, "base-url", "", "coaching backend base URL")
	pf.DurationVar(&f.timeout, "timeout", 0, "request timeout")
	pf.StringVar(&f.storagePath, "storage", "", "storage file path")
	pf.StringVar(&f.backend, "backend", "", "storage backend: file or sqlite")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&f.plain, "plain", false, "use the line-based prompt instead of the full-screen UI")
	pf.BoolVar(&f.noTyping, "no-typing", false, "print replies at once instead of typing them out")

	root.AddCommand(
		newAskCmd(f),
		newHistoryCmd(f),
		newClearCmd(f),
		newVersionCmd(),
	)
	return root
}

// --- ask ---

func newAskCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the reply",
		Long: `Ask one question and print the reply.

The exchange is added to the saved conversation.

Examples:
  interview-coach ask "Why should we hire you?"
  interview-coach ask --no-typing What are your strengths and weaknesses?`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signalContext(cmd)
			defer stop()

			session := a.newSession(cmd.InOrStdin(), cmd.OutOrStdout())
			return session.Ask(ctx, strings.Join(args, " "))
		},
	}
}

// --- history ---

func newHistoryCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the saved conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			display := terminal.NewDisplay(terminal.DisplayOptions{
				Out:   cmd.OutOrStdout(),
				Color: isTerminal(cmd.OutOrStdout()),
			})
			display.PrintHistory(a.ctrl.Messages())
			return nil
		},
	}
}

// --- clear ---

func newClearCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			a.ctrl.ClearHistory()
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared")
			return nil
		},
	}
}

// --- version ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "interview-coach version %s\n", version)
		},
	}
}

// runChat starts the full-screen UI or the line-based prompt
func runChat(cmd *cobra.Command, f *flags) error {
	a, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	a.watchPurge(ctx)
	pingErr := a.ping(ctx)

	plain := a.cfg.Plain || !isTerminal(cmd.OutOrStdout()) || !isTerminal(cmd.InOrStdin())
	if plain {
		session := a.newSession(cmd.InOrStdin(), cmd.OutOrStdout())
		if pingErr != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠ Coaching service not reachable at %s; replies will fail until it is running\n", a.cfg.BaseURL)
		}
		return session.Run(ctx)
	}

	return ui.Run(ctx, ui.Options{
		Controller: a.ctrl,
		KV:         a.kv,
		Theme:      a.cfg.Theme,
		Typing:     a.cfg.Typing,
		Delay:      a.cfg.TypingDelay,
		Interval:   a.cfg.TypingInterval,
		Logger:     a.logger,
	}, a.ctrl.OnChange)
}

// setup loads the configuration, applies flags and builds the app
func setup(cmd *cobra.Command, f *flags) (*app, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if changed("timeout") {
		cfg.RequestTimeout = f.timeout
	}
	if changed("storage") {
		cfg.StoragePath = f.storagePath
	}
	if changed("backend") {
		cfg.StorageBackend = f.backend
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.plain {
		cfg.Plain = true
	}
	if f.noTyping {
		cfg.Typing = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
