// Package ui is the full-screen terminal front end of the interview coach.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"interview-coach/internal/history"
	"interview-coach/internal/markdown"
	"interview-coach/internal/reveal"
	"interview-coach/internal/storage"
)

// ExampleQuestions are offered on the welcome panel
var ExampleQuestions = []string{
	"Tell me about yourself",
	"Why should we hire you?",
	"What are your strengths and weaknesses?",
	"Where do you see yourself in 5 years?",
	"Why do you want to work here?",
}

// Controller is the conversation state the UI presents
type Controller interface {
	Submit(ctx context.Context, text string) (history.Message, error)
	ClearHistory()
	Messages() []history.Message
	IsLoading() bool
	LastError() (string, bool)
}

// KeyMap defines the key bindings
type KeyMap struct {
	Submit  key.Binding
	Newline key.Binding
	Example key.Binding
	Clear   key.Binding
	Theme   key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
		Example: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "example"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear history"),
		),
		Theme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "theme"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// Options configures the model
type Options struct {
	Controller Controller
	// KV persists the theme choice; nil keeps it in memory
	KV storage.KV
	// Theme is "auto", "dark" or "light"; a saved choice wins
	Theme    string
	Typing   bool
	Delay    time.Duration
	Interval time.Duration
	Context  context.Context
	Logger   *slog.Logger
}

// Model is the bubbletea model
type Model struct {
	ctrl   Controller
	kv     storage.KV
	ctx    context.Context
	logger *slog.Logger
	keys   KeyMap

	typing   bool
	delay    time.Duration
	interval time.Duration

	theme    Theme
	renderer *markdown.Renderer

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	cards   []*card
	gen     int
	waiting bool
	example int

	width  int
	height int
}

// transcriptChangedMsg is sent when the controller reports a change
type transcriptChangedMsg struct{}

// submitDoneMsg carries the outcome of a submission
type submitDoneMsg struct {
	reply history.Message
	err   error
}

// New creates the model. Messages already in the transcript are shown
// fully rendered.
func New(opts Options) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Delay <= 0 {
		opts.Delay = reveal.DefaultDelay
	}
	if opts.Interval <= 0 {
		opts.Interval = reveal.DefaultInterval
	}

	ta := textarea.New()
	ta.Placeholder = "Ask the AI Coach any interview question... (e.g., 'Tell me about yourself')"
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = DefaultKeyMap().Newline
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctrl:     opts.Controller,
		kv:       opts.KV,
		ctx:      opts.Context,
		logger:   opts.Logger,
		keys:     DefaultKeyMap(),
		typing:   opts.Typing,
		delay:    opts.Delay,
		interval: opts.Interval,
		input:    ta,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}
	m.setTheme(loadDarkMode(opts.KV, opts.Theme))
	m.resize(80, 24)

	for _, msg := range m.ctrl.Messages() {
		m.cards = append(m.cards, staticCard(msg, m.gen))
	}
	m.refresh()
	return m
}

// Init starts the cursor blink
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) setTheme(dark bool) {
	m.theme = NewTheme(dark)
	m.spinner.Style = m.theme.Spinner
	m.rebuildRenderer()
}

func (m *Model) rebuildRenderer() {
	r, err := markdown.New(m.theme.markdownStyle(), m.contentWidth()-4)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", "error", err)
		r = nil
	}
	m.renderer = r
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

// Run starts the program and blocks until the user quits
func Run(ctx context.Context, opts Options, changes func(func())) error {
	opts.Context = ctx
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Changes can be reported from inside Update (clearing history), so
	// sending must not block the event loop.
	if changes != nil {
		changes(func() { go p.Send(transcriptChangedMsg{}) })
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
