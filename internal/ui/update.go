package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"interview-coach/internal/conversation"
	"interview-coach/internal/history"
	"interview-coach/internal/reveal"
)

// Update handles input, submission results and reveal steps
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.rebuildRenderer()
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case transcriptChangedMsg:
		return m, m.sync()

	case submitDoneMsg:
		m.waiting = false
		m.input.Focus()
		if msg.err != nil && !errors.Is(msg.err, conversation.ErrBusy) && !errors.Is(msg.err, conversation.ErrEmptyMessage) {
			m.logger.Error("submit failed", "error", msg.err)
		}
		cmd := m.sync()
		m.layout()
		return m, cmd

	case revealBeginMsg:
		c := m.find(msg.id, msg.gen)
		if c == nil || c.rev.State() != reveal.Idle {
			return m, nil
		}
		c.rev.Begin()
		m.refresh()
		if c.rev.Animating() {
			return m, tickCmd(c, m.interval)
		}
		return m, nil

	case revealTickMsg:
		c := m.find(msg.id, msg.gen)
		if c == nil {
			return m, nil
		}
		more := c.rev.Tick()
		m.refresh()
		if more {
			return m, tickCmd(c, m.interval)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.ClearHistory()
		return m, m.sync()

	case key.Matches(msg, m.keys.Theme):
		m.setTheme(!m.theme.Dark)
		if err := saveDarkMode(m.kv, m.theme.Dark); err != nil {
			m.logger.Warn("failed to save theme", "error", err)
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Example):
		m.input.SetValue(ExampleQuestions[m.example%len(ExampleQuestions)])
		m.example++
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.waiting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input to the controller. Blank input and submissions
// while a reply is pending leave everything untouched.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || m.waiting || m.ctrl.IsLoading() {
		return m, nil
	}

	m.input.Reset()
	m.input.Blur()
	m.waiting = true
	m.layout()

	ctx, ctrl := m.ctx, m.ctrl
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		reply, err := ctrl.Submit(ctx, text)
		return submitDoneMsg{reply: reply, err: err}
	})
}

// sync brings the cards in line with the controller's transcript. New
// entries are appended; anything else (clear, reload) rebuilds every card
// statically under a new generation so pending reveal steps are dropped.
func (m *Model) sync() tea.Cmd {
	msgs := m.ctrl.Messages()
	defer m.refresh()

	if !m.extends(msgs) {
		m.gen++
		m.cards = make([]*card, 0, len(msgs))
		for _, msg := range msgs {
			m.cards = append(m.cards, staticCard(msg, m.gen))
		}
		return nil
	}

	added := msgs[len(m.cards):]
	if len(added) == 0 {
		return nil
	}
	for _, msg := range added {
		if n := len(m.cards); n > 0 {
			m.cards[n-1].rev.Finish()
		}
		c := staticCard(msg, m.gen)
		if m.typing && animates(msg) {
			c = animatedCard(msg, m.gen)
		}
		m.cards = append(m.cards, c)
	}

	last := m.cards[len(m.cards)-1]
	if last.rev.State() == reveal.Idle {
		return beginCmd(last, m.delay)
	}
	return nil
}

// extends reports whether msgs is the current cards plus zero or more new entries
func (m *Model) extends(msgs []history.Message) bool {
	if len(msgs) < len(m.cards) {
		return false
	}
	for i, c := range m.cards {
		if msgs[i].ID != c.msg.ID {
			return false
		}
	}
	return true
}

func (m *Model) find(id int64, gen int) *card {
	if gen != m.gen {
		return nil
	}
	for _, c := range m.cards {
		if c.msg.ID == id {
			return c
		}
	}
	return nil
}
