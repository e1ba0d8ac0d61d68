package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"interview-coach/internal/history"
	"interview-coach/internal/markdown"
	"interview-coach/internal/reveal"
)

// card is one transcript entry on screen
type card struct {
	msg history.Message
	rev *reveal.Machine
	gen int

	// cached output of the finished card and what it was rendered with
	cached  string
	key     renderKey
	valid   bool
	renders int
}

type renderKey struct {
	dark  bool
	width int
	md    *markdown.Renderer
}

// revealBeginMsg ends the initial delay of card id
type revealBeginMsg struct {
	id  int64
	gen int
}

// revealTickMsg shows one more character of card id
type revealTickMsg struct {
	id  int64
	gen int
}

func staticCard(msg history.Message, gen int) *card {
	return &card{msg: msg, rev: reveal.Static(msg.Text), gen: gen}
}

func animatedCard(msg history.Message, gen int) *card {
	return &card{msg: msg, rev: reveal.New(msg.Text), gen: gen}
}

// animates reports whether msg gets the typing effect when it arrives
func animates(msg history.Message) bool {
	return !msg.IsUser && !msg.IsError
}

func beginCmd(c *card, delay time.Duration) tea.Cmd {
	id, gen := c.msg.ID, c.gen
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return revealBeginMsg{id: id, gen: gen}
	})
}

func tickCmd(c *card, interval time.Duration) tea.Cmd {
	id, gen := c.msg.ID, c.gen
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return revealTickMsg{id: id, gen: gen}
	})
}

// render draws the card at width using theme and the markdown renderer.
// A finished card is drawn once per theme, width and renderer.
func (c *card) render(theme Theme, md *markdown.Renderer, width int) string {
	finished := c.rev.State() == reveal.Complete
	key := renderKey{dark: theme.Dark, width: width, md: md}
	if finished && c.valid && c.key == key {
		return c.cached
	}
	c.renders++

	style := theme.CoachCard
	switch {
	case c.msg.IsError:
		style = theme.ErrorCard
	case c.msg.IsUser:
		style = theme.UserCard
	}

	header := theme.Author.Render(c.msg.Author()) + " " + theme.Time.Render(c.msg.Time().Format("15:04"))

	var body string
	switch {
	case c.msg.IsUser || c.msg.IsError:
		body = c.msg.Text
	case c.rev.State() == reveal.Complete:
		body = md.Render(c.msg.Text)
	default:
		body = c.rev.Prefix() + theme.Cursor.Render("▋")
	}

	inner := width - style.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}
	content := lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.NewStyle().Width(inner).Render(strings.TrimRight(body, "\n")))
	out := style.Width(width - style.GetHorizontalBorderSize()).Render(content)
	c.cached, c.key, c.valid = out, key, finished
	return out
}
