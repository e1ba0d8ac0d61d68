package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 2
	inputHeight  = 5 // textarea plus border
	statusHeight = 1
	footerHeight = 1
)

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.SetWidth(width - m.theme.Input.GetHorizontalFrameSize())
	m.viewport.Width = width
	m.layout()
}

// layout gives the viewport whatever height the other sections leave
func (m *Model) layout() {
	h := m.height - headerHeight - inputHeight - statusHeight - footerHeight - lipgloss.Height(m.bannerView())
	if m.bannerView() == "" {
		h++
	}
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
}

// refresh re-renders the transcript and scrolls to the newest entry
func (m *Model) refresh() {
	m.layout()
	m.viewport.SetContent(m.transcriptView())
	m.viewport.GotoBottom()
}

// View renders the whole screen
func (m *Model) View() string {
	sections := []string{m.headerView()}
	if banner := m.bannerView(); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections,
		m.viewport.View(),
		m.statusView(),
		m.theme.Input.Render(m.input.View()),
		m.helpView(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) headerView() string {
	title := m.theme.Title.Render("AI Interview Coach")
	if len(m.cards) > 0 {
		title += m.theme.Muted.Render(fmt.Sprintf("  ·  Conversation History (%d)", len(m.cards)))
	}
	return title + "\n"
}

// bannerView shows the most recent failure, if any
func (m *Model) bannerView() string {
	desc, ok := m.ctrl.LastError()
	if !ok {
		return ""
	}
	return m.theme.Banner.Render(m.theme.BannerTitle.Render("Connection Error") + "\n" + desc)
}

func (m *Model) statusView() string {
	if m.waiting || m.ctrl.IsLoading() {
		return m.spinner.View() + " " + m.theme.Muted.Render("AI Coach is thinking...")
	}
	return ""
}

func (m *Model) helpView() string {
	bindings := []string{
		m.keys.Submit.Help().Key + " " + m.keys.Submit.Help().Desc,
		m.keys.Newline.Help().Key + " " + m.keys.Newline.Help().Desc,
		m.keys.Example.Help().Key + " " + m.keys.Example.Help().Desc,
		m.keys.Clear.Help().Key + " " + m.keys.Clear.Help().Desc,
		m.keys.Theme.Help().Key + " " + m.keys.Theme.Help().Desc,
		m.keys.Quit.Help().Key + " " + m.keys.Quit.Help().Desc,
	}
	return m.theme.Help.Render(strings.Join(bindings, " · "))
}

func (m *Model) transcriptView() string {
	if len(m.cards) == 0 {
		return m.welcomeView()
	}

	width := m.contentWidth() - 2
	parts := make([]string, 0, len(m.cards))
	for _, c := range m.cards {
		parts = append(parts, c.render(m.theme, m.renderer, width))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) welcomeView() string {
	var b strings.Builder
	b.WriteString(m.theme.Tagline.Render("Practice smarter. Get AI-powered feedback on your interview questions."))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Muted.Render("Need inspiration? Try these questions (tab):"))
	b.WriteString("\n")
	for _, q := range ExampleQuestions[:3] {
		b.WriteString(m.theme.Example.Render(fmt.Sprintf("  • \"%s\"", q)))
		b.WriteString("\n")
	}
	return b.String()
}
