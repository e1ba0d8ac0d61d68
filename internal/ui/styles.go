package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"interview-coach/internal/storage"
)

// DarkModeKey is the storage key holding the theme choice
const DarkModeKey = "darkMode"

// Theme holds the styles for one color scheme
type Theme struct {
	Dark bool

	Title   lipgloss.Style
	Tagline lipgloss.Style
	Muted   lipgloss.Style
	Example lipgloss.Style

	UserCard  lipgloss.Style
	CoachCard lipgloss.Style
	ErrorCard lipgloss.Style
	Author    lipgloss.Style
	Time      lipgloss.Style
	Cursor    lipgloss.Style

	BannerTitle lipgloss.Style
	Banner      lipgloss.Style
	Spinner     lipgloss.Style
	Input       lipgloss.Style
	Help        lipgloss.Style
}

// NewTheme builds the dark or light theme
func NewTheme(dark bool) Theme {
	text, muted, border := lipgloss.Color("#1F2937"), lipgloss.Color("#6B7280"), lipgloss.Color("#D1D5DB")
	if dark {
		text, muted, border = lipgloss.Color("#F9FAFB"), lipgloss.Color("#9CA3AF"), lipgloss.Color("#4B5563")
	}
	blue, emerald, red := lipgloss.Color("#3B82F6"), lipgloss.Color("#10B981"), lipgloss.Color("#EF4444")

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return Theme{
		Dark: dark,

		Title:   lipgloss.NewStyle().Bold(true).Foreground(blue),
		Tagline: lipgloss.NewStyle().Foreground(text),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		Example: lipgloss.NewStyle().Foreground(emerald),

		UserCard:  card.BorderForeground(blue),
		CoachCard: card.BorderForeground(border),
		ErrorCard: card.BorderForeground(red),
		Author:    lipgloss.NewStyle().Bold(true).Foreground(text),
		Time:      lipgloss.NewStyle().Foreground(muted),
		Cursor:    lipgloss.NewStyle().Foreground(emerald).Blink(true),

		BannerTitle: lipgloss.NewStyle().Bold(true).Foreground(red),
		Banner: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(red).
			Foreground(red).
			PaddingLeft(1),
		Spinner: lipgloss.NewStyle().Foreground(blue),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border),
		Help: lipgloss.NewStyle().Foreground(muted).Faint(true),
	}
}

// markdownStyle names the glamour style matching the theme
func (t Theme) markdownStyle() string {
	if t.Dark {
		return "dark"
	}
	return "light"
}

// loadDarkMode reads the saved theme choice, falling back to the configured theme
func loadDarkMode(kv storage.KV, theme string) bool {
	if kv != nil {
		if v, ok, err := kv.Get(DarkModeKey); err == nil && ok {
			if dark, err := strconv.ParseBool(v); err == nil {
				return dark
			}
		}
	}

	switch theme {
	case "dark":
		return true
	case "light":
		return false
	}
	return lipgloss.HasDarkBackground()
}

// saveDarkMode stores the choice as a JSON boolean
func saveDarkMode(kv storage.KV, dark bool) error {
	if kv == nil {
		return nil
	}
	return kv.Set(DarkModeKey, strconv.FormatBool(dark))
}
