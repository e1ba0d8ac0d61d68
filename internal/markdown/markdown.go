// Package markdown renders finished coach replies for the terminal.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer wraps a glamour renderer. Rendering failures fall back to the
// raw text so a reply is never lost.
type Renderer struct {
	term  *glamour.TermRenderer
	style string
	width int
}

// New creates a renderer for style ("dark", "light" or "auto") wrapping at width
func New(style string, width int) (*Renderer, error) {
	if width < 20 {
		width = 20
	}

	styleOpt := glamour.WithAutoStyle()
	switch style {
	case "dark", "light":
		styleOpt = glamour.WithStandardStyle(style)
	}

	term, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{term: term, style: style, width: width}, nil
}

// Render returns text as styled terminal output without surrounding blank lines
func (r *Renderer) Render(text string) string {
	if r == nil || r.term == nil {
		return text
	}
	out, err := r.term.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// Style returns the style the renderer was built with
func (r *Renderer) Style() string { return r.style }

// Width returns the wrap width
func (r *Renderer) Width() int { return r.width }
