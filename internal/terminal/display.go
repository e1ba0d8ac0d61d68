package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"interview-coach/internal/history"
	"interview-coach/internal/markdown"
)

// Display handles terminal output with colors and formatting
type Display struct {
	out         io.Writer
	mu          sync.Mutex
	color       bool
	interactive bool
	width       int
	renderer    *markdown.Renderer

	spinnerDone chan struct{}
	spinnerWG   sync.WaitGroup
}

// DisplayOptions configures a Display
type DisplayOptions struct {
	Out io.Writer
	// Color enables ANSI colors
	Color bool
	// Interactive enables the spinner and screen clearing
	Interactive bool
	Width       int
	// Renderer renders finished replies; nil prints them raw
	Renderer *markdown.Renderer
}

// NewDisplay creates a new display instance
func NewDisplay(opts DisplayOptions) *Display {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	return &Display{
		out:         opts.Out,
		color:       opts.Color,
		interactive: opts.Interactive,
		width:       opts.Width,
		renderer:    opts.Renderer,
	}
}

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

func (d *Display) c(code string) string {
	if !d.color {
		return ""
	}
	return code
}

func (d *Display) printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format, args...)
}

// ClearScreen clears the terminal
func (d *Display) ClearScreen() {
	if d.interactive {
		d.printf("\033[2J\033[H")
	}
}

// PrintWelcome displays the welcome message
func (d *Display) PrintWelcome(baseURL string) {
	d.printf("%s╔════════════════════════════════════════╗%s\n", d.c(colorCyan), d.c(colorReset))
	d.printf("%s║      AI Interview Coach                ║%s\n", d.c(colorCyan), d.c(colorReset))
	d.printf("%s╚════════════════════════════════════════╝%s\n", d.c(colorCyan), d.c(colorReset))
	d.printf("\n%sPractice your interview skills with AI-powered feedback%s\n", d.c(colorGray), d.c(colorReset))
	d.printf("%sBackend: %s%s\n", d.c(colorGray), baseURL, d.c(colorReset))
	d.printf("%sCommands: /exit | /clear | /history%s\n\n", d.c(colorGray), d.c(colorReset))
}

// PrintGoodbye displays the goodbye message
func (d *Display) PrintGoodbye() {
	d.printf("\n%sGood luck with your interview! 👋%s\n", d.c(colorCyan), d.c(colorReset))
}

// PrintError displays an error message
func (d *Display) PrintError(err error) {
	d.printf("%s✗ Error: %v%s\n", d.c(colorRed), err, d.c(colorReset))
}

// PrintInfo displays an info message
func (d *Display) PrintInfo(msg string) {
	d.printf("%sℹ %s%s\n", d.c(colorCyan), msg, d.c(colorReset))
}

// PrintWarning displays a warning message
func (d *Display) PrintWarning(msg string) {
	d.printf("%s⚠ %s%s\n", d.c(colorYellow), msg, d.c(colorReset))
}

// PrintSuccess displays a success message
func (d *Display) PrintSuccess(msg string) {
	d.printf("%s✓ %s%s\n", d.c(colorGreen), msg, d.c(colorReset))
}

// PrintSeparator prints a visual separator
func (d *Display) PrintSeparator() {
	d.printf("%s%s%s\n", d.c(colorDim), strings.Repeat("─", min(d.width, 80)), d.c(colorReset))
}

// PrintPrompt displays the user input prompt
func (d *Display) PrintPrompt() {
	d.printf("\n%s%s❯%s ", d.c(colorBold), d.c(colorGreen), d.c(colorReset))
}

// ShowSpinner displays a spinner with a message
func (d *Display) ShowSpinner(msg string) {
	if !d.interactive {
		return
	}
	d.StopSpinner()

	done := make(chan struct{})
	d.spinnerDone = done
	d.spinnerWG.Add(1)

	go func() {
		defer d.spinnerWG.Done()
		spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i = (i + 1) % len(spinnerChars) {
			d.printf("\r%s%s %s%s", d.c(colorCyan), spinnerChars[i], msg, d.c(colorReset))
			select {
			case <-done:
				// Clear the spinner line
				d.printf("\r%s\r", clearLine())
				return
			case <-ticker.C:
			}
		}
	}()
}

// StopSpinner stops the currently active spinner
func (d *Display) StopSpinner() {
	if d.spinnerDone == nil {
		return
	}
	close(d.spinnerDone)
	d.spinnerDone = nil
	d.spinnerWG.Wait()
}

// clearLine returns ANSI escape code to clear the current line
func clearLine() string {
	return "\033[2K"
}

// PrintUserMessage displays a user message with its time
func (d *Display) PrintUserMessage(msg history.Message) {
	d.printf("\n%s┌─ %s · %s%s\n", d.c(colorGray), msg.Author(), clock(msg), d.c(colorReset))
	for _, line := range strings.Split(msg.Text, "\n") {
		d.printf("%s│%s %s\n", d.c(colorGray), d.c(colorReset), line)
	}
	d.printf("%s└%s\n", d.c(colorGray), d.c(colorReset))
}

// StartCoachMessage prints the header of a coach reply
func (d *Display) StartCoachMessage(msg history.Message) {
	d.printf("\n%s┌─ %s · %s%s\n", d.c(colorBlue), msg.Author(), clock(msg), d.c(colorReset))
	d.printf("%s│%s ", d.c(colorGray), d.c(colorReset))
}

// WriteChunk writes revealed text, continuing the box on new lines
func (d *Display) WriteChunk(text string) {
	d.printf("%s", strings.ReplaceAll(text, "\n", fmt.Sprintf("\n%s│%s ", d.c(colorGray), d.c(colorReset))))
}

// EndCoachMessage closes a reply box. When rendered is set and a markdown
// renderer is configured, the styled reply follows the raw text.
func (d *Display) EndCoachMessage(text string, rendered bool) {
	d.printf("\n")
	if rendered && d.renderer != nil && text != "" {
		d.printf("%s│ Rendered:%s\n", d.c(colorGray), d.c(colorReset))
		d.printIndented(d.renderer.Render(text))
	}
	d.printf("%s└%s\n", d.c(colorGray), d.c(colorReset))
}

// PrintCoachMessage prints a complete coach reply without animation
func (d *Display) PrintCoachMessage(msg history.Message) {
	if msg.IsError {
		d.printf("\n%s┌─ %s · %s · Connection Error%s\n", d.c(colorRed), msg.Author(), clock(msg), d.c(colorReset))
		d.printIndented(msg.Text)
		d.printf("%s└%s\n", d.c(colorRed), d.c(colorReset))
		return
	}

	d.printf("\n%s┌─ %s · %s%s\n", d.c(colorBlue), msg.Author(), clock(msg), d.c(colorReset))
	text := msg.Text
	if d.renderer != nil {
		text = d.renderer.Render(text)
	}
	d.printIndented(text)
	d.printf("%s└%s\n", d.c(colorGray), d.c(colorReset))
}

// PrintMessage prints any transcript entry statically
func (d *Display) PrintMessage(msg history.Message) {
	if msg.IsUser {
		d.PrintUserMessage(msg)
		return
	}
	d.PrintCoachMessage(msg)
}

// PrintHistory displays the whole transcript
func (d *Display) PrintHistory(msgs []history.Message) {
	if len(msgs) == 0 {
		d.PrintInfo("No conversation history yet")
		return
	}

	d.PrintSeparator()
	d.printf("Conversation History (%d messages)\n", len(msgs))
	d.PrintSeparator()
	for _, m := range msgs {
		d.PrintMessage(m)
	}
	d.PrintSeparator()
}

func (d *Display) printIndented(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		d.printf("%s│%s %s\n", d.c(colorGray), d.c(colorReset), line)
	}
}

// Cleanup ensures the display is in a good state before exit
func (d *Display) Cleanup() {
	d.StopSpinner()
}

func clock(msg history.Message) string {
	return msg.Time().Format("15:04")
}

// IsTerminal checks if f is a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or 80 when unknown
func Width(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
