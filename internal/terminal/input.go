package terminal

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Command is a slash command typed at the prompt
type Command int

const (
	CommandNone Command = iota
	CommandExit
	CommandClear
	CommandHistory
)

// Input reads lines of user input
type Input struct {
	reader *bufio.Reader
}

// NewInput creates an input reader over r (stdin when nil)
func NewInput(r io.Reader) *Input {
	if r == nil {
		r = os.Stdin
	}
	return &Input{reader: bufio.NewReader(r)}
}

// ReadUserInput reads a line of input from the user.
// A final line without a newline is returned before io.EOF.
func (in *Input) ReadUserInput() (string, error) {
	input, err := in.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}

	// Trim whitespace and newline
	return strings.TrimSpace(input), nil
}

// ParseCommand recognises the prompt commands
func ParseCommand(input string) Command {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/exit", "/quit", "exit", "quit":
		return CommandExit
	case "/clear":
		return CommandClear
	case "/history":
		return CommandHistory
	}
	return CommandNone
}
