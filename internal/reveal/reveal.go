// Package reveal simulates a reply being typed out one character at a time.
//
// Machine is the pure state machine; Player drives a Machine on a Clock so
// the same rules run on real timers, Bubble Tea ticks or a fake clock.
package reveal

import "time"

const (
	// DefaultDelay is the pause before the first character appears
	DefaultDelay = 500 * time.Millisecond
	// DefaultInterval is the time between characters
	DefaultInterval = 30 * time.Millisecond
)

// State of a reveal
type State int

const (
	Idle State = iota
	Revealing
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Revealing:
		return "revealing"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Machine tracks how much of a text is visible.
// The zero value is not usable; create one with New or Static.
type Machine struct {
	text  []rune
	shown int
	state State
}

// New creates a machine that has not revealed anything yet
func New(text string) *Machine {
	return &Machine{text: []rune(text), state: Idle}
}

// Static creates a machine that shows the full text immediately
func Static(text string) *Machine {
	r := []rune(text)
	return &Machine{text: r, shown: len(r), state: Complete}
}

// Begin ends the initial delay. Empty text completes immediately.
func (m *Machine) Begin() {
	if m.state != Idle {
		return
	}
	if len(m.text) == 0 {
		m.state = Complete
		return
	}
	m.state = Revealing
}

// Tick reveals one more character and reports whether more remain
func (m *Machine) Tick() bool {
	if m.state != Revealing {
		return false
	}
	m.shown++
	if m.shown >= len(m.text) {
		m.shown = len(m.text)
		m.state = Complete
		return false
	}
	return true
}

// Finish jumps straight to the complete text
func (m *Machine) Finish() {
	m.shown = len(m.text)
	m.state = Complete
}

// Prefix returns the visible part of the text
func (m *Machine) Prefix() string {
	return string(m.text[:m.shown])
}

// Shown returns the visible length in characters
func (m *Machine) Shown() int { return m.shown }

// Len returns the full length in characters
func (m *Machine) Len() int { return len(m.text) }

// Text returns the full text
func (m *Machine) Text() string { return string(m.text) }

// State returns the current state
func (m *Machine) State() State { return m.state }

// Animating reports whether the text is still incomplete
func (m *Machine) Animating() bool { return m.state != Complete }
