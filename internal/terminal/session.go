package terminal

import (
	"context"
	"errors"
	"time"

	"interview-coach/internal/conversation"
	"interview-coach/internal/history"
	"interview-coach/internal/reveal"
)

// Coach is the part of the conversation controller the line mode drives
type Coach interface {
	Submit(ctx context.Context, text string) (history.Message, error)
	ClearHistory()
	Messages() []history.Message
}

// ErrReplyFailed is returned by Ask when the exchange failed
var ErrReplyFailed = errors.New("coach reply failed")

// Session is the line-mode conversation loop
type Session struct {
	display *Display
	input   *Input
	coach   Coach

	// BaseURL is shown in the welcome banner
	BaseURL string
	// Typing reveals replies progressively
	Typing   bool
	Delay    time.Duration
	Interval time.Duration
	Clock    reveal.Clock
}

// NewSession creates a session with the default typing timing
func NewSession(display *Display, input *Input, coach Coach) *Session {
	return &Session{
		display:  display,
		input:    input,
		coach:    coach,
		Typing:   true,
		Delay:    reveal.DefaultDelay,
		Interval: reveal.DefaultInterval,
		Clock:    reveal.RealClock{},
	}
}

// Run prints the welcome banner and the existing transcript, then reads
// questions until /exit, end of input or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer s.display.Cleanup()

	s.display.PrintWelcome(s.BaseURL)
	for _, m := range s.coach.Messages() {
		s.display.PrintMessage(m)
	}

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			line, err := s.input.ReadUserInput()
			if err != nil {
				errs <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		s.display.PrintPrompt()

		var query string
		select {
		case <-ctx.Done():
			s.display.PrintGoodbye()
			return nil
		case <-errs:
			s.display.PrintGoodbye()
			return nil
		case query = <-lines:
		}

		switch ParseCommand(query) {
		case CommandExit:
			s.display.PrintGoodbye()
			return nil
		case CommandClear:
			s.coach.ClearHistory()
			s.display.ClearScreen()
			s.display.PrintWelcome(s.BaseURL)
			s.display.PrintSuccess("Conversation cleared")
			continue
		case CommandHistory:
			s.display.PrintHistory(s.coach.Messages())
			continue
		}

		if query == "" {
			continue
		}
		s.exchange(ctx, query)
		if ctx.Err() != nil {
			s.display.PrintGoodbye()
			return nil
		}
	}
}

// Ask runs a single exchange and prints only the reply
func (s *Session) Ask(ctx context.Context, question string) error {
	defer s.display.Cleanup()

	s.display.ShowSpinner("AI Coach is thinking...")
	reply, err := s.coach.Submit(ctx, question)
	s.display.StopSpinner()
	if err != nil {
		return err
	}

	s.showReply(ctx, reply)
	if reply.IsError {
		return ErrReplyFailed
	}
	return nil
}

func (s *Session) exchange(ctx context.Context, query string) {
	s.display.PrintUserMessage(history.Message{Text: query, IsUser: true, Timestamp: time.Now().UnixMilli()})

	s.display.ShowSpinner("AI Coach is thinking...")
	reply, err := s.coach.Submit(ctx, query)
	s.display.StopSpinner()

	switch {
	case errors.Is(err, conversation.ErrBusy):
		s.display.PrintWarning("Please wait for the current reply")
	case err != nil:
		s.display.PrintError(err)
	default:
		s.showReply(ctx, reply)
	}
}

// showReply prints the reply, revealing it when typing is on
func (s *Session) showReply(ctx context.Context, reply history.Message) {
	if !s.Typing || reply.IsError {
		s.display.PrintCoachMessage(reply)
		return
	}

	s.display.StartCoachMessage(reply)

	shown := 0
	p := reveal.NewPlayer(reply.Text, s.Clock)
	p.Delay = s.Delay
	p.Interval = s.Interval
	p.OnUpdate = func(prefix string, done bool) {
		r := []rune(prefix)
		if len(r) > shown {
			s.display.WriteChunk(string(r[shown:]))
			shown = len(r)
		}
	}
	p.Start()

	select {
	case <-p.Done():
	case <-ctx.Done():
		p.Stop()
	}
	s.display.EndCoachMessage(reply.Text, true)
}
