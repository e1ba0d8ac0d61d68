// Package conversation mediates between user input, the coaching backend
// and the persisted transcript.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"interview-coach/internal/coach"
	"interview-coach/internal/history"
)

// ErrorPrefix starts the transcript entry recorded for a failed exchange
const ErrorPrefix = "I apologize, but I'm having trouble connecting right now. "

var (
	// ErrEmptyMessage is returned for blank submissions
	ErrEmptyMessage = errors.New("empty message")
	// ErrBusy is returned while another submission is outstanding
	ErrBusy = errors.New("a reply is still pending")
)

// Exchanger sends one question to the coach
type Exchanger interface {
	SendMessage(ctx context.Context, message string) (*coach.InterviewResponse, error)
}

// Controller owns the conversation and the transient UI state
type Controller struct {
	conv   *history.Conversation
	client Exchanger
	ids    *history.IDSource
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	loading   bool
	lastError string

	listenersMu sync.Mutex
	listeners   []func()
}

// NewController creates a controller over conv
func NewController(conv *history.Conversation, client Exchanger, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		conv:   conv,
		client: client,
		ids:    history.NewIDSource(conv.Messages()),
		logger: logger,
		now:    time.Now,
	}
}

// OnChange registers fn to be called after every state change
func (c *Controller) OnChange(fn func()) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) notify() {
	c.listenersMu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Submit records the question, asks the coach and records the answer.
// It blocks until the exchange finishes and returns the non-user message
// that was appended. Exchange failures are not returned: they become an
// error entry in the transcript and LastError. Blank input and submissions
// while another is pending return ErrEmptyMessage or ErrBusy without
// touching any state.
func (c *Controller) Submit(ctx context.Context, text string) (history.Message, error) {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if trimmed == "" {
		c.mu.Unlock()
		return history.Message{}, ErrEmptyMessage
	}
	if c.loading {
		c.mu.Unlock()
		return history.Message{}, ErrBusy
	}
	c.loading = true
	c.lastError = ""
	c.mu.Unlock()

	c.conv.Append(c.newMessage(trimmed, true))
	c.notify()

	reply := c.exchange(ctx, trimmed)
	c.conv.Append(reply)

	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	c.notify()

	return reply, nil
}

// exchange calls the backend and builds the reply or error message
func (c *Controller) exchange(ctx context.Context, text string) history.Message {
	start := c.now()
	resp, err := c.client.SendMessage(ctx, text)
	if err != nil {
		return c.failure(err)
	}
	if resp == nil {
		return c.failure(&coach.NetworkError{Err: errors.New("empty response from coach")})
	}

	c.logger.Info("reply received", "chars", len(resp.Reply), "duration", c.now().Sub(start))
	return c.newMessage(resp.Reply, false)
}

func (c *Controller) failure(err error) history.Message {
	description := coach.Describe(err)
	c.logger.Warn("exchange failed", "description", description, "error", err)

	c.mu.Lock()
	c.lastError = description
	c.mu.Unlock()

	msg := c.newMessage(ErrorPrefix+description, false)
	msg.IsError = true
	return msg
}

func (c *Controller) newMessage(text string, isUser bool) history.Message {
	now := c.now()
	return history.Message{
		ID:        c.ids.Next(now),
		Text:      text,
		IsUser:    isUser,
		Timestamp: now.UnixMilli(),
	}
}

// ClearHistory empties the transcript and forgets the last error.
// The loading flag is left alone.
func (c *Controller) ClearHistory() {
	c.conv.Clear()

	c.mu.Lock()
	c.lastError = ""
	c.mu.Unlock()

	c.logger.Info("conversation cleared")
	c.notify()
}

// Reload rereads the transcript from storage
func (c *Controller) Reload() {
	c.conv.Reload()
	for _, m := range c.conv.Messages() {
		c.ids.Observe(m.ID)
	}
	c.notify()
}

// IsLoading reports whether a submission is outstanding
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError returns the description of the most recent failure
func (c *Controller) LastError() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError, c.lastError != ""
}

// Messages returns a snapshot of the transcript
func (c *Controller) Messages() []history.Message {
	return c.conv.Messages()
}
