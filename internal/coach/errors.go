package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

const (
	unreachableMessage = "Unable to connect to the coaching service; verify the backend is running and reachable."
	unavailableMessage = "The coaching service is temporarily unavailable. Please try again."
	networkMessage     = "Network error. Please check your connection and try again."
)

var (
	// ErrUnreachable means the backend refused the connection or could not be routed to
	ErrUnreachable = errors.New(unreachableMessage)

	// ErrNetwork matches every *NetworkError
	ErrNetwork = errors.New(networkMessage)
)

// ServiceError is a non-2xx response from the backend
type ServiceError struct {
	StatusCode int
	Detail     string // server-provided detail, may be empty
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return unavailableMessage
}

// NetworkError covers DNS failures, timeouts and malformed responses
type NetworkError struct {
	Err     error
	timeout bool
}

func (e *NetworkError) Error() string {
	return networkMessage
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports ErrNetwork as a match
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// Timeout reports whether the request ran out of time
func (e *NetworkError) Timeout() bool {
	return e.timeout
}

// Describe returns the human-readable description of a failed exchange
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnreachable) {
		return unreachableMessage
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Error()
	}
	return networkMessage
}

// IsTimeout reports whether err is a timed-out exchange
func IsTimeout(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyTransport maps an error from http.Client.Do into the taxonomy
func classifyTransport(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &NetworkError{Err: err}
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &NetworkError{Err: err, timeout: true}
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	return &NetworkError{Err: err}
}

// parseDetail extracts a FastAPI-style "detail" from an error body.
// detail may be a string or a list of validation errors with "msg" fields.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
