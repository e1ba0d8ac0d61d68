package history

import (
	"sync"
	"time"
)

// IDSource issues strictly increasing message ids derived from creation time.
// Two ids requested within the same millisecond differ by one.
type IDSource struct {
	mu   sync.Mutex
	last int64
}

// NewIDSource creates an id source that will never reissue any of seen
func NewIDSource(seen []Message) *IDSource {
	s := &IDSource{}
	for _, m := range seen {
		s.Observe(m.ID)
	}
	return s
}

// Next returns a fresh id for a message created at t
func (s *IDSource) Next(t time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := t.UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe records an id issued elsewhere so it is never reused
func (s *IDSource) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}
