package storage

import "sync"

// Memory is an in-process KV. A zero quota means unlimited.
type Memory struct {
	mu      sync.Mutex
	entries map[string]string
	quota   int64
	used    int64
}

// NewMemory creates an empty in-memory store with the given quota
func NewMemory(quota int64) *Memory {
	return &Memory{
		entries: make(map[string]string),
		quota:   quota,
	}
}

// Get returns the value for key
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.entries[key]
	return v, ok, nil
}

// Set stores value under key
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.used + usage(key, value)
	if old, ok := m.entries[key]; ok {
		next -= usage(key, old)
	}
	if m.quota > 0 && next > m.quota {
		return ErrQuotaExceeded
	}

	m.entries[key] = value
	m.used = next
	return nil
}

// Remove deletes key
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.used -= usage(key, old)
		delete(m.entries, key)
	}
	return nil
}
