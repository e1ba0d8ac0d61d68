// Package history persists the interview conversation.
package history

import (
	"encoding/json"
	"log/slog"
	"sync"

	"interview-coach/internal/storage"
)

// Repository loads and saves the whole message list.
// Implementations never fail loudly: problems are logged and swallowed.
type Repository interface {
	Load() []Message
	Save(messages []Message)
	Clear()
}

// KVRepository stores the conversation as a JSON array under one key
type KVRepository struct {
	kv     storage.KV
	key    string
	logger *slog.Logger
}

// NewKVRepository creates a repository over kv using key
func NewKVRepository(kv storage.KV, key string, logger *slog.Logger) *KVRepository {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KVRepository{kv: kv, key: key, logger: logger}
}

// Load reads the stored messages. Absent, unreadable or malformed data
// yields an empty list.
func (r *KVRepository) Load() []Message {
	raw, ok, err := r.kv.Get(r.key)
	if err != nil {
		r.logger.Warn("failed to read conversation", "key", r.key, "error", err)
		return []Message{}
	}
	if !ok || raw == "" {
		return []Message{}
	}

	var messages []Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		r.logger.Warn("stored conversation is malformed, ignoring", "key", r.key, "error", err)
		return []Message{}
	}
	if messages == nil {
		return []Message{}
	}
	return messages
}

// Save writes the full list
func (r *KVRepository) Save(messages []Message) {
	if messages == nil {
		messages = []Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		r.logger.Error("failed to encode conversation", "key", r.key, "error", err)
		return
	}
	if err := r.kv.Set(r.key, string(data)); err != nil {
		r.logger.Error("failed to save conversation", "key", r.key, "messages", len(messages), "error", err)
	}
}

// Clear removes the stored entry
func (r *KVRepository) Clear() {
	if err := r.kv.Remove(r.key); err != nil {
		r.logger.Error("failed to clear conversation", "key", r.key, "error", err)
	}
}

// MemoryRepository keeps the conversation in memory. Useful as a test fake.
type MemoryRepository struct {
	mu       sync.Mutex
	messages []Message
	saves    int
}

// NewMemoryRepository creates a repository preloaded with messages
func NewMemoryRepository(messages ...Message) *MemoryRepository {
	return &MemoryRepository{messages: append([]Message(nil), messages...)}
}

// Load returns a copy of the stored messages
func (r *MemoryRepository) Load() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message{}, r.messages...)
}

// Save replaces the stored messages
func (r *MemoryRepository) Save(messages []Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append([]Message(nil), messages...)
	r.saves++
}

// Clear drops the stored messages
func (r *MemoryRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// Saves reports how many times Save was called
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}
