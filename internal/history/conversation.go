package history

import "sync"

// Conversation is the in-memory message list bound to a repository.
// Every mutation is written through immediately.
type Conversation struct {
	mu       sync.RWMutex
	repo     Repository
	messages []Message
}

// OpenConversation loads the conversation from repo
func OpenConversation(repo Repository) *Conversation {
	return &Conversation{
		repo:     repo,
		messages: repo.Load(),
	}
}

// Append adds a message and persists the list. A failed write keeps the
// in-memory append.
func (c *Conversation) Append(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	c.repo.Save(c.messages)
}

// Clear removes every message from memory and storage
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = []Message{}
	c.repo.Clear()
}

// Reload replaces the in-memory list with what storage holds now
func (c *Conversation) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.repo.Load()
}

// Messages returns a snapshot of the conversation
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Message{}, c.messages...)
}

// Len returns the number of messages
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the newest message, if any
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}
