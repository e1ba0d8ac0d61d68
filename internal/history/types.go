package history

import "time"

// DefaultKey is the storage key the conversation is persisted under
const DefaultKey = "interview-messages"

// Message represents one turn of the conversation
type Message struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`   // plain text for the user, markdown for the coach
	IsUser    bool   `json:"isUser"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
	IsError   bool   `json:"isError,omitempty"`
}

// Time returns the creation time
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// Author returns the display name of the message author
func (m Message) Author() string {
	if m.IsUser {
		return "You"
	}
	return "AI Coach"
}
