package conversation

import (
	"time"
)

// Role of a message author
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is one logical chat with its own message log and title
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title,omitempty"`
	Visible   bool      `json:"visible"`
	Messages  []Message `json:"messages"`
}

// Message is an immutable entry of a conversation log
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	References []Reference `json:"references,omitempty"` // assistant messages only
}

// Reference is a cited passage backing an assistant answer.
// Page and Source are nil when the retriever did not report them.
type Reference struct {
	Page    *int    `json:"page,omitempty"`
	Source  *string `json:"source,omitempty"`
	Content string  `json:"content"`
}

// Summary is the listing view of a visible conversation
type Summary struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	MessageCount int
}

// DateGroup holds the visible conversations created on one calendar day
type DateGroup struct {
	Date          time.Time // midnight of the day, in the creation time's location
	Conversations []Summary
}

// Label formats the group date for display
func (g DateGroup) Label() string {
	return g.Date.Format("2006-01-02")
}
