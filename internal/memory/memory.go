// Package memory keeps the replay log of prior turns for one conversation.
package memory

// Role of a remembered turn
type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
)

// Turn is one remembered message, content only
type Turn struct {
	Role    Role
	Content string
}

// Memory is the rolling log of prior user/assistant turns of a conversation.
// It is not safe for concurrent use; a session has a single writer.
type Memory struct {
	turns []Turn
}

// New creates an empty memory
func New() *Memory {
	return &Memory{}
}

// AddUserMessage records a user turn
func (m *Memory) AddUserMessage(content string) {
	m.turns = append(m.turns, Turn{Role: User, Content: content})
}

// AddAssistantMessage records an assistant turn
func (m *Memory) AddAssistantMessage(content string) {
	m.turns = append(m.turns, Turn{Role: Assistant, Content: content})
}

// AddExchange records a question and its answer
func (m *Memory) AddExchange(question, answer string) {
	m.AddUserMessage(question)
	m.AddAssistantMessage(answer)
}

// Turns returns a copy of the log, oldest first
func (m *Memory) Turns() []Turn {
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of remembered turns
func (m *Memory) Len() int {
	return len(m.turns)
}

// Clear forgets every turn
func (m *Memory) Clear() {
	m.turns = nil
}
