// Package llm defines the language-model contract used by the assistant.
package llm

import (
	"context"
	"errors"
)

// Role of a prompt message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the ordered prompt
type Message struct {
	Role    Role
	Content string
}

// Generator produces a completion for an ordered prompt. Calls are stateless.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// ErrNoChoices is returned when the model answered without any content
var ErrNoChoices = errors.New("model didn't return any content choices")
