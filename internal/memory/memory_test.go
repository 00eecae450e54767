package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryOrder(t *testing.T) {
	m := New()
	m.AddExchange("q1", "a1")
	m.AddUserMessage("q2")
	m.AddAssistantMessage("a2")

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, []Turn{
		{Role: User, Content: "q1"},
		{Role: Assistant, Content: "a1"},
		{Role: User, Content: "q2"},
		{Role: Assistant, Content: "a2"},
	}, m.Turns())
}

func TestTurnsIsACopy(t *testing.T) {
	m := New()
	m.AddUserMessage("hello")

	turns := m.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "hello", m.Turns()[0].Content)
}

func TestClear(t *testing.T) {
	m := New()
	m.AddExchange("q", "a")
	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Turns())
}
