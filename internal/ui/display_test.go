package ui

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/stretchr/testify/assert"

	"bgc-assistant/internal/assistant"
	"bgc-assistant/internal/conversation"
	"bgc-assistant/internal/locale"
	"bgc-assistant/internal/pdf"
)

func testDisplay() (*Display, *bytes.Buffer) {
	var buf bytes.Buffer
	return newDisplay(&buf, 80, glamour.WithStandardStyle("notty")), &buf
}

func TestPrintTurnWithSources(t *testing.T) {
	d, buf := testDisplay()
	d.PrintTurn(assistant.TurnResult{
		Answer:         "BGC processes <b>associated</b> gas.",
		ShowReferences: true,
		Pages:          []int{3, 5},
		Screenshots:    []pdf.Screenshot{{Page: 3, Path: "/tmp/BGC-page-3.png"}},
	}, 1500*time.Millisecond, locale.English)

	out := buf.String()
	assert.Contains(t, out, "associated")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "Source:")
	assert.Contains(t, out, "Page 3, 5")
	assert.Contains(t, out, "/tmp/BGC-page-3.png")
	assert.Contains(t, out, "1.5s")
}

func TestPrintTurnSuppressedAndFailed(t *testing.T) {
	d, buf := testDisplay()
	d.PrintTurn(assistant.TurnResult{
		Answer: "I'm sorry, I don't have enough information to answer that question.",
		Pages:  []int{3},
	}, time.Second, locale.English)
	assert.NotContains(t, buf.String(), "Source:")

	buf.Reset()
	d.PrintTurn(assistant.TurnResult{Error: locale.Arabic.T(locale.TurnError, errors.New("timeout"))}, 0, locale.Arabic)
	assert.Contains(t, buf.String(), "timeout")
	assert.NotContains(t, buf.String(), "Assistant")
}

func TestSourcesLineArabic(t *testing.T) {
	line := SourcesLine([]int{2, 7}, locale.Arabic)
	assert.Contains(t, line, "المصدر:")
	assert.Contains(t, line, "صفحة رقم 2, 7")
}

func TestPrintHistory(t *testing.T) {
	d, buf := testDisplay()
	d.PrintHistory(nil, "", locale.English)
	assert.Contains(t, buf.String(), "No conversation history yet")

	buf.Reset()
	day := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
	groups := []conversation.DateGroup{
		{Date: day, Conversations: []conversation.Summary{
			{ID: "20241103_101500", Title: "What is BGC?", CreatedAt: day.Add(10*time.Hour + 15*time.Minute), MessageCount: 2},
		}},
		{Date: day.AddDate(0, 0, -1), Conversations: []conversation.Summary{
			{ID: "20241102_090000", Title: "Safety policy", CreatedAt: day.Add(-15 * time.Hour), MessageCount: 4},
		}},
	}
	d.PrintHistory(groups, "20241102_090000", locale.English)

	out := buf.String()
	assert.Contains(t, out, "Chat History")
	assert.Contains(t, out, "2024-11-03")
	assert.Contains(t, out, "  1. What is BGC?")
	assert.Contains(t, out, "*  2. Safety policy")
}

func TestPrintConversation(t *testing.T) {
	d, buf := testDisplay()
	d.PrintConversation(conversation.Conversation{
		Title: "What is BGC?",
		Messages: []conversation.Message{
			{Role: conversation.RoleUser, Content: "What is BGC?"},
			{Role: conversation.RoleAssistant, Content: "A gas company."},
		},
	}, locale.English)

	out := buf.String()
	assert.Contains(t, out, "You:\nWhat is BGC?")
	assert.Contains(t, out, "Assistant:")
	assert.Contains(t, out, "A gas company.")
}

func TestSpinner(t *testing.T) {
	d, buf := testDisplay()
	d.StopSpinner()

	d.ShowSpinner("Loading embeddings")
	d.ShowSpinner("Thinking")
	d.StopSpinner()

	out := buf.String()
	assert.Contains(t, out, "Loading embeddings")
	assert.Contains(t, out, "Thinking")
	assert.Nil(t, d.spinnerDone)
}

func TestStopSpinnerFromManyGoroutines(t *testing.T) {
	d, buf := testDisplay()
	d.ShowSpinner("Thinking")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.StopSpinner()
		}()
	}
	wg.Wait()

	assert.Nil(t, d.spinnerDone)
	assert.Nil(t, d.spinnerFinished)
	assert.Contains(t, buf.String(), "Thinking")
}
