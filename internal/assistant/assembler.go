// Package assistant assembles prompts for the BGC assistant and drives the
// per-session chat flow.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bgc-assistant/internal/conversation"
	"bgc-assistant/internal/llm"
	"bgc-assistant/internal/locale"
	"bgc-assistant/internal/memory"
	"bgc-assistant/internal/references"
)

const systemRules = `You are a helpful assistant for Basrah Gas Company (BGC). Your task is to answer questions based on the provided context about BGC. Follow these rules strictly:

1. Contextual Answers:
   - Provide accurate and concise answers based on the context provided.
   - Do not explicitly mention the source of information unless asked.

2. Handling Unclear or Unanswerable Questions:
   - If the question is unclear or lacks sufficient context, respond with:
     - In English: "I'm sorry, I couldn't understand your question. Could you please provide more details?"
     - In Arabic: "عذرًا، لم أتمكن من فهم سؤالك. هل يمكنك تقديم المزيد من التفاصيل؟"
   - If the question cannot be answered based on the provided context, respond with:
     - In English: "I'm sorry, I don't have enough information to answer that question."
     - In Arabic: "عذرًا، لا أملك معلومات كافية للإجابة على هذا السؤال."

3. Professional Tone:
   - Maintain a professional and respectful tone in all responses.
   - Avoid making assumptions or providing speculative answers.`

// Response is the outcome of one answered question
type Response struct {
	Answer     string
	References []conversation.Reference
	Latency    time.Duration
}

// Assembler builds the ordered prompt and calls the language model
type Assembler struct {
	model llm.Generator
}

// NewAssembler creates an assembler backed by model
func NewAssembler(model llm.Generator) *Assembler {
	return &Assembler{model: model}
}

// Respond answers question using refs as context and mem as prior turns.
// The exchange is added to mem only when the model call succeeds.
func (a *Assembler) Respond(ctx context.Context, question string, refs []conversation.Reference, mem *memory.Memory, lang locale.Language) (Response, error) {
	if mem == nil {
		return Response{}, fmt.Errorf("respond: conversation memory not loaded")
	}

	prompt := BuildPrompt(question, references.Context(refs), mem.Turns(), lang)

	start := time.Now()
	answer, err := a.model.Generate(ctx, prompt)
	latency := time.Since(start)
	if err != nil {
		return Response{Latency: latency}, fmt.Errorf("language model call failed: %w", err)
	}

	mem.AddExchange(question, answer)
	return Response{Answer: answer, References: refs, Latency: latency}, nil
}

// BuildPrompt orders the prompt as system instruction with context, then the
// remembered turns oldest first, then the new question.
func BuildPrompt(question, contextBlock string, history []memory.Turn, lang locale.Language) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: systemInstruction(question, contextBlock, lang),
	})

	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == memory.Assistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: question})
}

func systemInstruction(question, contextBlock string, lang locale.Language) string {
	var sb strings.Builder
	sb.WriteString(systemRules)
	sb.WriteString("\n\n")

	// The question's script wins over the interface language
	answerLang := locale.Detect(question)
	sb.WriteString(fmt.Sprintf("Respond in %s.", languageName(answerLang)))
	if answerLang != lang {
		sb.WriteString(fmt.Sprintf(" The user interface is set to %s, but answer in the language of the question.", languageName(lang)))
	}

	if contextBlock != "" {
		sb.WriteString("\n\nContext: ")
		sb.WriteString(contextBlock)
	}
	return sb.String()
}

func languageName(lang locale.Language) string {
	if lang == locale.Arabic {
		return "Arabic"
	}
	return "English"
}
