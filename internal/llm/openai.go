package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	log "github.com/sirupsen/logrus"
)

// OpenAIClient calls an OpenAI-compatible chat completions endpoint (Groq by default)
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client for baseURL. An empty apiKey means unauthenticated access.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration, maxRetries int) *OpenAIClient {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	options := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(maxRetries),
	}
	if apiKey == "" {
		log.Info("no API key configured, will try unauthenticated access")
	} else {
		options = append(options, option.WithAPIKey(apiKey))
	}

	client := openai.NewClient(options...)
	return &OpenAIClient{client: &client, model: model}
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.model
}

// Generate sends the ordered prompt and returns the first choice
func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		case RoleUser:
			params = append(params, openai.UserMessage(m.Content))
		default:
			return "", fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: params,
		Model:    c.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
