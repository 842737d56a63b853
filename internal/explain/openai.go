package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

// ErrNoOpenAIKey is returned when no OpenAI API key is configured
var ErrNoOpenAIKey = errors.New("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure explain.openai_key in .qb2anki.yaml")

// OpenAIExplainer drafts explanations with the OpenAI chat API
type OpenAIExplainer struct {
	client *openai.Client
	model  string
}

// NewOpenAIExplainer creates a new OpenAI explainer. baseURL may be empty.
func NewOpenAIExplainer(apiKey, model, baseURL string) (*OpenAIExplainer, error) {
	if apiKey == "" {
		return nil, ErrNoOpenAIKey
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIExplainer{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Explain asks the chat model for an explanation of q
func (e *OpenAIExplainer) Explain(ctx context.Context, q qbparse.ParsedQuestion) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(q),
			},
		},
		MaxTokens:   600,
		Temperature: 0.3,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no explanation returned")
	}

	explanation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if explanation == "" {
		return "", fmt.Errorf("no explanation returned")
	}
	return explanation, nil
}
