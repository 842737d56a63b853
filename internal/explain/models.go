package explain

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Lister handles listing the OpenAI chat models usable for explanations
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. baseURL may be empty.
func NewLister(apiKey, baseURL string) *Lister {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// ChatModels returns the sorted IDs of the available chat models
func (l *Lister) ChatModels(ctx context.Context) ([]string, error) {
	if l.apiKey == "" {
		return nil, ErrNoOpenAIKey
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var chatModels []string
	for _, model := range models.Models {
		if isChatModel(model.ID) {
			chatModels = append(chatModels, model.ID)
		}
	}
	sort.Strings(chatModels)
	return chatModels, nil
}

// PrintModels writes the chat models to w, default model marked
func (l *Lister) PrintModels(ctx context.Context, w io.Writer) error {
	chatModels, err := l.ChatModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available OpenAI chat models (for explanations):")
	if len(chatModels) == 0 {
		fmt.Fprintln(w, "  No chat models found")
		return nil
	}
	for _, model := range chatModels {
		marker := ""
		if model == openai.GPT4oMini {
			marker = " (default)"
		}
		fmt.Fprintf(w, "  %s%s\n", model, marker)
	}
	fmt.Fprintf(w, "\nGemini: %s (default), set explain.model to choose another\n", DefaultGeminiModel)
	return nil
}

func isChatModel(id string) bool {
	for _, skip := range []string{"tts", "audio", "realtime", "transcribe", "dall-e", "image", "embedding", "search"} {
		if strings.Contains(id, skip) {
			return false
		}
	}
	return strings.HasPrefix(id, "gpt") || strings.HasPrefix(id, "o1") ||
		strings.HasPrefix(id, "o3") || strings.HasPrefix(id, "o4") || strings.Contains(id, "chat")
}
