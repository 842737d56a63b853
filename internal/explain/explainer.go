package explain

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

// Provider names accepted by New
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Explainer drafts an explanation for a parsed question
type Explainer interface {
	Explain(ctx context.Context, q qbparse.ParsedQuestion) (string, error)
}

// Options configures the explanation provider
type Options struct {
	Provider  string // "openai" or "gemini"
	OpenAIKey string
	GeminiKey string
	Model     string // Provider specific model, empty for the default
	BaseURL   string // API endpoint override, empty for the public API
}

// DefaultOptions returns sensible defaults
func DefaultOptions() *Options {
	return &Options{
		Provider: ProviderOpenAI,
	}
}

// New creates the explainer for the configured provider
func New(opts *Options) (Explainer, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch strings.ToLower(opts.Provider) {
	case ProviderOpenAI, "":
		e, err := NewOpenAIExplainer(opts.OpenAIKey, opts.Model, opts.BaseURL)
		if err != nil {
			return nil, err
		}
		return e, nil
	case ProviderGemini:
		return NewGeminiExplainer(opts.GeminiKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown explanation provider: %s", opts.Provider)
	}
}

const systemPrompt = "あなたは医師国家試験の指導医です。問題と正解を読み、" +
	"正解の根拠と主要な誤答選択肢が誤りである理由を、日本語で300字程度の簡潔な解説にまとめてください。" +
	"前置きや見出しは不要です。"

// BuildPrompt renders the question for the model
func BuildPrompt(q qbparse.ParsedQuestion) string {
	var b strings.Builder
	b.WriteString("問題:\n")
	b.WriteString(q.Question)
	b.WriteString("\n")

	if len(q.Choices) > 0 {
		b.WriteString("\n選択肢:\n")
		for _, choice := range q.Choices {
			b.WriteString(choice)
			b.WriteString("\n")
		}
	}

	if q.Correct != "" {
		fmt.Fprintf(&b, "\n正解: %s\n", q.Correct)
	} else {
		b.WriteString("\n正解: 不明（最も妥当な選択肢を示してください）\n")
	}

	return b.String()
}

// Cache stores explanations in memory for batch operations, keyed by the
// question stem
type Cache struct {
	explanations map[string]string
}

// NewCache creates a new explanation cache
func NewCache() *Cache {
	return &Cache{
		explanations: make(map[string]string),
	}
}

// Add adds an explanation to the cache
func (c *Cache) Add(question, explanation string) {
	c.explanations[question] = explanation
}

// Get retrieves an explanation from the cache
func (c *Cache) Get(question string) (string, bool) {
	explanation, ok := c.explanations[question]
	return explanation, ok
}

// Len returns the number of cached explanations
func (c *Cache) Len() int {
	return len(c.explanations)
}

// CachedExplainer answers repeated questions from a Cache
type CachedExplainer struct {
	next  Explainer
	cache *Cache
}

// NewCachedExplainer wraps next with an in-memory cache
func NewCachedExplainer(next Explainer) *CachedExplainer {
	return &CachedExplainer{next: next, cache: NewCache()}
}

// Explain returns the cached explanation or asks the wrapped explainer
func (c *CachedExplainer) Explain(ctx context.Context, q qbparse.ParsedQuestion) (string, error) {
	if explanation, ok := c.cache.Get(q.Question); ok {
		return explanation, nil
	}
	explanation, err := c.next.Explain(ctx, q)
	if err != nil {
		return "", err
	}
	c.cache.Add(q.Question, explanation)
	return explanation, nil
}
