package explain

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

// DefaultGeminiModel is used when no Gemini model is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiExplainer drafts explanations with the Gemini API. The client is
// created per call because genai binds it to a context.
type GeminiExplainer struct {
	apiKey  string
	model   string
	baseURL string
}

// NewGeminiExplainer creates a new Gemini explainer. baseURL may be empty.
func NewGeminiExplainer(apiKey, model, baseURL string) *GeminiExplainer {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiExplainer{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
	}
}

// Explain asks Gemini for an explanation of q
func (e *GeminiExplainer) Explain(ctx context.Context, q qbparse.ParsedQuestion) (string, error) {
	if e.apiKey == "" {
		return "", fmt.Errorf("Gemini API key not found. Set GEMINI_API_KEY environment variable or configure explain.gemini_key in .qb2anki.yaml")
	}

	cfg := &genai.ClientConfig{
		APIKey:  e.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if e.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: e.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   600,
	}

	resp, err := client.Models.GenerateContent(ctx, e.model, genai.Text(BuildPrompt(q)), config)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	explanation := strings.TrimSpace(resp.Text())
	if explanation == "" {
		return "", fmt.Errorf("no explanation returned")
	}
	return explanation, nil
}
