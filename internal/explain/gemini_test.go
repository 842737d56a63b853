package explain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

func TestGeminiExplainerDefaults(t *testing.T) {
	e := NewGeminiExplainer("key", "", "")
	if e.model != DefaultGeminiModel {
		t.Errorf("model = %q, want %q", e.model, DefaultGeminiModel)
	}
}

func TestGeminiExplainerNoAPIKey(t *testing.T) {
	e := NewGeminiExplainer("", "", "")
	_, err := e.Explain(context.Background(), qbparse.ParsedQuestion{Question: "q"})
	if err == nil || !strings.Contains(err.Error(), "Gemini API key not found") {
		t.Errorf("Explain() error = %v, want missing key error", err)
	}
}

func TestGeminiExplainer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"正解はAである。"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	e := NewGeminiExplainer("test-key", "", server.URL)
	got, err := e.Explain(context.Background(), qbparse.ParsedQuestion{Question: "問題", Correct: "A"})
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if got != "正解はAである。" {
		t.Errorf("Explain() = %q", got)
	}
}

func TestGeminiExplainer_Integration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GEMINI_API_KEY not set")
	}

	e := NewGeminiExplainer(apiKey, "", "")
	got, err := e.Explain(context.Background(), qbparse.ParsedQuestion{
		Question: "胃癌の危険因子はどれか。",
		Choices:  []string{"a ピロリ菌感染", "b 運動"},
		Correct:  "A",
	})
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	t.Logf("Explanation: %s", got)
}
