package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"

	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL + "/v1"
}

func TestOpenAIExplainer(t *testing.T) {
	var gotReq map[string]interface{}
	baseURL := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  ピロリ菌感染は胃癌の危険因子である。 "},"finish_reason":"stop"}]}`))
	})

	e, err := NewOpenAIExplainer("test-key", "", baseURL)
	if err != nil {
		t.Fatalf("NewOpenAIExplainer() error = %v", err)
	}

	got, err := e.Explain(context.Background(), qbparse.ParsedQuestion{Question: "胃癌", Correct: "A"})
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if got != "ピロリ菌感染は胃癌の危険因子である。" {
		t.Errorf("Explain() = %q", got)
	}

	if gotReq["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v, want gpt-4o-mini", gotReq["model"])
	}
	messages, _ := gotReq["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
}

func TestOpenAIExplainerNoChoices(t *testing.T) {
	baseURL := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	})

	e, err := NewOpenAIExplainer("test-key", "gpt-4o", baseURL)
	if err != nil {
		t.Fatalf("NewOpenAIExplainer() error = %v", err)
	}
	if _, err := e.Explain(context.Background(), qbparse.ParsedQuestion{Question: "q"}); err == nil {
		t.Error("Explain() expected error for empty choices")
	}
}

func TestOpenAIExplainerAPIError(t *testing.T) {
	baseURL := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	e, _ := NewOpenAIExplainer("test-key", "", baseURL)
	_, err := e.Explain(context.Background(), qbparse.ParsedQuestion{Question: "q"})
	if err == nil || !strings.Contains(err.Error(), "OpenAI API error") {
		t.Errorf("Explain() error = %v, want OpenAI API error", err)
	}
}

func TestLister(t *testing.T) {
	baseURL := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[
			{"id":"tts-1","object":"model"},
			{"id":"gpt-4o-mini","object":"model"},
			{"id":"dall-e-3","object":"model"},
			{"id":"gpt-4o","object":"model"},
			{"id":"text-embedding-3-small","object":"model"},
			{"id":"gpt-4o-realtime-preview","object":"model"}
		]}`))
	})

	lister := NewLister("test-key", baseURL)

	got, err := lister.ChatModels(context.Background())
	if err != nil {
		t.Fatalf("ChatModels() error = %v", err)
	}
	want := []string{"gpt-4o", "gpt-4o-mini"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ChatModels() = %v, want %v", got, want)
	}

	var buf bytes.Buffer
	if err := lister.PrintModels(context.Background(), &buf); err != nil {
		t.Fatalf("PrintModels() error = %v", err)
	}
	if !strings.Contains(buf.String(), "gpt-4o-mini (default)") {
		t.Errorf("PrintModels() output missing default marker:\n%s", buf.String())
	}
}

func TestListerNoAPIKey(t *testing.T) {
	lister := NewLister("", "")

	_, err := lister.ChatModels(context.Background())
	if err != ErrNoOpenAIKey {
		t.Errorf("ChatModels() error = %v, want ErrNoOpenAIKey", err)
	}
}

func TestOpenAIExplainer_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	e, err := NewOpenAIExplainer(apiKey, "", "")
	if err != nil {
		t.Fatalf("NewOpenAIExplainer() error = %v", err)
	}

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
