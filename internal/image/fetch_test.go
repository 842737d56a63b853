package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a.png": true,
		"http://example.com/a.png":  true,
		"/tmp/a.png":                false,
		"a.png":                     false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFetch(t *testing.T) {
	data, err := EncodePNG(newTestImage(8, 8))
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ctx := context.Background()

	img, err := Open(ctx, server.URL+"/ok.png", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("width = %d, want 8", img.Bounds().Dx())
	}

	if _, err := Fetch(ctx, server.URL+"/missing.png", nil); err == nil {
		t.Error("Expected error for 404")
	}

	small := &FetchOptions{MaxSizeBytes: 16}
	if _, err := Fetch(ctx, server.URL+"/ok.png", small); err == nil {
		t.Error("Expected error for oversized image")
	}
}
