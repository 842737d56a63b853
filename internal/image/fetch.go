package image

import (
	"bytes"
	"context"
	"fmt"
	stdimage "image"
	"io"
	"net/http"
	"strings"
	"time"
)

// FetchOptions configures remote image retrieval
type FetchOptions struct {
	MaxSizeBytes int64         // Maximum image size (0 = no limit)
	Timeout      time.Duration // Request timeout
}

// DefaultFetchOptions returns sensible defaults for remote images
func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		MaxSizeBytes: 5 * 1024 * 1024, // 5MB
		Timeout:      30 * time.Second,
	}
}

// IsURL reports whether src names a remote image rather than a file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Open loads an image from a local path, an http(s) URL or, for
// ClipboardSource, the system clipboard.
func Open(ctx context.Context, src string, opts *FetchOptions) (stdimage.Image, error) {
	if src == ClipboardSource {
		return FromClipboard()
	}
	if IsURL(src) {
		return Fetch(ctx, src, opts)
	}
	return Load(src)
}

// Fetch downloads and decodes an image from url.
func Fetch(ctx context.Context, url string, opts *FetchOptions) (stdimage.Image, error) {
	if opts == nil {
		opts = DefaultFetchOptions()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if opts.MaxSizeBytes > 0 {
		// Read one byte past the limit so oversized images can be told apart
		data, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxSizeBytes+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		if int64(len(data)) > opts.MaxSizeBytes {
			return nil, fmt.Errorf("image exceeds maximum size of %d bytes", opts.MaxSizeBytes)
		}
		body = bytes.NewReader(data)
	}

	return Decode(body)
}
