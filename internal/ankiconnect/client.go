package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// APIVersion is the AnkiConnect protocol version spoken by this client.
const APIVersion = 6

// DefaultURL is where AnkiConnect listens by default.
const DefaultURL = "http://localhost:8765"

// ErrUnavailable is returned when AnkiConnect cannot be reached, either
// because the request failed or because the breaker is open.
var ErrUnavailable = errors.New("AnkiConnect unavailable")

// APIError is an error reported by AnkiConnect itself.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AnkiConnect %s: %s", e.Action, e.Message)
}

// Options configures the client
type Options struct {
	URL              string        // AnkiConnect endpoint
	Timeout          time.Duration // Per-request timeout
	FailureThreshold uint32        // Consecutive failures before the breaker opens
	Cooldown         time.Duration // How long the breaker stays open
}

// DefaultOptions returns the defaults used by the desktop tool.
func DefaultOptions() *Options {
	return &Options{
		URL:              DefaultURL,
		Timeout:          5 * time.Second,
		FailureThreshold: 3,
		Cooldown:         10 * time.Second,
	}
}

// Client talks to a running AnkiConnect instance.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client. Zero fields in opts fall back to defaults.
func NewClient(opts *Options) *Client {
	defaults := DefaultOptions()
	if opts == nil {
		opts = defaults
	}
	if opts.URL == "" {
		opts.URL = defaults.URL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = defaults.FailureThreshold
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = defaults.Cooldown
	}

	threshold := opts.FailureThreshold
	return &Client{
		url:        opts.URL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ankiconnect",
			Timeout: opts.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
	}
}

// URL returns the endpoint the client talks to.
func (c *Client) URL() string {
	return c.url
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Invoke performs action with params and decodes the result into out,
// which may be nil.
func (c *Client) Invoke(ctx context.Context, action string, params any, out any) error {
	if params == nil {
		params = struct{}{}
	}

	body, err := json.Marshal(request{Action: action, Version: APIVersion, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	// Only transport failures count against the breaker; an error reported
	// by AnkiConnect means Anki is up.
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	resp := raw.(*response)
	if resp.Error != nil && *resp.Error != "" {
		return &APIError{Action: action, Message: *resp.Error}
	}

	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", action, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, httpResp.StatusCode)
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}
	return &resp, nil
}
