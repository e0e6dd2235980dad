package oracle

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// #endregion imports

// #region types

// Message is one prior turn of the conversation, sent as context with a
// generation request.
type Message struct {
	Role string `json:"role"` // "child" or "agent"
	Text string `json:"text"`
}

// generateRequest is the wire shape for the /generate endpoint.
type generateRequest struct {
	Messages  []Message `json:"messages"`
	Directive string    `json:"directive"`
}

// judgeRequest is the wire shape for the /judge endpoint.
type judgeRequest struct {
	Prompt string `json:"prompt"`
}

// textResponse is the wire shape both endpoints reply with.
type textResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("oracle: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// #endregion types

// #region client

// Client talks to the text-generation/judgment service over HTTP JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the oracle service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("oracle: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// #endregion client

// #region generate

// Generate asks the oracle for the next tutoring reply given the prior
// transcript and a directive describing this turn's task.
func (c *Client) Generate(ctx context.Context, history []Message, directive string) (string, error) {
	body, err := json.Marshal(generateRequest{Messages: history, Directive: directive})
	if err != nil {
		return "", fmt.Errorf("oracle: marshal generate request: %w", err)
	}
	raw, err := c.post(ctx, c.baseURL+"/generate", body)
	if err != nil {
		return "", err
	}

	var payload textResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("oracle: decode generate response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("oracle: generate: %s", payload.Error)
	}
	if strings.TrimSpace(payload.Text) == "" {
		return "", errors.New("oracle: generate returned no text")
	}
	return payload.Text, nil
}

// #endregion generate

// #region judge

// Judge sends a single-shot classification prompt and returns the raw
// text. Callers must parse the result defensively.
func (c *Client) Judge(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(judgeRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("oracle: marshal judge request: %w", err)
	}
	raw, err := c.post(ctx, c.baseURL+"/judge", body)
	if err != nil {
		return "", err
	}

	var payload textResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("oracle: decode judge response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("oracle: judge: %s", payload.Error)
	}
	return payload.Text, nil
}

// #endregion judge

// #region http

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("oracle: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("oracle: read response body: %w", err)
	}
	return buf, nil
}

// #endregion http
