package openai

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

	"github.com/tidwall/gjson"

	"miro-gateway/internal/domain"
	"miro-gateway/internal/upstream"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 30 * time.Second

	fallbackMessage = "Failed to generate features"
	maxResponseSize = 4 << 20
	maxErrorSize    = 64 << 10
)

// Client is a focused OpenAI-compatible client for chat completions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client authenticating with token. An empty token is
// accepted; the completion service rejects it on first use.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolvedHTTPClient returns the configured HTTP client, or a default with a
// 30s timeout if none was set.
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/chat/completions"
}

// CreateChatCompletion posts in and returns the first element of the
// response's choices array verbatim. Non-2xx statuses come back as
// *upstream.Error.
func (c *Client) CreateChatCompletion(ctx context.Context, in domain.CompletionRequest) (json.RawMessage, error) {
	if in.Model == "" {
		return nil, errors.New("openai: model must not be empty")
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	upstream.Apply(req, upstream.BearerHeader(c.token))
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.doJSONRequest(req)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(raw) {
		return nil, errors.New("openai: decode response: invalid JSON")
	}
	choices := gjson.GetBytes(raw, "choices")
	if !choices.IsArray() {
		return nil, errors.New("openai: decode response: missing choices")
	}
	first := choices.Get("0")
	if !first.Exists() {
		return nil, errors.New("openai: no choices in response")
	}
	return json.RawMessage(first.Raw), nil
}

func (c *Client) doJSONRequest(req *http.Request) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorSize))
		return nil, upstream.NewError(res.StatusCode, buf, fallbackMessage, "error.message", "message")
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("openai: read response body: %w", err)
	}
	return buf, nil
}
