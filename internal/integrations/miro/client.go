// Package miro is the gateway to the Miro REST API (v2). Frames, cards and
// single-frame lookups fail with *upstream.Error on any non-200 status; item
// lookups are advisory and never fail.
package miro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"miro-gateway/internal/upstream"
)

const (
	defaultBaseURL = "https://api.miro.com/v2"
	defaultTimeout = 30 * time.Second

	maxResponseSize = 8 << 20
	maxErrorSize    = 64 << 10
)

// Fallback messages used when the board service does not explain a failure.
const (
	FallbackFrames = "Failed to fetch Miro frames"
	FallbackCards  = "Failed to fetch Miro cards"
	FallbackFrame  = "Failed to fetch Miro Frame"
)

// Client wraps the board endpoints used by the gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a board client. The token is not checked here; a missing
// token shows up as a 401 from the board service.
func NewClient(token string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		token:      token,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("miro: invalid base URL %q", c.baseURL)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// FetchFrames returns the frame list of a board as sent by Miro.
func (c *Client) FetchFrames(ctx context.Context, boardID string) (json.RawMessage, error) {
	return c.get(ctx, FallbackFrames, "boards", boardID, "frames")
}

// FetchCards returns the cards inside a frame.
func (c *Client) FetchCards(ctx context.Context, boardID, frameID string) (json.RawMessage, error) {
	return c.get(ctx, FallbackCards, "boards", boardID, "frames", frameID, "cards")
}

// FetchFrame returns a single frame.
func (c *Client) FetchFrame(ctx context.Context, boardID, frameID string) (json.RawMessage, error) {
	return c.get(ctx, FallbackFrame, "boards", boardID, "frames", frameID)
}

// FetchItem returns a board item, or nil if it could not be fetched for any
// reason. The failure is logged, never returned.
func (c *Client) FetchItem(ctx context.Context, boardID, itemID string) json.RawMessage {
	raw, err := c.get(ctx, "Failed to get item info", "boards", boardID, "items", itemID)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to get item info",
			"board_id", boardID,
			"item_id", itemID,
			"err", err,
		)
		return nil
	}
	return raw
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *Client) get(ctx context.Context, fallback string, segments ...string) (json.RawMessage, error) {
	for _, s := range segments {
		if s == "" {
			return nil, errors.New("miro: identifier must not be empty")
		}
	}

	endpoint := c.endpoint(segments...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("miro: create request: %w", err)
	}
	upstream.Apply(req, upstream.BearerHeader(c.token))
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("miro: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorSize))
		upErr := upstream.NewError(res.StatusCode, buf, fallback)
		c.logger.DebugContext(ctx, "miro request rejected",
			"url", endpoint,
			"status", res.StatusCode,
			"body", string(buf),
		)
		return nil, upErr
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("miro: read response body: %w", err)
	}
	if !json.Valid(buf) {
		return nil, errors.New("miro: decode response: invalid JSON")
	}
	return json.RawMessage(buf), nil
}
