package miro

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"miro-gateway/internal/upstream"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
}

func newBoardServer(t *testing.T, status int, body string, seen *recordedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = recordedRequest{method: r.Method, path: r.URL.EscapedPath(), auth: r.Header.Get("Authorization")}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, logger *slog.Logger) *Client {
	t.Helper()
	opts := []Option{
		WithBaseURL(srv.URL + "/v2/"),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	c, err := NewClient("board-token", opts...)
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	require.Equal(t, "https://api.miro.com/v2", c.baseURL)
	require.Equal(t, 30*time.Second, c.httpClient.Timeout)
	require.NotNil(t, c.logger)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("t", WithBaseURL("not a url"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid base URL")
}

func TestNewClient_NilOptionsFallBack(t *testing.T) {
	c, err := NewClient("t", WithHTTPClient(nil), WithLogger(nil))
	require.NoError(t, err)
	require.NotNil(t, c.httpClient)
	require.NotNil(t, c.logger)
}

// ---------------------------------------------------------------------------
// Fatal operations
// ---------------------------------------------------------------------------

func TestFetchFrames_PassThrough(t *testing.T) {
	body := `{"data":[{"id":"3458764","type":"frame","data":{"title":"Epics"}}],"total":1,"size":1}`
	var seen recordedRequest
	srv := newBoardServer(t, http.StatusOK, body, &seen)
	c := newTestClient(t, srv, nil)

	raw, err := c.FetchFrames(context.Background(), "uXjVO123=")
	require.NoError(t, err)
	require.JSONEq(t, body, string(raw))
	require.Equal(t, http.MethodGet, seen.method)
	require.Equal(t, "/v2/boards/uXjVO123=/frames", seen.path)
	require.Equal(t, "Bearer board-token", seen.auth)
}

func TestFetchCards_Path(t *testing.T) {
	var seen recordedRequest
	srv := newBoardServer(t, http.StatusOK, `{"data":[]}`, &seen)
	c := newTestClient(t, srv, nil)

	_, err := c.FetchCards(context.Background(), "b1", "f/1")
	require.NoError(t, err)
	require.Equal(t, "/v2/boards/b1/frames/f%2F1/cards", seen.path)
}

func TestFetchFrame_Path(t *testing.T) {
	var seen recordedRequest
	srv := newBoardServer(t, http.StatusOK, `{"id":"f1","type":"frame"}`, &seen)
	c := newTestClient(t, srv, nil)

	raw, err := c.FetchFrame(context.Background(), "b1", "f1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"f1","type":"frame"}`, string(raw))
	require.Equal(t, "/v2/boards/b1/frames/f1", seen.path)
}

func TestFatalOperations_UpstreamErrors(t *testing.T) {
	ops := []struct {
		name     string
		call     func(c *Client) error
		fallback string
	}{
		{name: "frames", fallback: "Failed to fetch Miro frames", call: func(c *Client) error {
			_, err := c.FetchFrames(context.Background(), "b1")
			return err
		}},
		{name: "cards", fallback: "Failed to fetch Miro cards", call: func(c *Client) error {
			_, err := c.FetchCards(context.Background(), "b1", "f1")
			return err
		}},
		{name: "frame", fallback: "Failed to fetch Miro Frame", call: func(c *Client) error {
			_, err := c.FetchFrame(context.Background(), "b1", "f1")
			return err
		}},
	}
	responses := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "with message", status: http.StatusNotFound, body: `{"message":"board not found"}`, want: "board not found"},
		{name: "without message", status: http.StatusUnauthorized, body: `{"type":"error"}`, want: ""},
		{name: "non json", status: http.StatusBadGateway, body: `upstream down`, want: ""},
		{name: "created is not ok", status: http.StatusCreated, body: `{}`, want: ""},
	}

	for _, op := range ops {
		for _, resp := range responses {
			t.Run(op.name+"/"+resp.name, func(t *testing.T) {
				srv := newBoardServer(t, resp.status, resp.body, nil)
				c := newTestClient(t, srv, nil)

				err := op.call(c)
				require.Error(t, err)
				upErr, ok := upstream.AsError(err)
				require.True(t, ok)
				require.Equal(t, resp.status, upErr.StatusCode)
				want := resp.want
				if want == "" {
					want = op.fallback
				}
				require.Equal(t, want, upErr.Message)
			})
		}
	}
}

func TestFetchFrames_InvalidJSONBody(t *testing.T) {
	srv := newBoardServer(t, http.StatusOK, `not-json`, nil)
	c := newTestClient(t, srv, nil)

	_, err := c.FetchFrames(context.Background(), "b1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
	_, ok := upstream.AsError(err)
	require.False(t, ok)
}

func TestFetchFrames_NetworkError(t *testing.T) {
	c, err := NewClient("t", WithBaseURL("http://127.0.0.1:1"), WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	require.NoError(t, err)

	_, err = c.FetchFrames(context.Background(), "b1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestFetchCards_EmptyIdentifier(t *testing.T) {
	srv := newBoardServer(t, http.StatusOK, `{}`, nil)
	c := newTestClient(t, srv, nil)

	_, err := c.FetchCards(context.Background(), "b1", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "identifier")
}

func TestFetchFrames_BlankIdentifierForwarded(t *testing.T) {
	var seen recordedRequest
	srv := newBoardServer(t, http.StatusBadRequest, `{"message":"bad id"}`, &seen)
	c := newTestClient(t, srv, nil)

	_, err := c.FetchFrames(context.Background(), " ")
	upErr, ok := upstream.AsError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, upErr.StatusCode)
	require.Equal(t, "bad id", upErr.Message)
	require.Equal(t, "/boards/%20/frames", seen.path)
}

// ---------------------------------------------------------------------------
// FetchItem
// ---------------------------------------------------------------------------

func TestFetchItem_HappyPath(t *testing.T) {
	var seen recordedRequest
	srv := newBoardServer(t, http.StatusOK, `{"id":"i1","type":"card"}`, &seen)
	c := newTestClient(t, srv, nil)

	raw := c.FetchItem(context.Background(), "b1", "i1")
	require.JSONEq(t, `{"id":"i1","type":"card"}`, string(raw))
	require.Equal(t, "/v2/boards/b1/items/i1", seen.path)
}

func TestFetchItem_NeverFails(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	srv := newBoardServer(t, http.StatusNotFound, `{"message":"item not found"}`, nil)
	c := newTestClient(t, srv, logger)

	raw := c.FetchItem(context.Background(), "b1", "missing")
	require.Nil(t, raw)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	require.Equal(t, "WARN", entry["level"])
	require.Equal(t, "failed to get item info", entry["msg"])
	require.Equal(t, "item not found", entry["err"])
}

func TestFetchItem_NetworkErrorReturnsNil(t *testing.T) {
	c, err := NewClient("t",
		WithBaseURL("http://127.0.0.1:1"),
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	require.NoError(t, err)
	require.Nil(t, c.FetchItem(context.Background(), "b1", "i1"))
}

// ---------------------------------------------------------------------------
// Summarize
// ---------------------------------------------------------------------------

func TestSummarize(t *testing.T) {
	raw := json.RawMessage(`{"data":[
		{"id":"1","type":"frame","data":{"title":" Epics "}},
		{"id":"2","type":"card","data":{"title":"<p>Login</p>"}},
		{"id":"3","type":"sticky_note","data":{"content":"note"}}
	]}`)
	got := Summarize(raw)
	require.Equal(t, []ItemSummary{
		{ID: "1", Type: "frame", Title: "Epics"},
		{ID: "2", Type: "card", Title: "<p>Login</p>"},
		{ID: "3", Type: "sticky_note", Title: "note"},
	}, got)
}

func TestSummarize_NotAList(t *testing.T) {
	require.Nil(t, Summarize(json.RawMessage(`{"id":"1"}`)))
	require.Nil(t, Summarize(json.RawMessage(`garbage`)))
}
