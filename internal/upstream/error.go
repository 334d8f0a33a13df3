// Package upstream holds the pieces shared by every outbound gateway: the
// normalized error type, per-call auth headers and response-message extraction.
package upstream

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Error is a non-success response from an upstream API, reduced to the
// status code and the best message available.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) HTTPStatusCode() int {
	return e.StatusCode
}

// NewError builds an Error from a response body. The first non-empty string
// found at one of fields (gjson paths, "message" when none are given) becomes
// the message; otherwise fallback is used. Bodies that are not JSON fall back too.
func NewError(status int, body []byte, fallback string, fields ...string) *Error {
	if len(fields) == 0 {
		fields = []string{"message"}
	}
	return &Error{StatusCode: status, Message: messageFrom(body, fallback, fields)}
}

func messageFrom(body []byte, fallback string, fields []string) string {
	if !gjson.ValidBytes(body) {
		return fallback
	}
	for _, field := range fields {
		res := gjson.GetBytes(body, field)
		if res.Type != gjson.String {
			continue
		}
		if msg := strings.TrimSpace(res.String()); msg != "" {
			return msg
		}
	}
	return fallback
}

// AsError reports whether err carries an *Error anywhere in its chain.
func AsError(err error) (*Error, bool) {
	var upErr *Error
	if !errors.As(err, &upErr) {
		return nil, false
	}
	return upErr, true
}

// BearerHeader returns a fresh header set carrying token as a bearer credential.
func BearerHeader(token string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	return h
}

// Apply copies h onto req, replacing existing values.
func Apply(req *http.Request, h http.Header) {
	for k, vs := range h {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}
