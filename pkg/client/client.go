// Package client is the Go API client for the CDSS server. One method per
// server operation; every failure is a *RequestError and no call is retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrorKind classifies what the caller should tell the user.
type ErrorKind int

const (
	// KindServer means the server answered with a structured error payload.
	KindServer ErrorKind = iota
	// KindUnexpected means the server answered with something that is not a
	// recognizable payload, typically an HTML error page.
	KindUnexpected
	// KindTransport means no response was received at all.
	KindTransport
)

// RequestError is the single error type returned by every client call.
type RequestError struct {
	Kind       ErrorKind
	StatusCode int    // zero for transport failures
	Message    string // server message when Kind is KindServer
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindTransport:
		return "server unreachable: " + e.Message
	case KindUnexpected:
		return fmt.Sprintf("server returned an unexpected response (status %d)", e.StatusCode)
	default:
		return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
	}
}

// Client talks to one CDSS server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, typically after Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// serverError is the error body the server emits for failed requests.
type serverError struct {
	Message json.RawMessage `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Kind: KindUnexpected, Message: err.Error()}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &RequestError{Kind: KindTransport, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &RequestError{Kind: KindTransport, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		var se serverError
		if err := json.Unmarshal(data, &se); err == nil && len(se.Message) > 0 {
			var msg string
			if err := json.Unmarshal(se.Message, &msg); err != nil {
				msg = string(se.Message)
			}
			return &RequestError{Kind: KindServer, StatusCode: resp.StatusCode, Message: msg}
		}
		return &RequestError{Kind: KindUnexpected, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestError{Kind: KindUnexpected, StatusCode: resp.StatusCode}
	}
	return nil
}
