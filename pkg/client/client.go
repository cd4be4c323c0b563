// Package client is a typed client for the Mau HTTP API. Every call takes the caller's
// token explicitly and fails with *Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jason-s-yu/mau/pkg/types"
)

// DefaultTimeout bounds calls whose context carries no deadline.
const DefaultTimeout = 10 * time.Second

// Client talks to one Mau server.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout applied when the context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromEnv reads the server address from MAU_API_URL.
func NewFromEnv(opts ...Option) *Client {
	base := os.Getenv("MAU_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return New(base, opts...)
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends one JSON request. out may be nil when the response body is not needed.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: Validation, Detail: "cannot encode request", Err: err}
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return &Error{Kind: ServerError, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: ServerError, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: ServerError, Status: resp.StatusCode, Detail: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: ServerError, Status: resp.StatusCode, Detail: "malformed response body", Err: err}
	}
	return nil
}

// responseError decodes {"detail": ...}. Bodies in any other shape are passed through raw.
func responseError(status int, body []byte) *Error {
	detail := strings.TrimSpace(string(body))
	var payload types.ErrorResponse
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		detail = payload.Detail
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &Error{Kind: kindFor(status), Status: status, Detail: detail}
}

func pathID(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
