// Package evalclient is a thin client for a remote code-eval sandbox API.
//
// The sandbox runs an untrusted snippet of Python code in an ephemeral
// container and returns whatever was printed to stdout/stderr as plain text.
// This package only builds the request and hands back the response body; it
// does not execute anything locally and does not interpret the result.
package evalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// Request is a single execution payload.
//
// Optional fields carry omitempty so the serialized body only contains keys
// the caller actually set; the sandbox distinguishes "absent" from
// "false"/"null" for the flag fields.
type Request struct {
	Code            string            `json:"code"`
	Files           map[string]string `json:"files,omitempty"`
	Strace          bool              `json:"strace,omitempty"`
	InterpreterMode bool              `json:"interpreter_mode,omitempty"`
}

// Client issues execution requests to one sandbox deployment.
// The endpoint URL and bearer token are fixed at construction; a Client is
// safe for concurrent use.
type Client struct {
	url    string
	token  string
	httpc  *http.Client
	logger *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Timeout policy belongs
// here or in the caller's context; Exec itself never enforces one.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithLogger sets a debug logger that receives the outgoing code and the raw
// response text. By default nothing is logged.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for the sandbox at url, authenticating with token.
func New(url, token string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		token:  token,
		httpc:  http.DefaultClient,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the configured endpoint URL.
func (c *Client) URL() string {
	return c.url
}

// Exec posts req to the sandbox and returns the response body as a string.
//
// The body comes back verbatim for any HTTP status: a traceback from the
// user's code and a successful print land in the same place, and telling
// them apart is the caller's job. Only transport-level failures return an
// error.
func (c *Client) Exec(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("posting to sandbox: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	c.logger.Printf("code to evaluate %q, response %q", req.Code, string(text))
	return string(text), nil
}
