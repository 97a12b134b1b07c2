// Package session implements the SessionService port against the agent
// service's HTTP API.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/apidrift/driftwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionService = (*Client)(nil)

// DefaultRetryDelay is the fixed wait before the single retry.
const DefaultRetryDelay = 5 * time.Second

// Client creates remediation sessions over HTTP. Any failure (transport or
// non-2xx) is retried exactly once after a fixed delay; a second failure is
// terminal for the invocation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retryDelay time.Duration
}

// NewClient creates a session client for the given service endpoint.
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		token:      token,
		retryDelay: DefaultRetryDelay,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and retry
// delay. This constructor is intended for testing.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, retryDelay time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
		retryDelay: retryDelay,
	}
}

type createRequest struct {
	Prompt string `json:"prompt"`
}

type createResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSession dispatches the prompt to the agent service and returns the
// created session's identity.
func (c *Client) CreateSession(ctx context.Context, prompt string) (*driven.Session, error) {
	session, err := c.create(ctx, prompt)
	if err == nil {
		return session, nil
	}

	slog.Warn("session creation failed, retrying once", "error", err)

	select {
	case <-time.After(c.retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	session, retryErr := c.create(ctx, prompt)
	if retryErr != nil {
		return nil, fmt.Errorf("session creation failed after retry: %w", retryErr)
	}

	return session, nil
}

func (c *Client) create(ctx context.Context, prompt string) (*driven.Session, error) {
	payload, err := json.Marshal(createRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting session request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("session service returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	return &driven.Session{ID: out.ID, URL: out.URL}, nil
}
