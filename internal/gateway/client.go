// Package gateway implements the typed HTTP client for the remote data-table
// gateway service. The gateway owns all table and record storage; this client
// only forwards requests, attaches the API key, and reports non-2xx responses
// as *Error. No retries, no caching: failures propagate to the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const apiKeyHeader = "X-API-Key"

// Error carries the HTTP status and response body of a failed gateway call.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client issues requests against the gateway. Safe for concurrent use; all
// invocations share one connection pool.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient constructs a Client with the fixed per-call timeout applied to
// every request.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "gateway").Logger(),
	}
}

// do performs one request and decodes the JSON response into out when out is
// non-nil. Non-2xx responses become *Error.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode body for %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("gateway: build request %s %s: %w", method, path, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: read response for %s %s: %w", method, path, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("gateway call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("gateway: decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// Get performs a GET and returns the decoded JSON object.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, path, params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetInto performs a GET and decodes the response into out.
func (c *Client) GetInto(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// Post performs a POST with a JSON body and returns the decoded response.
func (c *Client) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch performs a PATCH with a JSON body and returns the decoded response.
func (c *Client) Patch(ctx context.Context, path string, body any) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodPatch, path, nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete performs a DELETE and returns the decoded confirmation.
func (c *Client) Delete(ctx context.Context, path string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckHealth probes the gateway liveness endpoint. Used at startup only.
func (c *Client) CheckHealth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
