// Package backend forwards proxy calls to the external HSG245 analysis backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/safetyline/hsg245-stack/common/hsg245"
	"github.com/safetyline/hsg245-stack/common/middleware"
)

// maxBodyBytes bounds what the proxy will buffer from the backend. PDFs are
// the largest responses.
const maxBodyBytes = 64 << 20

// Response is a fully buffered backend response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues exactly one request per call. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. A zero timeout defaults to 60s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health calls GET /api/v1/health.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.Do(ctx, http.MethodGet, hsg245.HealthPath, nil)
}

// Do sends method to path. payload, when non-nil, is JSON-encoded as the body.
// Transport failures are returned as errors; any HTTP status is a Response.
func (c *Client) Do(ctx context.Context, method, path string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.RequestIDHeader, reqID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
