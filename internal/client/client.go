// Package client is a typed HTTP client for the /api/v1 catalog resources.
// Calls are never retried; every failure reaches the caller.
package client

import (
	"bytes"
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
)

// Client talks to one shopbase server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the success body of every API call.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// request describes one API call.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	ifMatch string
}

// do sends req and decodes the envelope's data into out (when non-nil). It
// returns the response ETag so callers can chain conditional writes.
func (c *Client) do(ctx context.Context, req request, out any) (string, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/" + strings.TrimLeft(req.path, "/")
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return "", fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.ifMatch != "" {
		httpReq.Header.Set("If-Match", `"`+req.ifMatch+`"`)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", req.method, u.Path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "api call",
		slog.String("method", req.method),
		slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", newError(resp.StatusCode, raw)
	}

	if out != nil {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", fmt.Errorf("decode response envelope: %w", err)
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return "", errors.New("response envelope has no data")
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode response data: %w", err)
		}
	}

	return strings.Trim(strings.TrimPrefix(resp.Header.Get("ETag"), "W/"), `"`), nil
}
