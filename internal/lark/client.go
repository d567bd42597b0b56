// Package lark is a thin client for the Feishu/Lark open API surface used
// when publishing documents: docx blocks, drive file listing, media upload,
// and wiki nodes. The client is stateless; every operation takes explicit
// document and block identifiers.
package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public Feishu open API endpoint.
const DefaultBaseURL = "https://open.feishu.cn/open-apis"

const (
	defaultTableSettleDelay = 500 * time.Millisecond
	defaultCellFillDelay    = 100 * time.Millisecond
)

// TokenSource supplies a bearer access token for each request. Token
// acquisition and refresh live outside this package.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken returns a TokenSource that always yields the given token.
func StaticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

// APIError is a non-zero application-level status code returned by the
// remote service.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lark: api error code=%d msg=%q", e.Code, e.Msg)
}

// Client wraps the vendor REST endpoints behind typed operations.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger

	// Blind delays around table population; overridable in tests.
	tableSettleDelay time.Duration
	cellFillDelay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests, private deployments).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for best-effort failure reporting.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTableDelays overrides the settle delay after table creation and the
// pause between consecutive cell fills.
func WithTableDelays(settle, step time.Duration) Option {
	return func(c *Client) {
		c.tableSettleDelay = settle
		c.cellFillDelay = step
	}
}

// NewClient creates a client that authenticates every call through tokens.
func NewClient(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:          DefaultBaseURL,
		http:             &http.Client{Timeout: 30 * time.Second},
		tokens:           tokens,
		logger:           slog.Default(),
		tableSettleDelay: defaultTableSettleDelay,
		cellFillDelay:    defaultCellFillDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common response wrapper: code 0 means success and data
// carries the payload.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// do performs one authenticated JSON request and unmarshals the data field
// into out (when out is non-nil). A non-zero envelope code is returned as
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("lark: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("lark: build request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("lark: acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("lark: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("lark: %s %s: HTTP %d", method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("lark: decode response: %w", err)
	}
	if env.Code != 0 {
		return &APIError{Code: env.Code, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("lark: decode data: %w", err)
		}
	}
	return nil
}

// sleep blocks for d unless ctx is cancelled first. The remote service
// materializes table structure asynchronously; there is no readiness signal
// to poll, so a fixed pause is the only option.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
