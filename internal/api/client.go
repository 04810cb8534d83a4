package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8000"
	maxRetries     = 3
	retryDelay     = time.Second
)

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenStore persists the bearer token between runs
type TokenStore interface {
	Token() string
	SetToken(token string) error
	ClearToken() error
}

// Client handles communication with the TruthLens API
type Client struct {
	baseURL    string
	language   string
	httpClient HTTPClient
	tokens     TokenStore
	limiter    *rate.Limiter
	logger     *zap.Logger
	maxRetries int
	retryDelay time.Duration
}

// ClientOption allows configuring the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTokenStore sets where the bearer token is read from and written to
func WithTokenStore(tokens TokenStore) ClientOption {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithLanguage sets the language sent with analysis requests
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		c.language = lang
	}
}

// WithRateLimit caps outgoing requests. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry overrides the retry count and base delay
func WithRetry(max int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if max < 1 {
			max = 1
		}
		c.maxRetries = max
		c.retryDelay = delay
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new API client. An empty baseURL uses the local default.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	client := &Client{
		baseURL:    baseURL,
		language:   "en",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	for _, opt := range opts {
		opt(client)
	}

	u, err := url.Parse(client.baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", client.baseURL)
	}
	client.baseURL = strings.TrimRight(client.baseURL, "/")

	return client, nil
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether a token is available
func (c *Client) Authenticated() bool {
	return c.tokens != nil && c.tokens.Token() != ""
}

// request describes one API call
type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	auth   bool
}

// do performs an API call with retry logic and decodes the response into out.
// out may be nil for endpoints without a body.
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.doRequest(ctx, r, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && r.auth {
		c.logger.Info("session rejected, clearing token", zap.String("path", r.path))
		if c.tokens != nil {
			if err := c.tokens.ClearToken(); err != nil {
				c.logger.Warn("failed to clear token", zap.Error(err))
			}
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// doRequest sends the request, retrying network errors, 429 and 5xx.
// The body is rebuilt from payload on every attempt.
func (c *Client) doRequest(ctx context.Context, r request, payload []byte) (*http.Response, error) {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.retryDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if r.auth && c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Debug("request failed", zap.String("path", r.path), zap.Int("attempt", attempt+1), zap.Error(err))
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			wait := c.retryDelay * time.Duration(attempt+1)
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				wait = time.Duration(seconds) * time.Second
			}
			c.logger.Debug("rate limited", zap.String("path", r.path), zap.Duration("wait", wait))
			if err := sleepContext(ctx, wait); err != nil {
				return nil, err
			}
			lastErr = fmt.Errorf("rate limited: %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = parseAPIError(resp)
			resp.Body.Close()
			c.logger.Debug("server error", zap.String("path", r.path), zap.Int("status", resp.StatusCode))
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// decodeJSON reads and decodes JSON from response body
func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}
