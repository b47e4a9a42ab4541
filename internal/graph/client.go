package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Default request budget. Graph throttles per app and tenant well above this.
const (
	DefaultRate  = rate.Limit(8)
	DefaultBurst = 4
)

// Client is a Graph API client scoped to the signed-in user's drive and mailbox.
type Client struct {
	baseURL    string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	tokens     oauth2.TokenSource
	limit      rate.Limit
	burst      int
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("graph: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{limit: DefaultRate, burst: DefaultBurst}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		tokens:     cfg.tokens,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(cfg.limit, cfg.burst),
		logger:     logger,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		cfg.timeout = d
		return nil
	}
}

// WithTokenSource authenticates every request with a bearer token from ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(cfg *clientConfig) error {
		cfg.tokens = ts
		return nil
	}
}

// WithRateLimit bounds outgoing requests to r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(cfg *clientConfig) error {
		if r <= 0 || burst <= 0 {
			return fmt.Errorf("graph: rate limit must be positive, got %v/%d", r, burst)
		}
		cfg.limit = rate.Limit(r)
		cfg.burst = burst
		return nil
	}
}

// doJSON executes an HTTP request and decodes the JSON response into dst.
// If the response has an error status, it returns an *APIError.
func (c *Client) doJSON(ctx context.Context, method, url, operation string, body any, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", operation, err)
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", operation, err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("%s: token: %w", operation, err)
		}
		tok.SetAuthHeader(req)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "API request", "operation", operation, "method", method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "API response", "operation", operation, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		var errRS errorRS
		if json.Unmarshal(respBody, &errRS) == nil && errRS.Error.Message != "" {
			return newAPIError(operation, resp.StatusCode, errRS.Error.Code, errRS.Error.Message)
		}
		msg := string(respBody)
		if msg == "" {
			msg = resp.Status
		}
		return newAPIError(operation, resp.StatusCode, "", msg)
	}

	if dst != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("%s: decode response: %w", operation, err)
		}
	}
	return nil
}
