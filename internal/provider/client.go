package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second
	maxBodyBytes       = 2 << 20
)

// Response is a fully read HTTP response. Non-2xx statuses are returned as
// ordinary responses; callers interpret status codes themselves.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues GET requests with per-service rate limiting and exponential
// backoff on transport failures.
type Client struct {
	http        *http.Client
	limiter     *RateLimiterMap
	logger      *slog.Logger
	userAgent   string
	maxAttempts int
	backoffBase time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client (for OAuth transports and tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithBackoff sets the retry budget and the first backoff delay.
func WithBackoff(maxAttempts int, base time.Duration) ClientOption {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if base > 0 {
			c.backoffBase = base
		}
	}
}

// NewClient creates a Client. limiter may be nil to disable rate limiting.
func NewClient(limiter *RateLimiterMap, userAgent string, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		http:        &http.Client{Timeout: defaultTimeout},
		limiter:     limiter,
		logger:      logger.With(slog.String("component", "http-client")),
		userAgent:   userAgent,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Timeout == 0 {
		c.http.Timeout = defaultTimeout
	}
	return c
}

// Get performs a GET against rawURL with params appended to its query.
// Transport failures are retried with waits of base, 2*base, ... and the last
// one is returned as *ErrUnavailable. Every attempt waits on the service's
// rate limiter first.
func (c *Client) Get(ctx context.Context, service ServiceName, rawURL string, params url.Values, header http.Header) (*Response, error) {
	reqURL := rawURL
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return c.Do(ctx, service, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	}, header)
}

// Do executes the request built by newReq under the same retry and rate
// limiting policy as Get. newReq is called once per attempt so request bodies
// can be rebuilt.
func (c *Client) Do(ctx context.Context, service ServiceName, newReq func(context.Context) (*http.Request, error), header http.Header) (*Response, error) {
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.backoffBase))

	var out *Response
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, service); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		req, err := newReq(ctx)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "application/json")
		}

		c.logger.Debug("requesting",
			slog.String("service", string(service)),
			slog.String("url", req.URL.Redacted()),
			slog.Int("attempt", attempt))

		resp, err := c.http.Do(req) //nolint:gosec // URL built from configured base + encoded params
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("transport failure",
				slog.String("service", string(service)),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return retry.RetryableError(fmt.Errorf("reading body: %w", err))
		}
		out = &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
		return nil
	})
	if err != nil {
		return nil, &ErrUnavailable{Service: service, Cause: err}
	}
	return out, nil
}
