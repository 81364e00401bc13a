// Package api provides an HTTP client for the Mzansi Plates API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/version"
)

const (
	baseDelay   = 500 * time.Millisecond
	maxJitter   = 100 * time.Millisecond
	maxBodySize = 10 << 20
)

// TokenProvider supplies the bearer token for a request. An empty token
// sends the request anonymously.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client is an HTTP client for the Mzansi Plates API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retries    int
	limiter    *rate.Limiter
	tokens     TokenProvider
	hooks      Hooks
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHooks sets the observability hooks.
func WithHooks(h Hooks) Option {
	return func(c *Client) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. with one from
// httptest.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for cfg.BaseURL. tokens may be nil for a
// client that never authenticates.
func NewClient(cfg *config.Config, tokens TokenProvider, opts ...Option) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: config.NormalizeBaseURL(cfg.BaseURL),
		retries: cfg.Retries,
		limiter: rate.NewLimiter(limit, burst),
		tokens:  tokens,
		hooks:   NopHooks{},
		log:     quiet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs a GET request and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		payload = b
	}

	target := c.buildURL(path, query)
	attempts := 1 + c.retries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := c.singleRequest(ctx, method, target, payload, attempt)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var apiErr *output.Error
		if !errors.As(err, &apiErr) || !apiErr.Retryable || attempt == attempts {
			return nil, err
		}

		delay := backoffDelay(attempt)
		c.hooks.OnRetry(ctx, RequestInfo{Method: method, URL: target, Attempt: attempt}, attempt, err)
		c.log.WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).WithError(err).Debug("retrying request")

		select {
		case <-ctx.Done():
			return nil, output.ErrNetwork(ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (c *Client) singleRequest(ctx context.Context, method, target string, payload []byte, attempt int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, output.ErrNetwork(err)
	}

	var token string
	if c.tokens != nil {
		t, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		token = t
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, output.ErrUsage(fmt.Sprintf("invalid request: %v", err))
	}

	info := RequestInfo{ID: uuid.NewString(), Method: method, URL: target, Attempt: attempt}
	req.Header.Set("X-Request-ID", info.ID)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	ctx = c.hooks.OnRequestStart(ctx, info)
	start := time.Now()
	result := RequestResult{}
	defer func() {
		result.Duration = time.Since(start)
		c.hooks.OnRequestEnd(ctx, info, result)
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Err = err
		return nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()
	result.StatusCode = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	result.Bytes = len(data)
	if err != nil {
		result.Err = err
		return nil, output.ErrNetwork(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp.StatusCode, data, resp.Header)
		result.Err = apiErr
		return nil, apiErr
	}
	return data, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// backoffDelay is base * 2^(attempt-1) plus up to maxJitter.
func backoffDelay(attempt int) time.Duration {
	delay := baseDelay * time.Duration(1<<(attempt-1))
	jitter := time.Duration(rand.Int64N(int64(maxJitter))) //nolint:gosec // G404: jitter doesn't need crypto rand
	return delay + jitter
}
