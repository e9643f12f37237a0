// Package apiclient is the shared JSON-over-HTTP client used by the mood
// changer data sources.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "mood-companion/1.0 (github.com/justestif/go-mood-companion)"

// Sentinel errors.
var (
	// ErrRateLimited is returned when the upstream still rate limits after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnauthorized is returned on 401/403 responses.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnexpectedStatus is returned for any other non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Client performs GET requests and decodes JSON bodies.
type Client struct {
	httpClient *http.Client
	userAgent  string
	delays     []time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent overrides the User-Agent header. Nominatim and api.weather.gov
// reject requests without one.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRetryDelays sets the waits between rate-limited attempts. An empty
// slice disables retries.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(c *Client) { c.delays = delays }
}

// New creates a Client with a 10s timeout and 1s/2s/4s rate limit backoff.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  userAgent,
		delays:     []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches reqURL and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, reqURL string, header http.Header, out any) error {
	body, err := c.doRequest(ctx, reqURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// doRequest performs an HTTP GET request with retry on rate limit.
func (c *Client) doRequest(ctx context.Context, reqURL string, header http.Header) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= len(c.delays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL, header)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

func (c *Client) doSingleRequest(ctx context.Context, reqURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, req.URL.Host)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, req.URL.Host)
	}

	return body, nil
}
