// Package httpds fetches accident files published over HTTP(S), such as the
// DETRAN yearly exports, retrying transient failures with backoff.
package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

// DefaultUserAgent identifies the client to agency web servers.
const DefaultUserAgent = "crashdash/1.0"

// Config configures the download client. Zero values select defaults:
// 30s timeout, 3 retries, 200ms initial backoff capped at 5s.
type Config struct {
	// Timeout bounds a single attempt, body included.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// InsecureSkipVerify disables certificate checks for agency servers with
	// broken TLS setups.
	InsecureSkipVerify bool

	// BaseHeaders are sent with every request and replace the defaults of
	// the same name.
	BaseHeaders http.Header

	// Transport overrides the default transport (tests).
	Transport http.RoundTripper
}

// Client issues GET requests with retry on transport errors, 429 and 5xx.
// A Retry-After header (seconds) on a retryable response replaces the
// computed backoff, capped at MaxBackoff.
type Client struct {
	hc         *http.Client
	maxRetries int
	initial    time.Duration
	maxBackoff time.Duration
	headers    http.Header

	// wait blocks for d or until ctx is done; swapped in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in per session
			},
		}
	}

	hdr := http.Header{}
	hdr.Set("User-Agent", DefaultUserAgent)
	hdr.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")
	for k, vs := range cfg.BaseHeaders {
		hdr[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	return &Client{
		hc:         &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries: cfg.MaxRetries,
		initial:    cfg.InitialBackoff,
		maxBackoff: cfg.MaxBackoff,
		headers:    hdr,
		wait:       waitContext,
	}
}

// Get fetches url. Per-call headers override the client's. The caller owns
// the returned body. A non-retryable status is returned as a response, not
// an error; retryable statuses that persist past the last attempt are.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	if url == "" {
		return nil, errors.New("httpds: url must not be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range c.headers {
			req.Header[k] = append([]string(nil), vs...)
		}
		for k, vs := range headers {
			req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}

		delay := backoff(c.initial, attempt, c.maxBackoff)
		resp, err := c.hc.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case !retryable(resp.StatusCode):
			return resp, nil
		default:
			if d, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
				delay = min(d, c.maxBackoff)
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: GET %s: retryable status %d", url, resp.StatusCode)
		}

		if attempt == c.maxRetries {
			break
		}
		log.Printf("httpds: retry url=%s attempt=%d wait=%s err=%v", url, attempt+1, delay, lastErr)
		if err := c.wait(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoff returns initial doubled once per prior attempt, capped at limit.
func backoff(initial time.Duration, attempt int, limit time.Duration) time.Duration {
	d := initial
	for i := 0; i < attempt && d < limit; i++ {
		d *= 2
	}
	return min(d, limit)
}

// retryAfter parses the delay-seconds form of Retry-After.
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

func waitContext(ctx context.Context, d time.Duration) error {
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
