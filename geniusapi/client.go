// Package geniusapi contains minimal helpers to interact with the Genius
// lyrics/metadata service: album search, track listings, and per-song producer
// credits. Genius fronts parts of its catalog behind bot detection, so the client
// sends a browser User-Agent, paces outbound requests with a token bucket, and
// retries transient server errors a bounded number of times.
package geniusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIBase = "https://api.genius.com"
	// The album search and track listing endpoints are only exposed on the web API,
	// the same surface the lyricsgenius ecosystem uses.
	defaultWebBase = "https://genius.com/api"

	// Chrome UA: Genius serves access-denied pages to default Go/python clients.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxAttempts = 3
)

// ErrAccessDenied marks upstream denial responses (403 / blocked) as distinct from
// generic network failure so callers can message "try later" instead of "broken".
var ErrAccessDenied = errors.New("genius denied access")

// Client calls the Genius REST and web APIs.
type Client struct {
	Token      string
	HTTPClient *http.Client
	APIBase    string // override in tests
	WebBase    string // override in tests

	// Limiter caps the outbound request rate. Nil disables pacing (tests).
	Limiter *rate.Limiter
}

// NewClient returns a client with a conservative default request budget
// (1 req/s, small burst) under the upstream abuse-detection threshold.
func NewClient(token string) *Client {
	return &Client{
		Token:   token,
		Limiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) apiBase() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	return defaultAPIBase
}

func (c *Client) webBase() string {
	if c.WebBase != "" {
		return c.WebBase
	}
	return defaultWebBase
}

// getJSON issues a GET with auth, UA, pacing, and bounded retry on 5xx, decoding
// the response into out. 401/403 map to ErrAccessDenied and are not retried.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", "application/json")
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		resp, err := c.http().Do(req)
		if err != nil {
			lastErr = err
		} else {
			lastErr = decodeOrClassify(resp, out)
			if lastErr == nil || !retryable(lastErr) {
				return lastErr
			}
		}
		if attempt < maxAttempts {
			slog.Debug("genius request retry", slog.String("url", url), slog.Int("attempt", attempt), slog.Any("err", lastErr), slog.String("component", "geniusapi"))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
	}
	return lastErr
}

func decodeOrClassify(resp *http.Response, out any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	switch {
	case resp.StatusCode == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAccessDenied, resp.Status)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		// Cloudflare challenge pages come back as 503 HTML with a block notice.
		if blocked(string(b)) {
			return fmt.Errorf("%w: %s", ErrAccessDenied, resp.Status)
		}
		return fmt.Errorf("genius request failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
}

func blocked(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "cloudflare") || strings.Contains(lower, "access denied")
}

func retryable(err error) bool {
	if err == nil || errors.Is(err, ErrAccessDenied) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := err.Error()
	for _, code := range []string{"500", "502", "503", "504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	// Network-level failures (no HTTP status) are worth one more try.
	return !strings.Contains(msg, "genius request failed")
}
