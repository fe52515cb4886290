// Package upstream wraps the public vlrgg match-data API. The API is an
// opaque collaborator: responses are passed through as raw JSON and no
// schema guarantees are assumed.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Feed names the upstream accepts for the match query.
const (
	FeedUpcoming = "upcoming"
	FeedLive     = "live"
	FeedResults  = "results"
)

// Client is a paced HTTP client for the match-data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client for the given base URL. Requests are paced
// to at most 2/second so a burst of popup opens cannot hammer the
// upstream, and each call is bounded by a 10 second timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// Matches fetches one feed (upcoming, live, results) and returns the raw
// JSON payload untouched.
func (c *Client) Matches(ctx context.Context, feed string) (json.RawMessage, error) {
	if feed == "" {
		feed = FeedUpcoming
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	target := fmt.Sprintf("%s/match?q=%s", c.baseURL, url.QueryEscape(feed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("upstream returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

// StatusError reports a non-200 upstream response so the proxy can relay
// the original status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.Code)
}
