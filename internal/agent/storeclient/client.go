// Package storeclient is the agent-side client of the remote
// notification store. All notification state is authoritative only on
// the remote side; this client never caches.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/valmatch-sync/internal/domain"
)

// Client talks to the sync server's /notification endpoint. Every call is
// bounded by the configured timeout; a hung call must never wedge the UI.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given base URL with a per-call timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type fetchEnvelope struct {
	NotifiedMatches domain.NotificationSet `json:"notifiedMatches"`
	Error           string                 `json:"error"`
}

type statusEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// FetchAll returns the user's notification set. Any transport, status or
// parse failure degrades to an empty set with a log line — the caller's
// toggle state goes stale rather than the popup breaking.
func (c *Client) FetchAll(ctx context.Context, userID string) domain.NotificationSet {
	target := fmt.Sprintf("%s/notification?userId=%s", c.baseURL, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		slog.Error("build fetch request", "err", err)
		return domain.NotificationSet{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("fetch notifications", "err", err)
		return domain.NotificationSet{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("fetch notifications", "status", resp.StatusCode)
		return domain.NotificationSet{}
	}

	var env fetchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		slog.Error("decode notifications response", "err", err)
		return domain.NotificationSet{}
	}
	if env.NotifiedMatches == nil {
		return domain.NotificationSet{}
	}
	return env.NotifiedMatches
}

// ReplaceAll overwrites the user's whole notification set.
func (c *Client) ReplaceAll(ctx context.Context, userID string, set domain.NotificationSet) error {
	if set == nil {
		set = domain.NotificationSet{}
	}
	body := map[string]interface{}{
		"userId":          userID,
		"notifiedMatches": set,
	}
	return c.send(ctx, http.MethodPost, body)
}

// DeleteOne removes one match from the user's set. The server treats an
// absent match as success, so this is safe to call on any path.
func (c *Client) DeleteOne(ctx context.Context, userID, matchID string) error {
	body := map[string]interface{}{
		"userId":  userID,
		"matchId": matchID,
	}
	return c.send(ctx, http.MethodDelete, body)
}

func (c *Client) send(ctx context.Context, method string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", domain.ErrStoreUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/notification", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrStoreUnavailable, resp.StatusCode)
	}

	var env statusEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrStoreUnavailable, err)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, env.Error)
	}
	return nil
}
