// Package matchcache keeps the latest copy of each upstream match feed
// so the popup renders instantly; the data-refresh heartbeat keeps it
// current. Cached data is display-only — notification state never lives
// here.
package matchcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/valmatch-sync/internal/upstream"
)

// Match is one upcoming-feed entry in the upstream schema. Fields the UI
// does not use are dropped at decode time.
type Match struct {
	ID             string `json:"id"`
	Team1          string `json:"team1"`
	Team2          string `json:"team2"`
	TournamentName string `json:"tournament_name"`
	MatchEvent     string `json:"match_event"`
	UnixTimestamp  string `json:"unix_timestamp"`
	TimeUntilMatch string `json:"time_until_match"`
	MatchPage      string `json:"match_page"`
}

// Tournament returns the display tournament name, falling back through
// the two fields upstream populates inconsistently.
func (m Match) Tournament() string {
	if m.TournamentName != "" {
		return m.TournamentName
	}
	return m.MatchEvent
}

type feedEnvelope struct {
	Data struct {
		Segments []Match `json:"segments"`
	} `json:"data"`
}

// Fetcher is the upstream surface the cache needs.
type Fetcher interface {
	Matches(ctx context.Context, feed string) (json.RawMessage, error)
}

// Cache holds the last good copy of each feed.
type Cache struct {
	mu        sync.RWMutex
	fetcher   Fetcher
	raw       map[string]json.RawMessage
	upcoming  []Match
	refreshed time.Time
}

func New(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		raw:     make(map[string]json.RawMessage),
	}
}

// Refresh fetches all three feeds. A failed feed keeps its previous copy;
// partial staleness beats an empty popup.
func (c *Cache) Refresh(ctx context.Context) {
	for _, feed := range []string{upstream.FeedUpcoming, upstream.FeedLive, upstream.FeedResults} {
		data, err := c.fetcher.Matches(ctx, feed)
		if err != nil {
			slog.Error("refresh match feed", "feed", feed, "err", err)
			continue
		}
		c.store(feed, data)
	}
}

func (c *Cache) store(feed string, data json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.raw[feed] = data
	c.refreshed = time.Now()

	if feed != upstream.FeedUpcoming {
		return
	}
	var env feedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("unparseable upcoming feed", "err", err)
		return
	}
	c.upcoming = env.Data.Segments
}

// Raw returns the last copy of a feed, nil if never fetched.
func (c *Cache) Raw(feed string) json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.raw[feed]
}

// Upcoming returns the parsed upcoming matches from the last refresh.
func (c *Cache) Upcoming() []Match {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Match, len(c.upcoming))
	copy(out, c.upcoming)
	return out
}

// RefreshedAt reports when any feed last succeeded.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}
