// Package ui exposes the popup surface over a localhost HTTP API. The
// rendered popup talks to this server; every view of the upcoming list
// re-reads toggle state from the remote store, exactly like the popup
// re-querying on focus.
package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/valmatch-sync/internal/agent/matchcache"
	"github.com/valmatch-sync/internal/agent/popup"
	"github.com/valmatch-sync/internal/upstream"
)

// MatchView is one upcoming match decorated with its toggle state.
type MatchView struct {
	ID             string `json:"id"`
	Team1          string `json:"team1"`
	Team2          string `json:"team2"`
	Tournament     string `json:"tournament"`
	UnixTimestamp  string `json:"unix_timestamp"`
	TimeUntilMatch string `json:"time_until_match,omitempty"`
	Notify         bool   `json:"notify"`
	Pending        bool   `json:"pending"`
}

// Server serves the popup API.
type Server struct {
	adapter *popup.Adapter
	cache   *matchcache.Cache
}

func NewServer(adapter *popup.Adapter, cache *matchcache.Cache) *Server {
	return &Server{adapter: adapter, cache: cache}
}

// Router builds the localhost router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/matches", s.feed)
	r.Get("/upcoming", s.upcoming)
	r.Post("/notifications/{matchID}/enable", s.enable)
	r.Post("/notifications/{matchID}/disable", s.disable)

	return r
}

// feed passes a cached raw feed through for the live/results views.
func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	feed := r.URL.Query().Get("q")
	if feed == "" {
		feed = upstream.FeedUpcoming
	}
	data := s.cache.Raw(feed)
	if data == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "feed not loaded yet"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// upcoming renders the toggle-decorated upcoming list. Toggle state is
// refreshed from the remote store on every call.
func (s *Server) upcoming(w http.ResponseWriter, r *http.Request) {
	s.adapter.RefreshStates(r.Context())

	matches := s.cache.Upcoming()
	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		ref := popup.MatchRefFor(m)
		v := MatchView{
			ID:             ref.ID,
			Team1:          ref.Team1,
			Team2:          ref.Team2,
			Tournament:     ref.Tournament,
			UnixTimestamp:  m.UnixTimestamp,
			TimeUntilMatch: m.TimeUntilMatch,
		}
		if t, ok := s.adapter.State(ref.ID); ok {
			v.Notify = t.Active
			v.Pending = t.Pending
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) enable(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, true)
}

func (s *Server) disable(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, false)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request, on bool) {
	matchID := chi.URLParam(r, "matchID")

	var target *matchcache.Match
	for _, m := range s.cache.Upcoming() {
		if popup.MatchRefFor(m).ID == matchID {
			mm := m
			target = &mm
			break
		}
	}
	if target == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown match"})
		return
	}

	var err error
	if on {
		err = s.adapter.ToggleOn(r.Context(), *target)
	} else {
		err = s.adapter.ToggleOff(r.Context(), *target)
	}
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
