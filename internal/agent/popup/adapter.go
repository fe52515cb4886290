// Package popup is the UI-side half of the reminder protocol: it keeps
// one toggle per upcoming match, relays schedule/cancel intents to the
// controller and refreshes toggle state from the remote store whenever
// the upcoming view becomes visible. Toggle state is never trusted from
// a local cache — the store is the only authority.
package popup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/valmatch-sync/internal/agent/controller"
	"github.com/valmatch-sync/internal/agent/matchcache"
	"github.com/valmatch-sync/internal/domain"
	"github.com/valmatch-sync/internal/pkg/timeutil"
)

// Toggle is the visible reminder state for one match.
type Toggle struct {
	MatchID string
	Active  bool
	Pending bool // an intent is in flight; further clicks are ignored
}

// Scheduling is the controller surface the adapter relays intents to.
type Scheduling interface {
	Schedule(ctx context.Context, req controller.ScheduleRequest) controller.ScheduleResponse
	Cancel(ctx context.Context, matchID string) controller.CancelResponse
}

// Adapter mediates between the rendered match list and the controller.
type Adapter struct {
	mu      sync.Mutex
	ctrl    Scheduling
	store   controller.NotificationStore
	ids     controller.IdentityProvider
	cache   *matchcache.Cache
	toggles map[string]*Toggle
}

func NewAdapter(ctrl Scheduling, store controller.NotificationStore, ids controller.IdentityProvider, cache *matchcache.Cache) *Adapter {
	return &Adapter{
		ctrl:    ctrl,
		store:   store,
		ids:     ids,
		cache:   cache,
		toggles: make(map[string]*Toggle),
	}
}

// MatchRefFor derives the match identity the reminder protocol keys on.
// Upstream ids win; otherwise the id is synthesized from team names and
// the raw timestamp.
func MatchRefFor(m matchcache.Match) domain.MatchRef {
	id := m.ID
	if id == "" {
		id = domain.SynthesizeMatchID(m.Team1, m.Team2, m.UnixTimestamp)
	}
	return domain.MatchRef{
		ID:         id,
		Team1:      m.Team1,
		Team2:      m.Team2,
		Tournament: m.Tournament(),
	}
}

// RefreshStates re-reads the remote store and rebuilds every toggle.
// Called whenever the upcoming view is shown or the active view switches
// back to upcoming. In-flight toggles keep their pending flag so a
// refresh cannot re-enable a control mid-operation.
func (a *Adapter) RefreshStates(ctx context.Context) {
	userID, err := a.ids.UserID()
	if err != nil {
		slog.Error("refresh toggles: no user identity", "err", err)
		return
	}
	set := a.store.FetchAll(ctx, userID)

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, m := range a.cache.Upcoming() {
		ref := MatchRefFor(m)
		t, ok := a.toggles[ref.ID]
		if !ok {
			t = &Toggle{MatchID: ref.ID}
			a.toggles[ref.ID] = t
		}
		if t.Pending {
			continue
		}
		_, t.Active = set[ref.ID]
	}
}

// ToggleOn schedules a reminder for the match. The toggle flips
// optimistically and reverts if the controller rejects or any call
// fails; the per-match pending guard serializes rapid double-clicks.
func (a *Adapter) ToggleOn(ctx context.Context, m matchcache.Match) error {
	ref := MatchRefFor(m)
	t, err := a.beginIntent(ref.ID, true)
	if err != nil {
		return err
	}

	matchMs, err := timeutil.ParseUpstreamTimestamp(m.UnixTimestamp)
	if err != nil {
		a.endIntent(t, false)
		return fmt.Errorf("could not schedule notification: %w", err)
	}

	resp := a.ctrl.Schedule(ctx, controller.ScheduleRequest{
		MatchID:           ref.ID,
		MatchTime:         matchMs,
		Team1:             ref.Team1,
		Team2:             ref.Team2,
		Tournament:        ref.Tournament,
		OriginalTimestamp: m.UnixTimestamp,
	})
	if !resp.Success {
		a.endIntent(t, false)
		return fmt.Errorf("%s", resp.Message)
	}
	a.endIntent(t, true)
	return nil
}

// ToggleOff cancels the reminder and reverts the toggle if the cancel
// fails downstream.
func (a *Adapter) ToggleOff(ctx context.Context, m matchcache.Match) error {
	ref := MatchRefFor(m)
	t, err := a.beginIntent(ref.ID, false)
	if err != nil {
		return err
	}

	resp := a.ctrl.Cancel(ctx, ref.ID)
	if !resp.Success {
		a.endIntent(t, true)
		return fmt.Errorf("%s", resp.Message)
	}
	a.endIntent(t, false)
	return nil
}

// State returns a snapshot of the toggle for a match id.
func (a *Adapter) State(matchID string) (Toggle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.toggles[matchID]
	if !ok {
		return Toggle{}, false
	}
	return *t, true
}

// beginIntent marks the toggle pending with the optimistic target state.
// A second intent while one is in flight is refused.
func (a *Adapter) beginIntent(matchID string, target bool) (*Toggle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.toggles[matchID]
	if !ok {
		t = &Toggle{MatchID: matchID}
		a.toggles[matchID] = t
	}
	if t.Pending {
		return nil, fmt.Errorf("operation already in progress for this match")
	}
	t.Pending = true
	t.Active = target
	return t, nil
}

// endIntent settles the toggle into its final state.
func (a *Adapter) endIntent(t *Toggle, active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t.Pending = false
	t.Active = active
}
