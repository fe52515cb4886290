// Package controller owns the reminder business logic: it validates and
// normalizes match timestamps, computes fire times, drives the scheduler,
// resolves fired triggers back to match data through the remote store and
// emits the user-visible alert.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valmatch-sync/internal/agent/notify"
	"github.com/valmatch-sync/internal/domain"
	"github.com/valmatch-sync/internal/pkg/timeutil"
)

// Periodic trigger names the controller reacts to besides match reminders.
const (
	TriggerUpdateData = "updateData"
	TriggerResync     = "syncNotifications"
)

// TriggerScheduler is the minimal scheduler surface the controller needs.
type TriggerScheduler interface {
	Register(name string, fireAt time.Time) error
	Cancel(name string) bool
}

// NotificationStore is the remote store surface the controller needs.
// FetchAll fails open to an empty set; writes return an error.
type NotificationStore interface {
	FetchAll(ctx context.Context, userID string) domain.NotificationSet
	ReplaceAll(ctx context.Context, userID string, set domain.NotificationSet) error
	DeleteOne(ctx context.Context, userID, matchID string) error
}

// IdentityProvider yields the installation's durable user id.
type IdentityProvider interface {
	UserID() (string, error)
}

// ScheduleRequest is the popup's "notify me" intent. MatchTime accepts a
// number or a numeric string, in epoch milliseconds or seconds — the
// upstream feed is inconsistent and normalization sorts it out.
type ScheduleRequest struct {
	MatchID           string      `json:"matchId"`
	MatchTime         interface{} `json:"matchTime"`
	Team1             string      `json:"team1"`
	Team2             string      `json:"team2"`
	Tournament        string      `json:"tournament"`
	OriginalTimestamp string      `json:"originalTimestamp,omitempty"`
}

// ScheduleResponse reports the outcome plus display-ready times for the
// popup.
type ScheduleResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	MatchTime          int64  `json:"matchTime,omitempty"`
	FormattedMatchTime string `json:"formattedMatchTime,omitempty"`
	AlarmTime          int64  `json:"alarmTime,omitempty"`
	FormattedAlarmTime string `json:"formattedAlarmTime,omitempty"`
}

// CancelResponse reports the outcome of a cancel intent.
type CancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Deps are the collaborators a Controller is constructed with.
type Deps struct {
	Identity   IdentityProvider
	Store      NotificationStore
	Scheduler  TriggerScheduler
	Notifier   notify.Notifier
	Deliveries *notify.DeliveryLog
	DisplayLoc *time.Location
	Refresh    func(ctx context.Context) // data-refresh heartbeat hook, may be nil
	Now        func() time.Time          // defaults to time.Now
}

// Controller is the background half of the reminder protocol.
type Controller struct {
	ids        IdentityProvider
	store      NotificationStore
	sched      TriggerScheduler
	notifier   notify.Notifier
	deliveries *notify.DeliveryLog
	loc        *time.Location
	refresh    func(ctx context.Context)
	now        func() time.Time
}

func New(deps Deps) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.DisplayLoc == nil {
		deps.DisplayLoc = time.UTC
	}
	return &Controller{
		ids:        deps.Identity,
		store:      deps.Store,
		sched:      deps.Scheduler,
		notifier:   deps.Notifier,
		deliveries: deps.Deliveries,
		loc:        deps.DisplayLoc,
		refresh:    deps.Refresh,
		now:        deps.Now,
	}
}

// Schedule validates the request, registers the reminder trigger and
// writes the record to the remote store. The two steps form a small saga:
// if the store write fails after the trigger registered, the trigger is
// cancelled again so no orphan trigger can fire into a record-less store.
func (c *Controller) Schedule(ctx context.Context, req ScheduleRequest) ScheduleResponse {
	matchMs, err := timeutil.NormalizeEpochMs(req.MatchTime)
	if err != nil {
		slog.Error("invalid match time", "match_id", req.MatchID, "raw", req.MatchTime, "err", err)
		return ScheduleResponse{
			Success: false,
			Message: "Invalid timestamp (too old or malformed)",
		}
	}

	alarmMs := matchMs - domain.AlarmLead.Milliseconds()
	nowMs := c.now().UnixMilli()
	if alarmMs <= nowMs {
		return ScheduleResponse{
			Success:            false,
			Message:            "Match is too soon to schedule notification",
			MatchTime:          matchMs,
			FormattedMatchTime: timeutil.FormatDisplayLong(matchMs, c.loc),
			AlarmTime:          alarmMs,
			FormattedAlarmTime: timeutil.FormatDisplayLong(alarmMs, c.loc),
		}
	}

	trigger := domain.TriggerName(req.MatchID)
	if err := c.sched.Register(trigger, time.UnixMilli(alarmMs)); err != nil {
		slog.Error("register trigger", "trigger", trigger, "err", err)
		return ScheduleResponse{
			Success: false,
			Message: "Failed to schedule notification",
		}
	}

	if err := c.writeRecord(ctx, req, matchMs); err != nil {
		// Compensation: without a record the trigger would fire into
		// nothing, so take it back and let the user retry the toggle.
		c.sched.Cancel(trigger)
		slog.Error("write notification record", "match_id", req.MatchID, "err", err)
		return ScheduleResponse{
			Success: false,
			Message: "Failed to save notification state",
		}
	}

	return ScheduleResponse{
		Success:            true,
		Message:            fmt.Sprintf("Notification scheduled for %s", timeutil.FormatDisplay(alarmMs, c.loc)),
		MatchTime:          matchMs,
		FormattedMatchTime: timeutil.FormatDisplayLong(matchMs, c.loc),
		AlarmTime:          alarmMs,
		FormattedAlarmTime: timeutil.FormatDisplayLong(alarmMs, c.loc),
	}
}

// writeRecord performs the read-modify-write the whole-document store
// demands. Concurrent writers can still clobber each other; the store
// offers no transaction, and the operation is idempotent at the UI level.
func (c *Controller) writeRecord(ctx context.Context, req ScheduleRequest, matchMs int64) error {
	userID, err := c.ids.UserID()
	if err != nil {
		return fmt.Errorf("%w: no user identity: %v", domain.ErrStoreUnavailable, err)
	}

	set := c.store.FetchAll(ctx, userID)
	ref := domain.MatchRef{ID: req.MatchID, Team1: req.Team1, Team2: req.Team2, Tournament: req.Tournament}
	readable := timeutil.FormatDisplay(matchMs, c.loc)
	set[req.MatchID] = domain.NewNotificationRecord(ref, matchMs, readable, req.OriginalTimestamp)

	return c.store.ReplaceAll(ctx, userID, set)
}

// Cancel takes down the trigger and deletes the remote record. Cancelling
// a match that was never scheduled succeeds: both halves are no-ops then.
func (c *Controller) Cancel(ctx context.Context, matchID string) CancelResponse {
	c.sched.Cancel(domain.TriggerName(matchID))

	userID, err := c.ids.UserID()
	if err != nil {
		slog.Error("cancel: no user identity", "match_id", matchID, "err", err)
		return CancelResponse{Success: false, Message: "Failed to resolve user identity"}
	}
	if err := c.store.DeleteOne(ctx, userID, matchID); err != nil {
		slog.Error("cancel: delete record", "match_id", matchID, "err", err)
		return CancelResponse{Success: false, Message: "Failed to delete notification state"}
	}
	return CancelResponse{Success: true, Message: "Notification canceled"}
}

// HandleTrigger is the scheduler callback. It dispatches the periodic
// heartbeats and resolves match reminder triggers.
func (c *Controller) HandleTrigger(name string) {
	ctx := context.Background()
	switch name {
	case TriggerUpdateData:
		if c.refresh != nil {
			c.refresh(ctx)
		}
		return
	case TriggerResync:
		if _, err := c.CleanupExpired(ctx); err != nil {
			slog.Error("periodic cleanup", "err", err)
		}
		return
	}

	matchID, ok := domain.MatchIDFromTrigger(name)
	if !ok {
		slog.Warn("unknown trigger fired", "name", name)
		return
	}
	c.deliverReminder(ctx, matchID)
}

// deliverReminder resolves a fired trigger back to its record. A missing
// record means another path already handled the match (cancelled,
// expired, delivered on another device) — exit quietly. After a
// successful alert the record is deleted; a failed delete is only logged
// and the next cleanup pass picks the record up, at the accepted risk of
// a duplicate reminder.
func (c *Controller) deliverReminder(ctx context.Context, matchID string) {
	userID, err := c.ids.UserID()
	if err != nil {
		slog.Error("trigger fired with no user identity", "match_id", matchID, "err", err)
		return
	}

	set := c.store.FetchAll(ctx, userID)
	rec, ok := set[matchID]
	if !ok {
		return
	}

	displayTime := rec.ReadableTime
	if ms, err := rec.TimeMs(); err == nil {
		displayTime = timeutil.FormatDisplay(ms, c.loc)
	}
	alert := notify.NewMatchAlert(rec.Team1, rec.Team2, rec.Tournament, displayTime)

	if err := c.notifier.Notify(ctx, alert); err != nil {
		slog.Error("deliver reminder", "match_id", matchID, "err", err)
		return
	}
	if c.deliveries != nil {
		c.deliveries.Record(matchID, alert)
	}

	if err := c.store.DeleteOne(ctx, userID, matchID); err != nil {
		slog.Error("remove delivered reminder", "match_id", matchID, "err", err)
	}
}

// CleanupExpired prunes every record whose alarm time has already passed
// and writes the pruned set back. It is the self-healing pass for
// triggers that never fired because the process slept through the whole
// window; it does not re-deliver, it only stops stale entries from
// showing as active forever. Returns how many records were removed.
func (c *Controller) CleanupExpired(ctx context.Context) (int, error) {
	userID, err := c.ids.UserID()
	if err != nil {
		return 0, fmt.Errorf("resolve user identity: %w", err)
	}

	set := c.store.FetchAll(ctx, userID)
	expired := set.Expired(c.now())
	if len(expired) == 0 {
		return 0, nil
	}
	for _, id := range expired {
		delete(set, id)
		slog.Info("cleaned up expired notification", "match_id", id)
	}
	if err := c.store.ReplaceAll(ctx, userID, set); err != nil {
		return 0, fmt.Errorf("write pruned set: %w", err)
	}
	return len(expired), nil
}
