package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valmatch-sync/internal/agent/notify"
	"github.com/valmatch-sync/internal/domain"
)

// --- mocks ---

type mockScheduler struct{ mock.Mock }

func (m *mockScheduler) Register(name string, fireAt time.Time) error {
	return m.Called(name, fireAt).Error(0)
}
func (m *mockScheduler) Cancel(name string) bool {
	return m.Called(name).Bool(0)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) FetchAll(ctx context.Context, userID string) domain.NotificationSet {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).(domain.NotificationSet); s != nil {
		return s
	}
	return domain.NotificationSet{}
}
func (m *mockStore) ReplaceAll(ctx context.Context, userID string, set domain.NotificationSet) error {
	return m.Called(ctx, userID, set).Error(0)
}
func (m *mockStore) DeleteOne(ctx context.Context, userID, matchID string) error {
	return m.Called(ctx, userID, matchID).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, a notify.Alert) error {
	return m.Called(ctx, a).Error(0)
}

type stubIdentity struct {
	id  string
	err error
}

func (s stubIdentity) UserID() (string, error) { return s.id, s.err }

// fakeStore is an in-memory store for end-to-end flows.
type fakeStore struct {
	mu   sync.Mutex
	sets map[string]domain.NotificationSet
}

func newFakeStore() *fakeStore {
	return &fakeStore{sets: make(map[string]domain.NotificationSet)}
}

func (f *fakeStore) FetchAll(_ context.Context, userID string) domain.NotificationSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := domain.NotificationSet{}
	for k, v := range f.sets[userID] {
		out[k] = v
	}
	return out
}
func (f *fakeStore) ReplaceAll(_ context.Context, userID string, set domain.NotificationSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[userID] = set
	return nil
}
func (f *fakeStore) DeleteOne(_ context.Context, userID, matchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sets[userID], matchID)
	return nil
}

// --- helpers ---

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newCtrl(sched TriggerScheduler, store NotificationStore, notifier notify.Notifier) *Controller {
	return New(Deps{
		Identity:   stubIdentity{id: "user_1_abc"},
		Store:      store,
		Scheduler:  sched,
		Notifier:   notifier,
		Deliveries: notify.NewDeliveryLog(10),
		DisplayLoc: time.UTC,
		Now:        func() time.Time { return testNow },
	})
}

func validRequest(matchMs int64) ScheduleRequest {
	return ScheduleRequest{
		MatchID:    "m1",
		MatchTime:  matchMs,
		Team1:      "A",
		Team2:      "B",
		Tournament: "Test Cup",
	}
}

// --- Schedule ---

func TestSchedule_Success(t *testing.T) {
	matchMs := testNow.Add(10 * time.Minute).UnixMilli()
	wantAlarm := matchMs - 300000

	sched := &mockScheduler{}
	store := &mockStore{}
	sched.On("Register", "match_notification_m1", time.UnixMilli(wantAlarm)).Return(nil)
	store.On("FetchAll", mock.Anything, "user_1_abc").Return(domain.NotificationSet{})
	store.On("ReplaceAll", mock.Anything, "user_1_abc", mock.MatchedBy(func(set domain.NotificationSet) bool {
		rec, ok := set["m1"]
		if !ok {
			return false
		}
		am, err := rec.AlarmTimeMs()
		return err == nil && am == wantAlarm && rec.Team1 == "A" && rec.Team2 == "B"
	})).Return(nil)

	c := newCtrl(sched, store, &mockNotifier{})
	resp := c.Schedule(context.Background(), validRequest(matchMs))

	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, matchMs, resp.MatchTime)
	assert.Equal(t, wantAlarm, resp.AlarmTime)
	assert.NotEmpty(t, resp.FormattedMatchTime)
	sched.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSchedule_TooSoon(t *testing.T) {
	// Alarm time would be one minute in the past.
	matchMs := testNow.Add(4 * time.Minute).UnixMilli()

	sched := &mockScheduler{}
	store := &mockStore{}
	c := newCtrl(sched, store, &mockNotifier{})

	resp := c.Schedule(context.Background(), validRequest(matchMs))

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "too soon")
	sched.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestSchedule_ExactlyAtLead(t *testing.T) {
	// alarmTime == now is still rejected (strict inequality).
	matchMs := testNow.Add(5 * time.Minute).UnixMilli()

	sched := &mockScheduler{}
	c := newCtrl(sched, &mockStore{}, &mockNotifier{})

	resp := c.Schedule(context.Background(), validRequest(matchMs))
	assert.False(t, resp.Success)
	sched.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestSchedule_InvalidTimestamp(t *testing.T) {
	sched := &mockScheduler{}
	c := newCtrl(sched, &mockStore{}, &mockNotifier{})

	for _, raw := range []interface{}{"garbage", nil, int64(1600000000000)} {
		req := validRequest(0)
		req.MatchTime = raw
		resp := c.Schedule(context.Background(), req)
		assert.False(t, resp.Success, "raw=%v", raw)
		assert.Contains(t, resp.Message, "Invalid timestamp")
	}
	sched.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestSchedule_SecondsInput(t *testing.T) {
	matchSec := testNow.Add(10 * time.Minute).Unix()
	wantAlarm := matchSec*1000 - 300000

	sched := &mockScheduler{}
	store := &mockStore{}
	sched.On("Register", "match_notification_m1", time.UnixMilli(wantAlarm)).Return(nil)
	store.On("FetchAll", mock.Anything, mock.Anything).Return(domain.NotificationSet{})
	store.On("ReplaceAll", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	c := newCtrl(sched, store, &mockNotifier{})
	resp := c.Schedule(context.Background(), validRequest(0).withTime(matchSec))

	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, matchSec*1000, resp.MatchTime)
	sched.AssertExpectations(t)
}

func (r ScheduleRequest) withTime(v interface{}) ScheduleRequest {
	r.MatchTime = v
	return r
}

func TestSchedule_StoreWriteFails_CompensatesTrigger(t *testing.T) {
	matchMs := testNow.Add(10 * time.Minute).UnixMilli()

	sched := &mockScheduler{}
	store := &mockStore{}
	sched.On("Register", mock.Anything, mock.Anything).Return(nil)
	sched.On("Cancel", "match_notification_m1").Return(true)
	store.On("FetchAll", mock.Anything, mock.Anything).Return(domain.NotificationSet{})
	store.On("ReplaceAll", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("backend down"))

	c := newCtrl(sched, store, &mockNotifier{})
	resp := c.Schedule(context.Background(), validRequest(matchMs))

	assert.False(t, resp.Success)
	sched.AssertCalled(t, "Cancel", "match_notification_m1")
}

func TestSchedule_SchedulerFails(t *testing.T) {
	matchMs := testNow.Add(10 * time.Minute).UnixMilli()

	sched := &mockScheduler{}
	store := &mockStore{}
	sched.On("Register", mock.Anything, mock.Anything).Return(errors.New("no timers"))

	c := newCtrl(sched, store, &mockNotifier{})
	resp := c.Schedule(context.Background(), validRequest(matchMs))

	assert.False(t, resp.Success)
	store.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestSchedule_Reschedule_SameTriggerName(t *testing.T) {
	first := testNow.Add(10 * time.Minute).UnixMilli()
	second := testNow.Add(20 * time.Minute).UnixMilli()

	sched := &mockScheduler{}
	store := &mockStore{}
	sched.On("Register", "match_notification_m1", mock.Anything).Return(nil).Twice()
	store.On("FetchAll", mock.Anything, mock.Anything).Return(domain.NotificationSet{})
	store.On("ReplaceAll", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	c := newCtrl(sched, store, &mockNotifier{})
	require.True(t, c.Schedule(context.Background(), validRequest(first)).Success)
	require.True(t, c.Schedule(context.Background(), validRequest(second)).Success)

	// Same name both times: registration replaces, never duplicates.
	sched.AssertNumberOfCalls(t, "Register", 2)
}

// --- Cancel ---

func TestCancel_NeverScheduled(t *testing.T) {
	sched := &mockScheduler{}
	store := &mockStore{}
	sched.On("Cancel", "match_notification_ghost").Return(false)
	store.On("DeleteOne", mock.Anything, "user_1_abc", "ghost").Return(nil)

	c := newCtrl(sched, store, &mockNotifier{})
	resp := c.Cancel(context.Background(), "ghost")

	assert.True(t, resp.Success)
}

func TestCancel_StoreDeleteFails(t *testing.T) {
	sched := &mockScheduler{}
	store := &mockStore{}
	sched.On("Cancel", mock.Anything).Return(true)
	store.On("DeleteOne", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("down"))

	c := newCtrl(sched, store, &mockNotifier{})
	resp := c.Cancel(context.Background(), "m1")

	assert.False(t, resp.Success)
}

// --- HandleTrigger ---

func TestHandleTrigger_DeliversAndDeletes(t *testing.T) {
	matchMs := testNow.Add(5 * time.Minute).UnixMilli()
	rec := domain.NewNotificationRecord(
		domain.MatchRef{ID: "m1", Team1: "A", Team2: "B", Tournament: "Test Cup"},
		matchMs, "readable", "")

	sched := &mockScheduler{}
	store := &mockStore{}
	notifier := &mockNotifier{}
	store.On("FetchAll", mock.Anything, "user_1_abc").Return(domain.NotificationSet{"m1": rec})
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(a notify.Alert) bool {
		return a.Message == "A vs B starts in 5 minutes!" && a.Title == notify.AlertTitle
	})).Return(nil)
	store.On("DeleteOne", mock.Anything, "user_1_abc", "m1").Return(nil)

	c := newCtrl(sched, store, notifier)
	c.HandleTrigger("match_notification_m1")

	notifier.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestHandleTrigger_RecordAbsent_Quiet(t *testing.T) {
	store := &mockStore{}
	notifier := &mockNotifier{}
	store.On("FetchAll", mock.Anything, mock.Anything).Return(domain.NotificationSet{})

	c := newCtrl(&mockScheduler{}, store, notifier)
	c.HandleTrigger("match_notification_gone")

	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleTrigger_NoIdentity_Quiet(t *testing.T) {
	store := &mockStore{}
	notifier := &mockNotifier{}

	c := New(Deps{
		Identity:  stubIdentity{err: errors.New("no id yet")},
		Store:     store,
		Scheduler: &mockScheduler{},
		Notifier:  notifier,
		Now:       func() time.Time { return testNow },
	})
	c.HandleTrigger("match_notification_m1")

	store.AssertNotCalled(t, "FetchAll", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestHandleTrigger_DeleteFails_StillDelivered(t *testing.T) {
	matchMs := testNow.Add(5 * time.Minute).UnixMilli()
	rec := domain.NewNotificationRecord(domain.MatchRef{ID: "m1", Team1: "A", Team2: "B"}, matchMs, "", "")

	store := &mockStore{}
	notifier := &mockNotifier{}
	store.On("FetchAll", mock.Anything, mock.Anything).Return(domain.NotificationSet{"m1": rec})
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	store.On("DeleteOne", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("down"))

	c := newCtrl(&mockScheduler{}, store, notifier)
	c.HandleTrigger("match_notification_m1")

	// Delete failure is logged only; the alert already went out.
	notifier.AssertExpectations(t)
}

func TestHandleTrigger_RefreshHeartbeat(t *testing.T) {
	called := false
	c := New(Deps{
		Identity:  stubIdentity{id: "u"},
		Store:     &mockStore{},
		Scheduler: &mockScheduler{},
		Notifier:  &mockNotifier{},
		Refresh:   func(context.Context) { called = true },
		Now:       func() time.Time { return testNow },
	})
	c.HandleTrigger(TriggerUpdateData)
	assert.True(t, called)
}

// --- CleanupExpired ---

func TestCleanupExpired_PrunesOnlyPast(t *testing.T) {
	past := domain.NewNotificationRecord(domain.MatchRef{ID: "past"}, testNow.Add(-time.Hour).UnixMilli(), "", "")
	future := domain.NewNotificationRecord(domain.MatchRef{ID: "future"}, testNow.Add(time.Hour).UnixMilli(), "", "")

	store := &mockStore{}
	store.On("FetchAll", mock.Anything, "user_1_abc").Return(domain.NotificationSet{"past": past, "future": future})
	store.On("ReplaceAll", mock.Anything, "user_1_abc", mock.MatchedBy(func(set domain.NotificationSet) bool {
		_, hasFuture := set["future"]
		_, hasPast := set["past"]
		return len(set) == 1 && hasFuture && !hasPast
	})).Return(nil)

	c := newCtrl(&mockScheduler{}, store, &mockNotifier{})
	n, err := c.CleanupExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	store.AssertExpectations(t)
}

func TestCleanupExpired_NothingToDo_NoWrite(t *testing.T) {
	future := domain.NewNotificationRecord(domain.MatchRef{ID: "future"}, testNow.Add(time.Hour).UnixMilli(), "", "")

	store := &mockStore{}
	store.On("FetchAll", mock.Anything, mock.Anything).Return(domain.NotificationSet{"future": future})

	c := newCtrl(&mockScheduler{}, store, &mockNotifier{})
	n, err := c.CleanupExpired(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	store.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything, mock.Anything)
}

// --- end to end ---

func TestScheduleDeliverLifecycle(t *testing.T) {
	matchMs := testNow.Add(10 * time.Minute).UnixMilli()

	sched := &mockScheduler{}
	sched.On("Register", mock.Anything, mock.Anything).Return(nil)
	store := newFakeStore()
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(a notify.Alert) bool {
		return a.Message == "A vs B starts in 5 minutes!"
	})).Return(nil)

	deliveries := notify.NewDeliveryLog(10)
	c := New(Deps{
		Identity:   stubIdentity{id: "user_1_abc"},
		Store:      store,
		Scheduler:  sched,
		Notifier:   notifier,
		Deliveries: deliveries,
		DisplayLoc: time.UTC,
		Now:        func() time.Time { return testNow },
	})

	req := validRequest(matchMs)
	req.MatchID = "A-B-1999999999999"
	resp := c.Schedule(context.Background(), req)
	require.True(t, resp.Success, resp.Message)

	set := store.FetchAll(context.Background(), "user_1_abc")
	rec, ok := set["A-B-1999999999999"]
	require.True(t, ok)
	am, err := rec.AlarmTimeMs()
	require.NoError(t, err)
	assert.Equal(t, matchMs-300000, am)

	c.HandleTrigger("match_notification_A-B-1999999999999")

	notifier.AssertExpectations(t)
	assert.Empty(t, store.FetchAll(context.Background(), "user_1_abc"))
	require.Len(t, deliveries.Recent(), 1)
	assert.Equal(t, "A-B-1999999999999", deliveries.Recent()[0].MatchID)
}
