// Package scheduler provides the named one-shot and periodic triggers
// the controller schedules reminders on. It mirrors a host alarm
// facility: triggers are addressed by name, re-registering a name
// replaces the prior trigger, and firing is approximate — a suspended
// process can fire late or never, which is why the controller runs a
// cleanup pass.
package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// Callback receives the name of the trigger that fired.
type Callback func(name string)

// Scheduler owns a set of named timers and delivers fires to one
// callback. All methods are safe for concurrent use.
type Scheduler struct {
	mu       sync.Mutex
	oneShots map[string]*time.Timer
	periodic map[string]*time.Ticker
	done     chan struct{}
	callback Callback
	now      func() time.Time
}

// New creates a Scheduler delivering fires to cb.
func New(cb Callback) *Scheduler {
	return &Scheduler{
		oneShots: make(map[string]*time.Timer),
		periodic: make(map[string]*time.Ticker),
		done:     make(chan struct{}),
		callback: cb,
		now:      time.Now,
	}
}

// Register schedules a one-shot trigger at the given time, replacing any
// existing trigger with the same name. A fire time already in the past
// fires immediately; validation of "too soon" is the caller's business.
func (s *Scheduler) Register(name string, fireAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.oneShots[name]; ok {
		t.Stop()
	}

	delay := fireAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.oneShots[name] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.oneShots, name)
		s.mu.Unlock()
		s.callback(name)
	})
	slog.Debug("trigger registered", "name", name, "fire_at", fireAt)
	return nil
}

// Cancel stops a one-shot trigger and reports whether it was present.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.oneShots[name]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.oneShots, name)
	slog.Debug("trigger cancelled", "name", name)
	return true
}

// Every registers a periodic trigger firing at the given interval until
// Stop. Used for the data-refresh and resync heartbeats.
func (s *Scheduler) Every(name string, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.periodic[name]; ok {
		t.Stop()
	}
	ticker := time.NewTicker(interval)
	s.periodic[name] = ticker

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.callback(name)
			}
		}
	}()
}

// Stop cancels every trigger. The scheduler cannot be reused afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.done)
	for name, t := range s.oneShots {
		t.Stop()
		delete(s.oneShots, name)
	}
	for name, t := range s.periodic {
		t.Stop()
		delete(s.periodic, name)
	}
}

// Pending reports whether a one-shot trigger with the given name is
// currently registered.
func (s *Scheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.oneShots[name]
	return ok
}
