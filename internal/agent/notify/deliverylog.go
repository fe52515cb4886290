package notify

import (
	"sync"
	"time"

	"github.com/valmatch-sync/internal/pkg/id"
)

// Delivery records one fired reminder for diagnostics.
type Delivery struct {
	ID          string
	MatchID     string
	Alert       Alert
	DeliveredAt time.Time
}

// DeliveryLog is a bounded in-memory ring of recent deliveries. It exists
// for debugging missed or duplicate reminders and is never authoritative.
type DeliveryLog struct {
	mu      sync.Mutex
	entries []Delivery
	max     int
}

// NewDeliveryLog creates a log keeping at most max entries.
func NewDeliveryLog(max int) *DeliveryLog {
	if max <= 0 {
		max = 50
	}
	return &DeliveryLog{max: max}
}

// Record appends a delivery and returns its id.
func (l *DeliveryLog) Record(matchID string, a Alert) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := Delivery{
		ID:          id.New(),
		MatchID:     matchID,
		Alert:       a,
		DeliveredAt: time.Now(),
	}
	l.entries = append(l.entries, d)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	return d.ID
}

// Recent returns a copy of the recorded deliveries, oldest first.
func (l *DeliveryLog) Recent() []Delivery {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Delivery, len(l.entries))
	copy(out, l.entries)
	return out
}
