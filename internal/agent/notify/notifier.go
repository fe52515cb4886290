// Package notify emits the user-visible reminder when a match trigger
// fires.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valmatch-sync/internal/infrastructure/sns"
)

// AlertTitle is the fixed title of every reminder.
const AlertTitle = "Valorant Match Starting Soon"

// Alert is one user-visible reminder.
type Alert struct {
	Title          string
	Message        string
	ContextMessage string
}

// NewMatchAlert builds the reminder for a match: "<t1> vs <t2> starts in
// 5 minutes!" with the tournament and display time as context.
func NewMatchAlert(team1, team2, tournament, displayTime string) Alert {
	if tournament == "" {
		tournament = "Valorant Match"
	}
	return Alert{
		Title:          AlertTitle,
		Message:        fmt.Sprintf("%s vs %s starts in 5 minutes!", team1, team2),
		ContextMessage: fmt.Sprintf("%s - %s", tournament, displayTime),
	}
}

// Notifier delivers an alert to the user.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to the structured log. It is the default
// sink on headless installations.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, a Alert) error {
	slog.Info("match reminder",
		"title", a.Title,
		"message", a.Message,
		"context", a.ContextMessage,
	)
	return nil
}

// SNSNotifier publishes alerts to an SNS topic so reminders reach the
// user off-device.
type SNSNotifier struct {
	publisher sns.AlertPublisher
}

func NewSNSNotifier(p sns.AlertPublisher) *SNSNotifier {
	return &SNSNotifier{publisher: p}
}

func (n *SNSNotifier) Notify(ctx context.Context, a Alert) error {
	return n.publisher.Publish(ctx, a.Title, a.Message+"\n"+a.ContextMessage)
}
