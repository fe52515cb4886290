package domain

import (
	"fmt"
	"strconv"
	"time"
)

// AlarmLead is how long before match start a reminder fires.
const AlarmLead = 5 * time.Minute

// TriggerPrefix namespaces per-match reminder triggers in the scheduler.
// The trigger name for a match is TriggerPrefix + matchID.
const TriggerPrefix = "match_notification_"

// MatchRef is the minimal identity of a match as the upstream data
// describes it. ID is upstream-provided when available, otherwise
// synthesized with SynthesizeMatchID. Tournament may be empty.
type MatchRef struct {
	ID         string `json:"id"`
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	Tournament string `json:"tournament"`
}

// SynthesizeMatchID builds a fallback match id when upstream supplies
// none, from the raw (unparsed) upstream timestamp. Not guaranteed
// globally unique across refreshes when two matches share team names and
// start time.
func SynthesizeMatchID(team1, team2, rawTimestamp string) string {
	return fmt.Sprintf("%s-%s-%s", team1, team2, rawTimestamp)
}

// TriggerName returns the scheduler trigger name for a match id.
func TriggerName(matchID string) string {
	return TriggerPrefix + matchID
}

// MatchIDFromTrigger extracts the match id from a reminder trigger name.
// Returns ("", false) for names outside the reminder namespace.
func MatchIDFromTrigger(name string) (string, bool) {
	if len(name) <= len(TriggerPrefix) || name[:len(TriggerPrefix)] != TriggerPrefix {
		return "", false
	}
	return name[len(TriggerPrefix):], true
}

// NotificationRecord is one user's opted-in reminder for one match.
// Time and AlarmTime are epoch milliseconds stored as strings — the wire
// format the store contract fixes. AlarmTime is always Time minus AlarmLead.
// Records are immutable once written; cancel and expiry delete them.
type NotificationRecord struct {
	Time              string `json:"time" dynamodbav:"time"`
	AlarmTime         string `json:"alarmTime" dynamodbav:"alarm_time"`
	Team1             string `json:"team1" dynamodbav:"team1"`
	Team2             string `json:"team2" dynamodbav:"team2"`
	Tournament        string `json:"tournament" dynamodbav:"tournament"`
	ReadableTime      string `json:"readableTime" dynamodbav:"readable_time"`
	OriginalTimestamp string `json:"originalTimestamp,omitempty" dynamodbav:"original_timestamp"`
}

// NewNotificationRecord derives a record from the normalized match start
// time. readableTime is display-only and never parsed back.
func NewNotificationRecord(ref MatchRef, matchMs int64, readableTime, originalTimestamp string) NotificationRecord {
	return NotificationRecord{
		Time:              strconv.FormatInt(matchMs, 10),
		AlarmTime:         strconv.FormatInt(matchMs-AlarmLead.Milliseconds(), 10),
		Team1:             ref.Team1,
		Team2:             ref.Team2,
		Tournament:        ref.Tournament,
		ReadableTime:      readableTime,
		OriginalTimestamp: originalTimestamp,
	}
}

// AlarmTimeMs parses the stored alarm time. Records written by older
// clients can carry junk here; callers treat a parse failure as expired.
func (r NotificationRecord) AlarmTimeMs() (int64, error) {
	return strconv.ParseInt(r.AlarmTime, 10, 64)
}

// TimeMs parses the stored match start time.
func (r NotificationRecord) TimeMs() (int64, error) {
	return strconv.ParseInt(r.Time, 10, 64)
}

// NotificationSet is the complete per-user mapping of match id to record.
// It is always read and rewritten as one whole document; there is no
// partial update at the store level and concurrent writers can clobber
// each other (last write wins).
type NotificationSet map[string]NotificationRecord

// Expired returns the ids of records whose alarm time is strictly before
// now. Unparseable alarm times count as expired so they cannot linger.
func (s NotificationSet) Expired(now time.Time) []string {
	var ids []string
	nowMs := now.UnixMilli()
	for id, rec := range s {
		ms, err := rec.AlarmTimeMs()
		if err != nil || ms < nowMs {
			ids = append(ids, id)
		}
	}
	return ids
}
