// Package timeutil normalizes the match timestamps the upstream feed
// produces and formats them for display. Upstream is inconsistent about
// units: most entries are epoch milliseconds, some are epoch seconds,
// and either can arrive as a number or a numeric string.
package timeutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valmatch-sync/internal/domain"
)

// MinValidMs is 2023-01-01T00:00:00Z in epoch milliseconds. Anything
// earlier after unit correction is treated as garbage, not as a
// legitimately past match.
const MinValidMs int64 = 1672531200000

// MaxValidMs is 2100-01-01T00:00:00Z in epoch milliseconds. A corrected
// value past this is a millisecond timestamp that got multiplied, not a
// real match time.
const MaxValidMs int64 = 4102444800000

// NormalizeEpochMs converts a raw timestamp value into epoch milliseconds.
// Accepted inputs: int64, int, float64, json.Number, or a numeric string.
// Values below the millisecond floor are plausibly epoch seconds and get
// multiplied by 1000; the corrected value must then land in a plausible
// year range. This is a legacy unit-correction heuristic, kept for wire
// compatibility; values that fail to parse or land outside
// [2023-01-01, 2100-01-01) return ErrInvalidTimestamp.
func NormalizeEpochMs(raw interface{}) (int64, error) {
	ms, err := toInt64(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidTimestamp, err)
	}
	if ms <= 0 {
		return 0, fmt.Errorf("%w: non-positive value %d", domain.ErrInvalidTimestamp, ms)
	}
	if ms < MinValidMs {
		ms *= 1000
	}
	if ms < MinValidMs || ms >= MaxValidMs {
		return 0, fmt.Errorf("%w: %d is outside the plausible range", domain.ErrInvalidTimestamp, ms)
	}
	return ms, nil
}

func toInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("not a numeric string: %q", v)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("unsupported timestamp type %T", raw)
	}
}

// ParseUpstreamTimestamp handles the formats the match feed actually
// emits: epoch seconds or milliseconds (number-as-string) plus
// "2006-01-02 15:04:05" and ISO 8601 datetime strings, both read as UTC.
// The result is normalized epoch milliseconds.
func ParseUpstreamTimestamp(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: empty timestamp", domain.ErrInvalidTimestamp)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return NormalizeEpochMs(t.UnixMilli())
	}
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return NormalizeEpochMs(t.UnixMilli())
	}
	return NormalizeEpochMs(raw)
}

// FormatDisplay renders an epoch-millisecond timestamp for the user in
// the given zone, e.g. "Mar 15, 2025, 6:30 PM IST".
func FormatDisplay(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format("Jan 2, 2006, 3:04 PM MST")
}

// FormatDisplayLong renders the full date and time, used in diagnostic
// responses, e.g. "03/15/2025, 6:30:00 PM IST".
func FormatDisplayLong(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format("01/02/2006, 3:04:05 PM MST")
}
