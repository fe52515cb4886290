package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Callers wrap these with %w so boundaries can map them without leaking
// infrastructure details.
var (
	// ErrInvalidTimestamp marks a match time that failed normalization:
	// unparseable, non-positive, or outside the plausible year range.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrStoreUnavailable marks any failed write to the remote
	// notification store. Reads fail open instead of returning this.
	ErrStoreUnavailable = errors.New("notification store unavailable")
)
