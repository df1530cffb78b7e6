package racedomain

import "errors"

var (
	// ErrIdentityMismatch is returned when a result is reconciled with a
	// result belonging to another participant.
	ErrIdentityMismatch = errors.New("run result belongs to a different participant")

	ErrInvalidTimeText   = errors.New("invalid time text")
	ErrUnknownResultCode = errors.New("unknown result code")
	ErrUnknownGrouping   = errors.New("unknown grouping")
)
