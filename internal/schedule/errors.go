package schedule

import "errors"

// Store error kinds. Callers branch with errors.Is and translate each kind
// into a distinct user-facing rejection message.
var (
	// ErrCorrupt means the schedule file exists but cannot be parsed into the
	// expected shape. The store never overwrites a corrupt file with defaults;
	// that would destroy the operator's hand-edited data.
	ErrCorrupt = errors.New("schedule file corrupt")

	// ErrWrite means persisting failed (disk full, permissions). The
	// in-memory schedule is rolled back to its pre-mutation state.
	ErrWrite = errors.New("schedule write failed")

	// ErrInvalidDay means the weekday key is not one of the canonical seven.
	ErrInvalidDay = errors.New("invalid day")

	// ErrInvalidEntry means one or more required entry fields are empty.
	// The wrapped message names every missing field.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrNotFound means a remove target did not match any entry.
	ErrNotFound = errors.New("entry not found")
)
