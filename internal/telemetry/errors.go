package telemetry

import "errors"

// Error kinds callers are expected to branch on. Anything not matching one of
// these is an operational storage failure and is surfaced wrapped, unchanged
// and unretried.
var (
	// ErrNotFound means a station token or location id has no match.
	ErrNotFound = errors.New("not found")

	// ErrNoData means the query was well-formed and the entity exists, but it
	// has no matching readings. Distinct from ErrNotFound.
	ErrNoData = errors.New("no data")

	// ErrConflict means a uniqueness constraint rejected the write, e.g. a
	// duplicate station token on registration.
	ErrConflict = errors.New("already exists")
)
