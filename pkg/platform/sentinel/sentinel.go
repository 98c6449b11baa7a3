package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, object storage and upstream
// clients return these (optionally wrapped) and services translate them into
// domain errors:
//   - ErrNotFound: row or object does not exist
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrInvalidState: entity is in the wrong state for the requested transition
//   - ErrUnavailable: backing service unreachable or timed out
//
// Input validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
