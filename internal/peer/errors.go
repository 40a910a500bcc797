package peer

import "errors"

// Sentinel errors, grounded on the teacher corpus's convention of
// package-level `var Err* = errors.New(...)` for pure domain errors.
var (
	// ErrInvalidIdentifier is returned when a peer id is outside [0,255].
	ErrInvalidIdentifier = errors.New("peer identifier must be in [0,255]")
	// ErrBindFailed is returned when the process cannot bind its sockets.
	ErrBindFailed = errors.New("failed to bind peer sockets")
)
