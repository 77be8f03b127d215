package models

import "errors"

// Sentinel errors for the §7 ERROR HANDLING DESIGN taxonomy. Recoverable
// conditions (everything but IOError) are returned to the caller as empty
// results accompanied by one of these; IOError is fatal at startup.
var (
	// ErrInputMalformed: unparseable time, non-numeric coordinates, missing
	// feed columns. Rejected before work begins.
	ErrInputMalformed = errors.New("input malformed")

	// ErrOutOfService: no stops within max_walk_km of the query point.
	ErrOutOfService = errors.New("out of service area")

	// ErrUnreachable: target not reachable within budget, or not connected.
	ErrUnreachable = errors.New("unreachable")

	// ErrDataInconsistency: negative durations, NaN distances, missing shape
	// reference. The offending record is skipped and the caller continues.
	ErrDataInconsistency = errors.New("data inconsistency")

	// ErrIOError: missing artifact or land polygon. Fatal at startup.
	ErrIOError = errors.New("io error")
)
