package failover

import "errors"

var (
	// ErrBackendUnavailable is returned for every access to a manager that
	// has neither a primary nor a fallback pool.
	ErrBackendUnavailable = errors.New("no usable backend configured")

	// ErrNotConfigured is returned by pool constructors when the backend has
	// no connection URI. Callers treat it as an absent pool, not a failure.
	ErrNotConfigured = errors.New("backend not configured")

	// ErrSessionReleased is returned when a session is released twice.
	ErrSessionReleased = errors.New("session already released")

	// ErrClosed is returned for access after Close.
	ErrClosed = errors.New("failover manager closed")
)
