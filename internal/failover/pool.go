package failover

import (
	"context"
	"time"
)

// Pool is a pooled client for one backend instance. C is the handle a
// caller holds for one unit of work; it goes back to the pool on Checkin.
//
// Implementations must be safe for concurrent use. A manager only decides
// which pool to use and never touches pool internals.
type Pool[C any] interface {
	// Probe performs a minimal read-only round trip.
	Probe(ctx context.Context) error
	// Checkout takes a connection out of the pool.
	Checkout(ctx context.Context) (C, error)
	// Checkin returns a connection taken by Checkout.
	Checkin(conn C) error
	// Close releases every connection of the pool.
	Close() error
}

// Clock supplies the wall-clock time used for throttling health checks
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
