package failover

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is one unit of work bound to the pool that was active when it
// was acquired. It must not be shared between concurrent requests.
type Session[C any] struct {
	ID         uuid.UUID
	Role       Role
	Conn       C
	AcquiredAt time.Time

	pool     Pool[C]
	released atomic.Bool
}

func newSession[C any](pool Pool[C], role Role, conn C, now time.Time) *Session[C] {
	return &Session[C]{
		ID:         uuid.New(),
		Role:       role,
		Conn:       conn,
		AcquiredAt: now,
		pool:       pool,
	}
}

// Release returns the connection to its pool. Only the first call does so;
// later calls return ErrSessionReleased.
func (s *Session[C]) Release() error {
	if !s.released.CompareAndSwap(false, true) {
		return ErrSessionReleased
	}
	return s.pool.Checkin(s.Conn)
}

// Released reports whether Release has been called
func (s *Session[C]) Released() bool {
	return s.released.Load()
}
