package failover

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var errConnRefused = errors.New("dial tcp 10.0.0.1:5432: connect: connection refused")

type fakeConn struct {
	pool string
	id   int64
}

type fakePool struct {
	name string

	mu         sync.Mutex
	healthy    bool
	probeDelay time.Duration
	hang       bool
	checkout   error
	closeErr   error

	probes    atomic.Int64
	checkouts atomic.Int64
	checkins  atomic.Int64
	closed    atomic.Bool
}

func newFakePool(name string, healthy bool) *fakePool {
	return &fakePool{name: name, healthy: healthy}
}

func (p *fakePool) setHealthy(healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = healthy
}

func (p *fakePool) Probe(ctx context.Context) error {
	p.probes.Add(1)

	p.mu.Lock()
	healthy, delay, hang := p.healthy, p.probeDelay, p.hang
	p.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !healthy {
		return errConnRefused
	}
	return nil
}

func (p *fakePool) Checkout(ctx context.Context) (*fakeConn, error) {
	p.mu.Lock()
	err := p.checkout
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &fakeConn{pool: p.name, id: p.checkouts.Add(1)}, nil
}

func (p *fakePool) Checkin(conn *fakeConn) error {
	p.checkins.Add(1)
	return nil
}

func (p *fakePool) Close() error {
	p.closed.Store(true)
	return p.closeErr
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// pastInterval steps just beyond one check interval
const pastInterval = DefaultCheckInterval + time.Millisecond

type stubReporter struct {
	kind   string
	status Status
}

func (s stubReporter) Kind() string   { return s.kind }
func (s stubReporter) Status() Status { return s.status }
