package failover

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Checker is a manager driven by a Monitor
type Checker interface {
	Kind() string
	Check(ctx context.Context) State
}

// Monitor runs the health check of every manager on a timer so requests
// never wait for a probe. It implements suture.Service.
type Monitor struct {
	checkers []Checker
	interval time.Duration
	logger   *zap.Logger
}

// NewMonitor creates a monitor ticking every interval
func NewMonitor(interval time.Duration, logger *zap.Logger, checkers ...Checker) *Monitor {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checkers: checkers,
		interval: interval,
		logger:   logger,
	}
}

// Serve checks every manager once, then on each tick until ctx is done
func (m *Monitor) Serve(ctx context.Context) error {
	m.logger.Info("failover monitor started",
		zap.Duration("interval", m.interval),
		zap.Int("backends", len(m.checkers)))

	m.checkAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("failover monitor stopped")
			return nil
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

// String names the service in supervisor logs
func (m *Monitor) String() string {
	return "failover-monitor"
}

func (m *Monitor) checkAll(ctx context.Context) {
	for _, c := range m.checkers {
		if ctx.Err() != nil {
			return
		}
		state := c.Check(ctx)
		m.logger.Debug("backend checked",
			zap.String("backend", c.Kind()),
			zap.Stringer("state", state))
	}
}
