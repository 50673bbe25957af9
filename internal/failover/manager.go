// internal/failover/manager.go
package failover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Labels are the human-readable names reported as current_db
type Labels struct {
	Primary  string
	Fallback string
}

// Option configures a Manager
type Option func(*options)

type options struct {
	logger        *zap.Logger
	clock         Clock
	interval      time.Duration
	timeout       time.Duration
	metrics       *Metrics
	labels        Labels
	checkOnAccess bool
}

// WithLogger sets the manager's logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the time source used by the check throttle
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithCheckInterval sets the minimum spacing between two primary probes
func WithCheckInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithProbeTimeout sets the probe timeout, capped at DefaultProbeTimeout
func WithProbeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 && d <= DefaultProbeTimeout {
			o.timeout = d
		}
	}
}

// WithMetrics records probes, transitions and sessions on m
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLabels sets the names reported as current_db for each role
func WithLabels(l Labels) Option {
	return func(o *options) {
		if l.Primary != "" {
			o.labels.Primary = l.Primary
		}
		if l.Fallback != "" {
			o.labels.Fallback = l.Fallback
		}
	}
}

// WithCheckOnAccess controls whether ActivePool runs the throttled check.
// Disable it when a Monitor drives Check in the background.
func WithCheckOnAccess(enabled bool) Option {
	return func(o *options) {
		o.checkOnAccess = enabled
	}
}

// Manager chooses between a primary and a fallback pool of one backend kind.
// A Manager is safe for concurrent use and is meant to live for the whole
// process.
type Manager[C any] struct {
	kind     string
	primary  Pool[C]
	fallback Pool[C]
	opts     options
	limiter  *rate.Limiter

	// mu serializes the throttled check and pool selection
	mu             sync.Mutex
	state          State
	primaryHealthy bool
	lastCheck      time.Time
	closed         bool

	subMu       sync.RWMutex
	subscribers []func(Event)
}

// New creates a manager for kind. A nil primary or fallback means that pool
// is not configured; with both nil the manager is Unusable for good.
func New[C any](kind string, primary, fallback Pool[C], opts ...Option) *Manager[C] {
	o := options{
		logger:        zap.NewNop(),
		clock:         systemClock{},
		interval:      DefaultCheckInterval,
		timeout:       DefaultProbeTimeout,
		labels:        Labels{Primary: RolePrimary.String(), Fallback: RoleFallback.String()},
		checkOnAccess: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager[C]{
		kind:     kind,
		primary:  primary,
		fallback: fallback,
		opts:     o,
		limiter:  rate.NewLimiter(rate.Every(o.interval), 1),
	}

	switch {
	case primary != nil:
		m.state = StateUsingPrimary
		m.primaryHealthy = true
	case fallback != nil:
		m.state = StateUsingFallback
		o.logger.Warn("primary not configured, using fallback",
			zap.String("backend", kind),
			zap.String("fallback", o.labels.Fallback))
	default:
		m.state = StateUnusable
		o.logger.Error("no pool configured, backend unusable",
			zap.String("backend", kind))
	}
	o.metrics.setState(kind, m.state)

	return m
}

// Kind returns the backend kind this manager serves
func (m *Manager[C]) Kind() string {
	return m.kind
}

// State returns the current state
func (m *Manager[C]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// UsingPrimary reports whether the primary pool is active
func (m *Manager[C]) UsingPrimary() bool {
	return m.State() == StateUsingPrimary
}

// Subscribe registers fn for transition events. fn runs on the goroutine
// that caused the transition, after the manager lock is released.
func (m *Manager[C]) Subscribe(fn func(Event)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// ActivePool runs the throttled health check and returns the pool to use.
// It fails with ErrBackendUnavailable when no pool is configured.
func (m *Manager[C]) ActivePool(ctx context.Context) (Pool[C], Role, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, 0, fmt.Errorf("%s: %w", m.kind, ErrClosed)
	}

	var events []Event
	if m.opts.checkOnAccess {
		events = m.checkLocked(ctx, false)
	}
	pool, role, err := m.selectLocked()
	m.mu.Unlock()

	m.publish(events)
	return pool, role, err
}

// Check probes the primary now, without handing out a pool, and returns the
// resulting state. It is not throttled: the caller's schedule (a Monitor
// ticking once per interval) sets the probe rate. A Check still counts as
// the interval's probe for the on-access path.
func (m *Manager[C]) Check(ctx context.Context) State {
	m.mu.Lock()
	if m.closed {
		state := m.state
		m.mu.Unlock()
		return state
	}
	events := m.checkLocked(ctx, true)
	state := m.state
	m.mu.Unlock()

	m.publish(events)
	return state
}

// Acquire checks out a connection from the active pool. The checkout runs
// outside the manager lock.
func (m *Manager[C]) Acquire(ctx context.Context) (*Session[C], error) {
	pool, role, err := m.ActivePool(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Checkout(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s %s checkout: %w", m.kind, role, err)
	}

	m.opts.metrics.recordSession(m.kind, role)
	return newSession(pool, role, conn, m.opts.clock.Now()), nil
}

// Do runs fn with a connection from the active pool and releases it on
// every exit path, including a panic in fn. fn's error is returned as is.
func (m *Manager[C]) Do(ctx context.Context, fn func(ctx context.Context, conn C) error) (err error) {
	session, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := session.Release(); releaseErr != nil && err == nil {
			err = fmt.Errorf("%s release: %w", m.kind, releaseErr)
		}
	}()

	return fn(ctx, session.Conn)
}

// Status returns a snapshot of the manager
func (m *Manager[C]) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Backend:           m.kind,
		UsingPrimary:      m.state == StateUsingPrimary,
		PrimaryAvailable:  m.primary != nil,
		FallbackAvailable: m.fallback != nil,
		State:             m.state,
		CurrentDB:         CurrentDBNone,
	}
	if m.primary != nil {
		healthy := m.primaryHealthy
		s.PrimaryHealthy = &healthy
	}
	if !m.lastCheck.IsZero() {
		last := m.lastCheck
		s.LastCheck = &last
	}
	switch m.state {
	case StateUsingPrimary:
		s.CurrentDB = m.opts.labels.Primary
	case StateUsingFallback:
		s.CurrentDB = m.opts.labels.Fallback
	}
	return s
}

// Close closes both pools. Access after Close fails with ErrClosed.
func (m *Manager[C]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var result error
	if m.primary != nil {
		if err := m.primary.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s primary: %w", m.kind, err))
		}
	}
	if m.fallback != nil {
		if err := m.fallback.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s fallback: %w", m.kind, err))
		}
	}
	return result
}

// checkLocked probes the primary and applies the transition rules. Unless
// force is set it probes at most once per interval. Callers must hold m.mu.
func (m *Manager[C]) checkLocked(ctx context.Context, force bool) []Event {
	if m.primary == nil {
		return nil
	}

	now := m.opts.clock.Now()
	if !m.limiter.AllowN(now, 1) && !force {
		return nil
	}
	m.lastCheck = now

	res := Probe(ctx, m.primary, m.opts.timeout)
	m.opts.metrics.observeProbe(m.kind, res)
	m.primaryHealthy = res.Healthy

	if !res.Healthy {
		m.opts.logger.Debug("primary probe failed",
			zap.String("backend", m.kind),
			zap.Duration("latency", res.Latency),
			zap.Error(res.Err))
	}

	switch m.state {
	case StateUsingFallback:
		if res.Healthy {
			return []Event{m.transitionLocked(StateUsingPrimary, EventPrimaryRestored, now, nil)}
		}
	case StateUsingPrimary:
		if res.Healthy {
			return nil
		}
		m.opts.logger.Warn("primary unhealthy",
			zap.String("backend", m.kind),
			zap.String("primary", m.opts.labels.Primary),
			zap.Bool("fallback_available", m.fallback != nil))
		if m.fallback != nil {
			return []Event{m.transitionLocked(StateUsingFallback, EventPrimaryLost, now, res.Err)}
		}
	}
	return nil
}

func (m *Manager[C]) transitionLocked(to State, typ EventType, now time.Time, cause error) Event {
	from := m.state
	m.state = to
	m.opts.metrics.recordTransition(m.kind, to)
	m.opts.metrics.setState(m.kind, to)

	m.opts.logger.Info("switched active pool",
		zap.String("backend", m.kind),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("current_db", m.labelLocked()))

	return Event{
		Type:      typ,
		Backend:   m.kind,
		From:      from,
		To:        to,
		Timestamp: now,
		Err:       cause,
	}
}

func (m *Manager[C]) selectLocked() (Pool[C], Role, error) {
	switch m.state {
	case StateUsingPrimary:
		return m.primary, RolePrimary, nil
	case StateUsingFallback:
		return m.fallback, RoleFallback, nil
	default:
		return nil, 0, fmt.Errorf("%s: %w", m.kind, ErrBackendUnavailable)
	}
}

func (m *Manager[C]) labelLocked() string {
	role, ok := m.state.activeRole()
	if !ok {
		return CurrentDBNone
	}
	if role == RolePrimary {
		return m.opts.labels.Primary
	}
	return m.opts.labels.Fallback
}

func (m *Manager[C]) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	m.subMu.RLock()
	subscribers := make([]func(Event), len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.subMu.RUnlock()

	for _, ev := range events {
		for _, fn := range subscribers {
			fn(ev)
		}
	}
}
