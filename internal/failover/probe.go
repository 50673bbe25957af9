// internal/failover/probe.go
package failover

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultCheckInterval is the minimum spacing between two primary probes
	// of one manager.
	DefaultCheckInterval = 30 * time.Second

	// DefaultProbeTimeout bounds a single probe. It is also the upper limit
	// accepted for a configured timeout.
	DefaultProbeTimeout = 5 * time.Second
)

// Prober is the part of a pool the health probe needs
type Prober interface {
	Probe(ctx context.Context) error
}

// ProbeResult is the outcome of one probe
type ProbeResult struct {
	Healthy bool
	Latency time.Duration
	Err     error
}

// Probe runs p.Probe bounded by timeout. The caller's cancellation is not
// inherited so that a request that gives up early cannot mark a healthy
// backend as down. Any error, panic or timeout yields Healthy=false.
func Probe(ctx context.Context, p Prober, timeout time.Duration) ProbeResult {
	if timeout <= 0 || timeout > DefaultProbeTimeout {
		timeout = DefaultProbeTimeout
	}

	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("probe panicked: %v", r)
			}
		}()
		done <- p.Probe(probeCtx)
	}()

	var err error
	select {
	case err = <-done:
	case <-probeCtx.Done():
		err = fmt.Errorf("probe timed out after %s: %w", timeout, probeCtx.Err())
	}

	return ProbeResult{
		Healthy: err == nil,
		Latency: time.Since(start),
		Err:     err,
	}
}
