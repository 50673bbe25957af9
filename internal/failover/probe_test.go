package failover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type proberFunc func(ctx context.Context) error

func (f proberFunc) Probe(ctx context.Context) error { return f(ctx) }

func TestProbe(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		res := Probe(context.Background(), proberFunc(func(ctx context.Context) error {
			return nil
		}), time.Second)

		assert.True(t, res.Healthy)
		assert.NoError(t, res.Err)
	})

	t.Run("error is unhealthy", func(t *testing.T) {
		res := Probe(context.Background(), proberFunc(func(ctx context.Context) error {
			return errConnRefused
		}), time.Second)

		assert.False(t, res.Healthy)
		assert.ErrorIs(t, res.Err, errConnRefused)
	})

	t.Run("timeout is unhealthy", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		start := time.Now()
		res := Probe(context.Background(), proberFunc(func(ctx context.Context) error {
			<-release
			return nil
		}), 30*time.Millisecond)

		assert.False(t, res.Healthy)
		assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("panic is unhealthy", func(t *testing.T) {
		res := Probe(context.Background(), proberFunc(func(ctx context.Context) error {
			panic("driver bug")
		}), time.Second)

		assert.False(t, res.Healthy)
		assert.Contains(t, res.Err.Error(), "driver bug")
	})

	t.Run("parent cancellation is not inherited", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := Probe(ctx, proberFunc(func(ctx context.Context) error {
			return ctx.Err()
		}), time.Second)

		assert.True(t, res.Healthy)
	})

	t.Run("deadline is capped", func(t *testing.T) {
		var remaining time.Duration
		Probe(context.Background(), proberFunc(func(ctx context.Context) error {
			deadline, ok := ctx.Deadline()
			if !ok {
				return errors.New("no deadline")
			}
			remaining = time.Until(deadline)
			return nil
		}), time.Hour)

		assert.LessOrEqual(t, remaining, DefaultProbeTimeout)
		assert.Greater(t, remaining, time.Duration(0))
	})
}
