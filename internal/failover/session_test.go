package failover

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Release(t *testing.T) {
	primary := newFakePool("primary", true)
	clock := newFakeClock()
	mgr := newTestManager(primary, nil, WithClock(clock))

	session, err := mgr.Acquire(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, session.ID)
	assert.Equal(t, RolePrimary, session.Role)
	assert.Equal(t, clock.Now(), session.AcquiredAt)
	assert.False(t, session.Released())

	require.NoError(t, session.Release())
	assert.True(t, session.Released())
	assert.ErrorIs(t, session.Release(), ErrSessionReleased)
	assert.Equal(t, int64(1), primary.checkins.Load())
}

func TestSession_UniqueIDs(t *testing.T) {
	mgr := newTestManager(newFakePool("primary", true), nil, WithClock(newFakeClock()))

	a, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	defer a.Release()
	b, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	defer b.Release()

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a.Conn, b.Conn)
}

func TestSession_StaysBoundAfterFailover(t *testing.T) {
	primary := newFakePool("primary", true)
	fallback := newFakePool("fallback", true)
	clock := newFakeClock()
	mgr := newTestManager(primary, fallback, WithClock(clock))
	ctx := context.Background()

	inflight, err := mgr.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, RolePrimary, inflight.Role)

	primary.setHealthy(false)
	clock.Advance(pastInterval)
	next, err := mgr.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, RoleFallback, next.Role)

	require.NoError(t, inflight.Release())
	require.NoError(t, next.Release())
	assert.Equal(t, int64(1), primary.checkins.Load())
	assert.Equal(t, int64(1), fallback.checkins.Load())
}
