package lease

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// leaseContract checks exclusivity and release for any Lease.
func leaseContract(t *testing.T, l Lease) {
	t.Helper()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "sla-sweep", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "sla-sweep", time.Minute)
	require.ErrorIs(t, err, tferrors.ErrLeaseHeld)

	other, err := l.Acquire(ctx, "other", time.Minute)
	require.NoError(t, err, "leases are per name")
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "release is idempotent")

	again, err := l.Acquire(ctx, "sla-sweep", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocal(t *testing.T) {
	leaseContract(t, NewLocal())
}

func TestLocal_Expires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocal()
	l.now = func() time.Time { return now }

	stale, err := l.Acquire(ctx, "sla-sweep", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	fresh, err := l.Acquire(ctx, "sla-sweep", time.Minute)
	require.NoError(t, err, "expired lease can be taken over")

	require.NoError(t, stale(ctx))
	_, err = l.Acquire(ctx, "sla-sweep", time.Minute)
	require.ErrorIs(t, err, tferrors.ErrLeaseHeld, "stale release does not free the new holder")
	require.NoError(t, fresh(ctx))
}

func TestFile(t *testing.T) {
	leaseContract(t, NewFile(t.TempDir()))
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	l := NewRedis("redis://"+mr.Addr(), "taskflow")
	t.Cleanup(func() { _ = l.Close() })

	leaseContract(t, l)
}

func TestRedis_ExpiredHolderCannotReleaseSuccessor(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	l := NewRedis("redis://"+mr.Addr(), "taskflow")
	t.Cleanup(func() { _ = l.Close() })

	stale, err := l.Acquire(ctx, "sla-sweep", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("taskflow:lease:sla-sweep"))

	mr.FastForward(2 * time.Second)
	fresh, err := l.Acquire(ctx, "sla-sweep", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("taskflow:lease:sla-sweep"), "stale token leaves the new holder's key")

	require.NoError(t, fresh(ctx))
	assert.False(t, mr.Exists("taskflow:lease:sla-sweep"))
}

func TestRedis_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	l := NewRedis("redis://"+addr, "")
	t.Cleanup(func() { _ = l.Close() })

	_, err = l.Acquire(context.Background(), "sla-sweep", time.Minute)
	require.ErrorIs(t, err, tferrors.ErrUnavailable)
}
