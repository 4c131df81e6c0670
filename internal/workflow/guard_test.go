package workflow

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

func TestGuard_TryAcquire(t *testing.T) {
	g := NewGuard()

	release, err := g.TryAcquire("t1")
	require.NoError(t, err)
	assert.True(t, g.InFlight("t1"))

	_, err = g.TryAcquire("t1")
	require.ErrorIs(t, err, tferrors.ErrBusy)
	assert.Contains(t, err.Error(), "t1")

	other, err := g.TryAcquire("t2")
	require.NoError(t, err, "other tasks are independent")
	other()

	release()
	release()
	assert.False(t, g.InFlight("t1"))

	again, err := g.TryAcquire("t1")
	require.NoError(t, err)
	again()
}

func TestGuard_StaleReleaseDoesNotFreeNewHolder(t *testing.T) {
	g := NewGuard()

	first, err := g.TryAcquire("t1")
	require.NoError(t, err)
	first()

	second, err := g.TryAcquire("t1")
	require.NoError(t, err)
	defer second()

	first()
	assert.True(t, g.InFlight("t1"), "a release only runs once")
}

func TestGuard_TryAcquireAll(t *testing.T) {
	g := NewGuard()

	busy, err := g.TryAcquire("b")
	require.NoError(t, err)

	_, err = g.TryAcquireAll("a", "b", "c")
	require.ErrorIs(t, err, tferrors.ErrBusy)
	assert.False(t, g.InFlight("a"), "partial acquisitions are rolled back")
	assert.False(t, g.InFlight("c"))

	busy()
	release, err := g.TryAcquireAll("a", "b", "c")
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		assert.True(t, g.InFlight(id))
	}
	release()
	for _, id := range []string{"a", "b", "c"} {
		assert.False(t, g.InFlight(id))
	}
}

func TestGuard_ConcurrentExclusive(t *testing.T) {
	g := NewGuard()
	var (
		wg       sync.WaitGroup
		holders  atomic.Int32
		maxSeen  atomic.Int32
		accepted atomic.Int32
	)

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.TryAcquire("hot")
			if err != nil {
				return
			}
			accepted.Add(1)
			n := holders.Add(1)
			for {
				m := maxSeen.Load()
				if n <= m || maxSeen.CompareAndSwap(m, n) {
					break
				}
			}
			holders.Add(-1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.GreaterOrEqual(t, accepted.Load(), int32(1))
}
