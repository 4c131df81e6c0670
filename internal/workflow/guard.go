package workflow

import (
	"fmt"
	"sync"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// Guard tracks which tasks have a mutation in flight. It never queues: a
// second caller for the same task is rejected with ErrBusy.
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{inFlight: make(map[string]struct{})}
}

// TryAcquire marks taskID in flight and returns the function that clears it.
// Returns ErrBusy when taskID is already in flight.
func (g *Guard) TryAcquire(taskID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[taskID]; busy {
		return nil, fmt.Errorf("task '%s': %w", taskID, tferrors.ErrBusy)
	}
	g.inFlight[taskID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, taskID)
			g.mu.Unlock()
		})
	}, nil
}

// TryAcquireAll acquires every id or none of them.
func (g *Guard) TryAcquireAll(taskIDs ...string) (func(), error) {
	releases := make([]func(), 0, len(taskIDs))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, id := range taskIDs {
		release, err := g.TryAcquire(id)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// InFlight reports whether taskID currently has a mutation in flight.
func (g *Guard) InFlight(taskID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[taskID]
	return busy
}
