// Package lease coordinates the SLA sweep across processes so that no task is
// escalated twice for the same tick. A holder acquires a named lease, runs
// its sweep and releases it; competing holders get ErrLeaseHeld.
//
// Import rules:
//   - CAN import: internal/constants, internal/errors, internal/flock, std lib
//   - MUST NOT import: internal/workflow, internal/cli
package lease

import (
	"context"
	"fmt"
	"sync"
	"time"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// Release gives a lease back. It is safe to call more than once.
type Release func(ctx context.Context) error

// Lease hands out named, exclusive, time-bounded leases.
type Lease interface {
	// Acquire takes the named lease for at most ttl.
	// Returns ErrLeaseHeld when another owner holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (Release, error)
}

// Local is an in-process Lease. It is the default when sweeps never run in
// more than one process.
type Local struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// Ensure Local implements Lease interface.
var _ Lease = (*Local)(nil)

// NewLocal creates an empty Local lease table.
func NewLocal() *Local {
	return &Local{held: make(map[string]time.Time), now: time.Now}
}

// Acquire implements Lease.
func (l *Local) Acquire(ctx context.Context, name string, ttl time.Duration) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expires, ok := l.held[name]; ok && now.Before(expires) {
		return nil, fmt.Errorf("lease '%s': %w", name, tferrors.ErrLeaseHeld)
	}
	expires := now.Add(ttl)
	l.held[name] = expires

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[name].Equal(expires) {
				delete(l.held, name)
			}
		})
		return nil
	}, nil
}
