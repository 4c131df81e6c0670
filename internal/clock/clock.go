// Package clock provides an abstraction for time operations to improve testability.
// SLA evaluation, escalation sweeps and recurrence planning all read the
// current time through Clock, so tests can pin or advance it.
package clock

import (
	"sync"
	"time"
)

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time in UTC.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a Clock whose time only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock reading t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now returns the clock's current reading.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new reading.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// Ensure implementations satisfy Clock.
var (
	_ Clock = RealClock{}
	_ Clock = (*Manual)(nil)
)
