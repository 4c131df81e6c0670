package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_IsUTC(t *testing.T) {
	now := RealClock{}.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestManual(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	m := NewManual(start)
	assert.Equal(t, start, m.Now())

	got := m.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), got)
	assert.Equal(t, got, m.Now())

	later := start.AddDate(0, 1, 0)
	m.Set(later)
	assert.Equal(t, later, m.Now())
}
