package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/constants"
)

func TestEvaluateSLA(t *testing.T) {
	tests := []struct {
		name        string
		status      constants.TaskStatus
		dueOffset   *time.Duration
		target      float64
		warning     *float64
		wantBreach  bool
		wantWarning bool
	}{
		{"no due date", constants.TaskStatusInProgress, nil, 8, ptrFloat(4), false, false},
		{"past due plus target", constants.TaskStatusInProgress, durPtr(-10 * time.Hour), 8, nil, true, false},
		{"past due within target", constants.TaskStatusInProgress, durPtr(-6 * time.Hour), 8, nil, false, false},
		{"exactly at breach instant", constants.TaskStatusInProgress, durPtr(-8 * time.Hour), 8, nil, false, false},
		{"zero target breaches once due passes", constants.TaskStatusOpen, durPtr(-time.Minute), 0, nil, true, false},
		{"completed is never breached", constants.TaskStatusCompleted, durPtr(-10 * time.Hour), 8, nil, false, false},
		{"cancelled is never breached", constants.TaskStatusCancelled, durPtr(-10 * time.Hour), 8, nil, false, false},
		{"inside warning window", constants.TaskStatusOpen, durPtr(2 * time.Hour), 8, ptrFloat(4), false, true},
		{"before warning window", constants.TaskStatusOpen, durPtr(6 * time.Hour), 8, ptrFloat(4), false, false},
		{"breach suppresses warning", constants.TaskStatusOpen, durPtr(-10 * time.Hour), 8, ptrFloat(4), true, false},
		{"past due not breached still warns", constants.TaskStatusOnHold, durPtr(-2 * time.Hour), 8, ptrFloat(4), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTestTask("task-1", tt.status)
			if tt.dueOffset != nil {
				task.DueDate = ptrTime(testNow.Add(*tt.dueOffset))
			}
			task.SLA.TargetResolutionHours = tt.target
			task.SLA.WarningThresholdHours = tt.warning

			state := EvaluateSLA(task, testNow)
			assert.Equal(t, tt.wantBreach, state.Breached, "breached")
			assert.Equal(t, tt.wantWarning, state.Warning, "warning")
			assert.False(t, state.Breached && state.Warning, "breach and warning are exclusive")
		})
	}
}

func TestEvaluateSLA_Instants(t *testing.T) {
	task := newTestTask("task-1", constants.TaskStatusInProgress)
	due := testNow.Add(-10 * time.Hour)
	task.DueDate = &due
	task.SLA.TargetResolutionHours = 8.5
	task.SLA.WarningThresholdHours = ptrFloat(2)

	state := EvaluateSLA(task, testNow)
	require.NotNil(t, state.DueAt)
	require.NotNil(t, state.BreachAt)
	require.NotNil(t, state.WarningAt)
	assert.Equal(t, due, *state.DueAt)
	assert.Equal(t, due.Add(8*time.Hour+30*time.Minute), *state.BreachAt)
	assert.Equal(t, due.Add(-2*time.Hour), *state.WarningAt)
	assert.Equal(t, 10*time.Hour, state.OverdueBy)
}

func TestIsOverdue(t *testing.T) {
	task := newTestTask("task-1", constants.TaskStatusOpen)
	assert.False(t, IsOverdue(task, testNow))

	task.DueDate = ptrTime(testNow.Add(-time.Minute))
	assert.True(t, IsOverdue(task, testNow))

	task.Status = constants.TaskStatusCancelled
	assert.False(t, IsOverdue(task, testNow))
	assert.False(t, IsOverdue(nil, testNow))
}

func durPtr(d time.Duration) *time.Duration { return &d }
