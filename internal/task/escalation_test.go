package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

func breachedTask() *domain.Task {
	task := newTestTask("task-1", constants.TaskStatusInProgress)
	task.DueDate = ptrTime(testNow.Add(-10 * time.Hour))
	task.SLA.TargetResolutionHours = 8
	task.AssignedTo = "agent-1"
	return task
}

func TestMaybeEscalate_AppendsFirstLevel(t *testing.T) {
	task := breachedTask()

	entry := MaybeEscalate(task, testNow, "manager-1", "", EscalationPolicy{})
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Level)
	assert.Equal(t, "manager-1", entry.EscalatedTo)
	assert.Contains(t, entry.Reason, "SLA breached")
	assert.Contains(t, entry.Reason, "8h")
	assert.False(t, entry.Acknowledged)
	assert.Equal(t, 1, CurrentEscalationLevel(task))
	assert.Len(t, task.Escalations, 1)
	assert.Equal(t, domain.ActivityEscalated, task.ActivityLog[len(task.ActivityLog)-1].Action)
}

func TestMaybeEscalate_NotBreached(t *testing.T) {
	task := breachedTask()
	task.DueDate = ptrTime(testNow.Add(-time.Hour))

	assert.Nil(t, MaybeEscalate(task, testNow, "manager-1", "", EscalationPolicy{}))
	assert.Empty(t, task.Escalations)
}

func TestMaybeEscalate_IdempotentUntilAcknowledged(t *testing.T) {
	task := breachedTask()
	policy := EscalationPolicy{MinInterval: 5 * time.Minute}

	require.NotNil(t, MaybeEscalate(task, testNow, "manager-1", "", policy))
	assert.Nil(t, MaybeEscalate(task, testNow, "manager-1", "", policy), "same tick")
	assert.Nil(t, MaybeEscalate(task, testNow.Add(time.Hour), "manager-1", "", policy), "unacknowledged")
	assert.Len(t, task.Escalations, 1)

	_, err := Acknowledge(task, 1, "manager-1", testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, CurrentEscalationLevel(task), "acknowledge keeps the level")

	assert.Nil(t, MaybeEscalate(task, testNow.Add(2*time.Minute), "manager-1", "", policy), "inside min interval")

	entry := MaybeEscalate(task, testNow.Add(10*time.Minute), "director-1", "still overdue", policy)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Level)
	assert.Equal(t, "still overdue", entry.Reason)
	assert.Equal(t, 2, CurrentEscalationLevel(task))
}

func TestMaybeEscalate_RestartsAfterReset(t *testing.T) {
	ctx := context.Background()
	task := breachedTask()
	require.NotNil(t, MaybeEscalate(task, testNow, "manager-1", "", EscalationPolicy{}))

	// Complete then reopen: the level resets and the unacknowledged
	// pre-reset entry no longer blocks a new escalation.
	_, err := Transition(ctx, task, constants.TaskStatusCompleted, TransitionOptions{At: testNow.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 0, CurrentEscalationLevel(task))

	_, err = Transition(ctx, task, constants.TaskStatusOpen, TransitionOptions{At: testNow.Add(2 * time.Minute)})
	require.NoError(t, err)

	entry := MaybeEscalate(task, testNow.Add(3*time.Minute), "manager-1", "", EscalationPolicy{})
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Level)
	assert.Len(t, task.Escalations, 2, "ledger is append-only")
}

func TestAcknowledge(t *testing.T) {
	task := breachedTask()
	require.NotNil(t, MaybeEscalate(task, testNow, "manager-1", "", EscalationPolicy{}))

	acked, err := Acknowledge(task, 1, "manager-1", testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)
	assert.Equal(t, "manager-1", acked.AcknowledgedBy)
	require.NotNil(t, acked.AcknowledgedAt)
	assert.True(t, task.Escalations[0].Acknowledged)

	_, err = Acknowledge(task, 1, "manager-1", testNow)
	require.ErrorIs(t, err, tferrors.ErrEscalationNotFound, "already acknowledged")

	_, err = Acknowledge(task, 3, "manager-1", testNow)
	require.ErrorIs(t, err, tferrors.ErrNotFound)
}

func TestAcknowledge_IgnoresEntriesBeforeReset(t *testing.T) {
	ctx := context.Background()
	task := breachedTask()
	require.NotNil(t, MaybeEscalate(task, testNow, "manager-1", "", EscalationPolicy{}))

	_, err := Transition(ctx, task, constants.TaskStatusCompleted, TransitionOptions{At: testNow.Add(time.Minute)})
	require.NoError(t, err)
	_, err = Transition(ctx, task, constants.TaskStatusOpen, TransitionOptions{At: testNow.Add(2 * time.Minute)})
	require.NoError(t, err)

	_, err = Acknowledge(task, 1, "manager-1", testNow.Add(3*time.Minute))
	require.ErrorIs(t, err, tferrors.ErrEscalationNotFound, "only a pre-reset entry exists")

	require.NotNil(t, MaybeEscalate(task, testNow.Add(4*time.Minute), "manager-1", "", EscalationPolicy{}))
	acked, err := Acknowledge(task, 1, "manager-1", testNow.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(4*time.Minute), acked.At)

	_, err = Acknowledge(task, 1, "manager-1", testNow.Add(6*time.Minute))
	require.ErrorIs(t, err, tferrors.ErrEscalationNotFound)
	assert.False(t, task.Escalations[0].Acknowledged, "pre-reset entry is left alone")
	assert.True(t, task.Escalations[1].Acknowledged)
}
