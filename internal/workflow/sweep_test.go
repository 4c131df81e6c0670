package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/lease"
)

func (e *testEnv) seedBreached(t *testing.T, id, assignee string) {
	t.Helper()
	e.seed(t, id, constants.TaskStatusInProgress, func(tk *domain.Task) {
		tk.DueDate = ptrTime(testNow.Add(-10 * time.Hour))
		tk.SLA.TargetResolutionHours = 8
		tk.AssignedTo = assignee
	})
}

func TestService_Sweep(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedBreached(t, "b1", "agent-1")
	env.seed(t, "healthy", constants.TaskStatusInProgress, func(tk *domain.Task) {
		tk.DueDate = ptrTime(testNow.Add(time.Hour))
	})

	report, err := env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Breached)
	assert.Equal(t, []string{"b1"}, report.Escalated)

	got, err := env.svc.Get(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got.Escalations, 1)
	assert.Equal(t, "lead-1", got.Escalations[0].EscalatedTo)
	assert.Equal(t, 1, got.EscalationLevel)

	ev := env.events.last()
	assert.Equal(t, constants.EventEscalationRaised, ev.Type)
	assert.Equal(t, constants.SystemActor, ev.ActorID)
	assert.Equal(t, "1", ev.Detail["level"])
}

func TestService_Sweep_IdempotentPerTick(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedBreached(t, "b1", "agent-1")

	_, err := env.svc.Sweep(ctx)
	require.NoError(t, err)
	report, err := env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Escalated, "same instant appends nothing")
	assert.Equal(t, 1, report.Breached)

	env.clock.Advance(time.Hour)
	report, err = env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Escalated, "unacknowledged entry blocks the next level")

	got, err := env.svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, got.Escalations, 1)
}

func TestService_Sweep_EscalationChain(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedBreached(t, "b1", "agent-1")

	expected := []string{"lead-1", "director-1", "director-1"}
	for level, target := range expected {
		report, err := env.svc.Sweep(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"b1"}, report.Escalated, "level %d", level+1)

		got, err := env.svc.Acknowledge(ctx, "b1", level+1, target)
		require.NoError(t, err)
		assert.Equal(t, target, got.Escalations[level].EscalatedTo)
		env.clock.Advance(10 * time.Minute)
	}

	_, err := env.svc.Acknowledge(ctx, "b1", 1, "lead-1")
	require.ErrorIs(t, err, tferrors.ErrEscalationNotFound)
}

func TestService_Sweep_DefaultTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultEscalationTarget = "ops-desk"
	env := newTestEnv(t, nil, WithConfig(cfg))
	env.seedBreached(t, "unowned", "")
	env.seedBreached(t, "stranger", "not-in-directory")

	_, err := env.svc.Sweep(context.Background())
	require.NoError(t, err)

	for _, id := range []string{"unowned", "stranger"} {
		got, err := env.svc.Get(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, got.Escalations, 1)
		assert.Equal(t, "ops-desk", got.Escalations[0].EscalatedTo, id)
	}
}

func TestService_Sweep_UnresolvedTarget(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedBreached(t, "unowned", "")

	_, err := env.svc.Sweep(context.Background())
	require.NoError(t, err)

	got, err := env.svc.Get(context.Background(), "unowned")
	require.NoError(t, err)
	require.Len(t, got.Escalations, 1)
	assert.Equal(t, UnresolvedEscalationTarget, got.Escalations[0].EscalatedTo)
}

func TestService_Sweep_SkipsBusyTasks(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedBreached(t, "b1", "agent-1")

	release, err := env.svc.guard.TryAcquire("b1")
	require.NoError(t, err)

	report, err := env.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, report.Skipped)
	assert.Empty(t, report.Escalated)
	assert.Empty(t, report.Failed)

	release()
	report, err = env.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, report.Escalated, "picked up by the next sweep")
}

func TestService_Sweep_ResetAfterLeavingOverdue(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedBreached(t, "b1", "agent-1")

	_, err := env.svc.Sweep(ctx)
	require.NoError(t, err)

	_, err = env.svc.Transition(ctx, "b1", constants.TaskStatusCompleted, TransitionRequest{})
	require.NoError(t, err)
	got, err := env.svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Zero(t, got.EscalationLevel)
	assert.Len(t, got.Escalations, 1, "entries are kept")

	report, err := env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Breached, "completed tasks are never breached")
}

func TestSweeper_RunOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedBreached(t, "b1", "agent-1")
	local := lease.NewLocal()
	sweeper := NewSweeper(env.svc, local, 0, 0, zerolog.Nop())

	report, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, report.Escalated)

	held, err := local.Acquire(context.Background(), constants.SweepLeaseName, time.Minute)
	require.NoError(t, err)
	_, err = sweeper.RunOnce(context.Background())
	require.ErrorIs(t, err, tferrors.ErrLeaseHeld)
	require.NoError(t, held(context.Background()))

	_, err = sweeper.RunOnce(context.Background())
	require.NoError(t, err, "lease released after each run")
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedBreached(t, "b1", "agent-1")
	sweeper := NewSweeper(env.svc, lease.NewLocal(), 10*time.Millisecond, time.Second, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, sweeper.Run(ctx))

	got, err := env.svc.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Len(t, got.Escalations, 1, "repeated ticks at one instant escalate once")
}

func TestSweeper_WithInterval(t *testing.T) {
	env := newTestEnv(t, nil)
	base := NewSweeper(env.svc, lease.NewLocal(), time.Minute, 0, zerolog.Nop())

	faster := base.WithInterval(5 * time.Second)
	assert.Equal(t, 5*time.Second, faster.interval)
	assert.Equal(t, time.Minute, base.interval, "original is unchanged")
	assert.Equal(t, time.Minute, base.WithInterval(0).interval, "zero keeps the current interval")
}
