// Package task implements the task workflow engine core: the status graph,
// progress aggregation, recurrence planning, SLA evaluation and the
// escalation ledger. Functions here mutate a *domain.Task in place and never
// persist it; the workflow service owns locking, storage and events.
//
// This file implements the task state machine, which enforces valid state
// transitions and maintains an audit trail of all status changes.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors, internal/ctxutil, std lib
//   - MUST NOT import: internal/workflow, internal/cli
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/ctxutil"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// ValidTransitions defines all allowed state transitions in the task lifecycle.
// Format: from_status -> []to_statuses
//
//	Open         → In Progress, On Hold, Cancelled
//	In Progress  → Under Review, On Hold, Cancelled, Completed
//	Under Review → In Progress, Completed, On Hold
//	On Hold      → Open, In Progress, Cancelled
//	Completed    → Open (reopen)
//	Cancelled    → Open (reopen)
//
// No status is strictly terminal: Completed and Cancelled can be reopened.
//
//nolint:gochecknoglobals // Exported for testing and read-only lookup table
var ValidTransitions = map[constants.TaskStatus][]constants.TaskStatus{
	constants.TaskStatusOpen: {
		constants.TaskStatusInProgress,
		constants.TaskStatusOnHold,
		constants.TaskStatusCancelled,
	},
	constants.TaskStatusInProgress: {
		constants.TaskStatusUnderReview,
		constants.TaskStatusOnHold,
		constants.TaskStatusCancelled,
		constants.TaskStatusCompleted,
	},
	constants.TaskStatusUnderReview: {
		constants.TaskStatusInProgress,
		constants.TaskStatusCompleted,
		constants.TaskStatusOnHold,
	},
	constants.TaskStatusOnHold: {
		constants.TaskStatusOpen,
		constants.TaskStatusInProgress,
		constants.TaskStatusCancelled,
	},
	constants.TaskStatusCompleted: {constants.TaskStatusOpen},
	constants.TaskStatusCancelled: {constants.TaskStatusOpen},
}

// closedStatuses are the statuses in which SLA tracking stops.
//
//nolint:gochecknoglobals // Read-only lookup table
var closedStatuses = map[constants.TaskStatus]bool{
	constants.TaskStatusCompleted: true,
	constants.TaskStatusCancelled: true,
}

// InitialStatus is the only status a task can be created in.
const InitialStatus = constants.TaskStatusOpen

// CanTransition reports whether target is directly reachable from current.
// Same-status moves and unknown statuses are never valid.
func CanTransition(current, target constants.TaskStatus) bool {
	for _, candidate := range ValidTransitions[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsClosedStatus returns true for Completed and Cancelled. Closed tasks are
// excluded from SLA breach and escalation but may still be reopened.
func IsClosedStatus(status constants.TaskStatus) bool {
	return closedStatuses[status]
}

// IsKnownStatus reports whether status is part of the graph.
func IsKnownStatus(status constants.TaskStatus) bool {
	_, ok := ValidTransitions[status]
	return ok
}

// ValidTargets returns all statuses reachable from status in one step.
// Returns nil for unknown statuses.
func ValidTargets(status constants.TaskStatus) []constants.TaskStatus {
	targets, exists := ValidTransitions[status]
	if !exists {
		return nil
	}
	// Return a copy to prevent modification of the lookup table
	result := make([]constants.TaskStatus, len(targets))
	copy(result, targets)
	return result
}

// TransitionOptions carries the caller-supplied parts of a transition.
type TransitionOptions struct {
	// Actor is recorded in the activity log. Empty means the system.
	Actor string

	// Resolution is stored on the task when the target is Completed.
	Resolution string

	// At is the time of the transition. Zero means now.
	At time.Time
}

// TransitionOutcome reports the side effects of an applied transition.
type TransitionOutcome struct {
	From constants.TaskStatus
	To   constants.TaskStatus

	// LeftOverdue is true when the task was overdue before the transition
	// and is not afterwards; escalation bookkeeping was reset.
	LeftOverdue bool

	// NextOccurrence is set when completing a recurring task re-planned it.
	NextOccurrence *time.Time
}

// Transition validates and applies a state transition to the task.
// It records the transition in the task's activity log and updates timestamps.
// The caller is responsible for persisting the updated task.
//
// Returns an error if:
//   - ctx is canceled
//   - task is nil
//   - the transition is not an edge of the graph (wrapped ErrInvalidTransition);
//     the task is left unchanged in that case
func Transition(ctx context.Context, task *domain.Task, to constants.TaskStatus, opts TransitionOptions) (*TransitionOutcome, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task is nil", tferrors.ErrInvalidTransition)
	}

	from := task.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: cannot transition from %s to %s",
			tferrors.ErrInvalidTransition, from, to)
	}

	now := opts.At
	if now.IsZero() {
		now = time.Now().UTC()
	}
	actor := opts.Actor
	if actor == "" {
		actor = constants.SystemActor
	}

	// Plan recurrence before touching the task so a bad config leaves it unchanged.
	var next *time.Time
	if to == constants.TaskStatusCompleted && task.Recurrence.IsRecurring {
		n, err := NextOccurrence(task.Recurrence.Pattern, task.Recurrence.Interval, now)
		if err != nil {
			return nil, err
		}
		next = &n
	}

	wasOverdue := IsOverdue(task, now)

	task.Status = to
	task.UpdatedAt = now
	task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{
		Action:  domain.ActivityStatusChanged,
		From:    from,
		To:      to,
		ActorID: actor,
		Detail:  opts.Resolution,
		At:      now,
	})

	switch {
	case to == constants.TaskStatusCompleted:
		completedAt := now
		task.CompletedAt = &completedAt
		task.Resolution = opts.Resolution
	case to == constants.TaskStatusOpen && IsClosedStatus(from):
		task.CompletedAt = nil
		task.Resolution = ""
	}

	outcome := &TransitionOutcome{From: from, To: to}

	if wasOverdue && !IsOverdue(task, now) {
		resetEscalation(task, now)
		outcome.LeftOverdue = true
	}

	if next != nil {
		task.Recurrence.NextOccurrence = next
		task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{
			Action:  domain.ActivityRecurrenceScheduled,
			ActorID: constants.SystemActor,
			Detail:  next.Format(time.RFC3339),
			At:      now,
		})
		outcome.NextOccurrence = next
	}

	return outcome, nil
}
