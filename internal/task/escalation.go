package task

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// EscalationPolicy carries the sweep-wide escalation settings.
type EscalationPolicy struct {
	// MinInterval is the minimum gap between two entries on the same task.
	// A sweep that runs more often than this cannot stack levels.
	MinInterval time.Duration
}

// CurrentEscalationLevel returns the task's current escalation level.
// Zero means not escalated since creation or since the last reset.
func CurrentEscalationLevel(task *domain.Task) int {
	if task == nil {
		return 0
	}
	return task.EscalationLevel
}

// latestEscalation returns the newest ledger entry recorded after the last
// reset, or nil.
func latestEscalation(task *domain.Task) *domain.Escalation {
	if len(task.Escalations) == 0 {
		return nil
	}
	latest := &task.Escalations[len(task.Escalations)-1]
	if task.EscalationResetAt != nil && !latest.At.After(*task.EscalationResetAt) {
		return nil
	}
	return latest
}

// ShouldEscalate reports whether MaybeEscalate would append an entry.
func ShouldEscalate(task *domain.Task, now time.Time, policy EscalationPolicy) bool {
	if !IsBreached(task, now) {
		return false
	}
	latest := latestEscalation(task)
	if latest == nil {
		return true
	}
	return latest.Acknowledged && now.Sub(latest.At) >= policy.MinInterval
}

// MaybeEscalate appends the next escalation level when the task is breached
// and its latest entry is absent or acknowledged. It appends at most one
// entry per call and nothing while policy.MinInterval has not elapsed since
// the latest entry. Returns the appended entry, or nil.
func MaybeEscalate(task *domain.Task, now time.Time, target, reason string, policy EscalationPolicy) *domain.Escalation {
	if !ShouldEscalate(task, now, policy) {
		return nil
	}

	state := EvaluateSLA(task, now)
	if reason == "" {
		reason = fmt.Sprintf("SLA breached: overdue by %s against a %sh resolution target",
			state.OverdueBy.Truncate(time.Minute),
			strconv.FormatFloat(task.SLA.TargetResolutionHours, 'f', -1, 64))
	}

	entry := domain.Escalation{
		Level:       task.EscalationLevel + 1,
		EscalatedTo: target,
		Reason:      reason,
		At:          now,
	}
	task.Escalations = append(task.Escalations, entry)
	task.EscalationLevel = entry.Level
	task.UpdatedAt = now
	task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{
		Action:  domain.ActivityEscalated,
		ActorID: constants.SystemActor,
		Detail:  fmt.Sprintf("level %d to %s", entry.Level, target),
		At:      now,
	})
	return &entry
}

// Acknowledge marks the newest unacknowledged entry at level, recorded since
// the last reset, as acknowledged. The current level is unchanged. Returns
// ErrEscalationNotFound when no such entry exists.
func Acknowledge(task *domain.Task, level int, actor string, now time.Time) (*domain.Escalation, error) {
	if actor == "" {
		actor = constants.SystemActor
	}
	for i := len(task.Escalations) - 1; i >= 0; i-- {
		e := &task.Escalations[i]
		if task.EscalationResetAt != nil && !e.At.After(*task.EscalationResetAt) {
			break
		}
		if e.Level != level || e.Acknowledged {
			continue
		}
		at := now
		e.Acknowledged = true
		e.AcknowledgedBy = actor
		e.AcknowledgedAt = &at
		task.UpdatedAt = now
		task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{
			Action:  domain.ActivityEscalationAcked,
			ActorID: actor,
			Detail:  fmt.Sprintf("level %d", level),
			At:      now,
		})
		acked := *e
		return &acked, nil
	}
	return nil, fmt.Errorf("task '%s' level %d: %w", task.ID, level, tferrors.ErrEscalationNotFound)
}

// resetEscalation drops the current level to zero once the task is no longer
// overdue. Ledger entries are kept.
func resetEscalation(task *domain.Task, now time.Time) {
	at := now
	task.EscalationLevel = 0
	task.EscalationResetAt = &at
}
