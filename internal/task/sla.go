package task

import (
	"time"

	"github.com/mrz1836/taskflow/internal/domain"
)

// SLAState is the derived SLA view of a task at one instant. It is computed
// on read and never persisted.
type SLAState struct {
	Breached bool `json:"breached"`
	Warning  bool `json:"warning"`

	DueAt     *time.Time `json:"due_at,omitempty"`
	BreachAt  *time.Time `json:"breach_at,omitempty"`
	WarningAt *time.Time `json:"warning_at,omitempty"`

	// OverdueBy is how far now is past the due date; zero when not past it.
	OverdueBy time.Duration `json:"overdue_by"`
}

// hours converts a fractional hour count to a duration.
func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// EvaluateSLA derives breach and warning state:
//
//	breached = status not Completed/Cancelled AND due date set AND now > due + target
//	warning  = !breached AND warning threshold set AND now > due - warning
//
// Tasks without a due date are never breached or warned.
func EvaluateSLA(task *domain.Task, now time.Time) SLAState {
	var state SLAState
	if task == nil || task.DueDate == nil {
		return state
	}

	due := *task.DueDate
	breachAt := due.Add(hours(task.SLA.TargetResolutionHours))
	state.DueAt = &due
	state.BreachAt = &breachAt
	if now.After(due) {
		state.OverdueBy = now.Sub(due)
	}

	if IsClosedStatus(task.Status) {
		return state
	}

	state.Breached = now.After(breachAt)

	if w := task.SLA.WarningThresholdHours; w != nil {
		warnAt := due.Add(-hours(*w))
		state.WarningAt = &warnAt
		state.Warning = !state.Breached && now.After(warnAt)
	}
	return state
}

// IsBreached is shorthand for EvaluateSLA(task, now).Breached.
func IsBreached(task *domain.Task, now time.Time) bool {
	return EvaluateSLA(task, now).Breached
}

// IsOverdue reports whether an open task is past its due date.
func IsOverdue(task *domain.Task, now time.Time) bool {
	return task != nil && task.DueDate != nil && !IsClosedStatus(task.Status) && now.After(*task.DueDate)
}
