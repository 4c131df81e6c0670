package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// occurrenceNamespace seeds the name-based UUIDs of spawned recurrence instances.
//
//nolint:gochecknoglobals // Fixed namespace, never mutated
var occurrenceNamespace = uuid.MustParse("6f1d5c2e-8a43-4b0e-9d71-3c5a2e9f4b18")

// NextOccurrence computes the next occurrence after from.
//
//	daily      from + interval days
//	weekly     from + 7*interval days
//	biweekly   from + 14*interval days
//	monthly    from + interval calendar months, clamped to the month's last day
//	quarterly  monthly with 3*interval
//
// Returns ErrInvalidRecurrence for an unknown pattern or an interval below 1.
func NextOccurrence(pattern constants.RecurrencePattern, interval int, from time.Time) (time.Time, error) {
	if interval < 1 {
		return time.Time{}, fmt.Errorf("%w: interval must be at least 1, got %d",
			tferrors.ErrInvalidRecurrence, interval)
	}

	switch pattern {
	case constants.RecurrenceDaily:
		return from.AddDate(0, 0, interval), nil
	case constants.RecurrenceWeekly:
		return from.AddDate(0, 0, 7*interval), nil
	case constants.RecurrenceBiweekly:
		return from.AddDate(0, 0, 14*interval), nil
	case constants.RecurrenceMonthly:
		return addMonthsClamped(from, interval), nil
	case constants.RecurrenceQuarterly:
		return addMonthsClamped(from, 3*interval), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown pattern %q", tferrors.ErrInvalidRecurrence, pattern)
	}
}

// addMonthsClamped adds n calendar months to t. Unlike time.AddDate it never
// overflows into the following month: Jan 31 + 1 month is the last day of February.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	// Day 0 of the month after the target is the target's last day.
	lastDay := time.Date(year, month+time.Month(n)+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month+time.Month(n), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// RecurrenceAnchor returns the instant the next occurrence is planned from:
// the completion time, else the due date, else now.
func RecurrenceAnchor(task *domain.Task, now time.Time) time.Time {
	switch {
	case task.CompletedAt != nil:
		return *task.CompletedAt
	case task.DueDate != nil:
		return *task.DueDate
	default:
		return now
	}
}

// ValidateRecurrence checks the pattern and interval of an enabled recurrence.
// A disabled recurrence is always valid.
func ValidateRecurrence(r domain.Recurrence) error {
	if !r.IsRecurring {
		return nil
	}
	_, err := NextOccurrence(r.Pattern, r.Interval, time.Time{})
	return err
}

// ScheduleRecurrence plans next_occurrence for a task whose recurrence is
// enabled, and clears it otherwise.
func ScheduleRecurrence(task *domain.Task, now time.Time) error {
	if !task.Recurrence.IsRecurring {
		task.Recurrence.NextOccurrence = nil
		return nil
	}
	next, err := NextOccurrence(task.Recurrence.Pattern, task.Recurrence.Interval, RecurrenceAnchor(task, now))
	if err != nil {
		return err
	}
	task.Recurrence.NextOccurrence = &next
	return nil
}

// StopRecurrence disables recurrence on the task. Instances that were already
// spawned are not touched. Returns false when recurrence was already off.
func StopRecurrence(task *domain.Task, actor string, now time.Time) bool {
	if !task.Recurrence.IsRecurring && task.Recurrence.NextOccurrence == nil {
		return false
	}
	if actor == "" {
		actor = constants.SystemActor
	}
	task.Recurrence.IsRecurring = false
	task.Recurrence.NextOccurrence = nil
	task.UpdatedAt = now
	task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{
		Action:  domain.ActivityRecurrenceStopped,
		ActorID: actor,
		At:      now,
	})
	return true
}

// OccurrenceKey identifies one completion of a recurring task.
func OccurrenceKey(taskID string, completedAt time.Time) string {
	return taskID + "@" + completedAt.UTC().Format(time.RFC3339Nano)
}

// OccurrenceID derives the instance id for key. Replaying the same completion
// yields the same id, so a store rejects the duplicate.
func OccurrenceID(key string) string {
	return uuid.NewSHA1(occurrenceNamespace, []byte(key)).String()
}

// SpawnInstance builds the next instance of a completed recurring task.
// The instance is due at the source's next_occurrence, starts Open with a
// reset checklist and an empty ledger, and keeps recurring on the same pattern.
func SpawnInstance(source *domain.Task, now time.Time) (*domain.Task, error) {
	if !source.Recurrence.IsRecurring || source.Recurrence.NextOccurrence == nil || source.CompletedAt == nil {
		return nil, fmt.Errorf("%w: task '%s' has no pending occurrence", tferrors.ErrValidation, source.ID)
	}

	key := OccurrenceKey(source.ID, *source.CompletedAt)
	due := *source.Recurrence.NextOccurrence

	inst := source.Clone()
	inst.ID = OccurrenceID(key)
	inst.Status = InitialStatus
	inst.DueDate = &due
	if source.StartDate != nil && source.DueDate != nil {
		start := due.Add(-source.DueDate.Sub(*source.StartDate))
		inst.StartDate = &start
	} else {
		inst.StartDate = nil
	}
	inst.CompletedAt = nil
	inst.Resolution = ""
	inst.ParentID = ""
	inst.SubTasks = nil
	inst.Escalations = nil
	inst.EscalationLevel = 0
	inst.EscalationResetAt = nil
	inst.Comments = nil
	for i := range inst.Checklist {
		inst.Checklist[i].IsCompleted = false
		inst.Checklist[i].CompletedAt = nil
	}

	next, err := NextOccurrence(source.Recurrence.Pattern, source.Recurrence.Interval, due)
	if err != nil {
		return nil, err
	}
	inst.Recurrence = domain.Recurrence{
		IsRecurring:    true,
		Pattern:        source.Recurrence.Pattern,
		Interval:       source.Recurrence.Interval,
		NextOccurrence: &next,
		SourceTaskID:   source.ID,
		OccurrenceKey:  key,
	}
	inst.AutoGenerated = domain.AutoGenerated{
		IsAutoGenerated: true,
		TriggerType:     constants.TriggerRecurrence,
	}
	inst.CreatedBy = constants.SystemActor
	inst.CreatedAt = now
	inst.UpdatedAt = now
	inst.ActivityLog = []domain.ActivityEntry{{
		Action:  domain.ActivityCreated,
		To:      InitialStatus,
		ActorID: constants.SystemActor,
		Detail:  "recurrence of " + source.ID,
		At:      now,
	}}
	return inst, nil
}
