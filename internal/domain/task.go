// Package domain provides shared domain types for the taskflow workflow engine.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain

import (
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
)

// Task is the workflow aggregate root. It exclusively owns its checklist,
// escalation ledger, comments and activity log. Sub-tasks, the linked entity
// and the parent are weak references to records with their own lifecycle.
//
// Example JSON representation:
//
//	{
//	    "id": "5b0f3c1e-2d7a-4c59-9a43-3f1c8f0d2b6e",
//	    "title": "Collect booking amount for A-1204",
//	    "category": "Payment",
//	    "priority": "High",
//	    "status": "In Progress",
//	    "due_date": "2024-03-01T10:00:00Z",
//	    "sla": {"target_resolution_hours": 8},
//	    "schema_version": 1
//	}
type Task struct {
	// ID is the opaque unique identifier for the task.
	ID string `json:"id"`

	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Category    constants.Category `json:"category"`
	Priority    constants.Priority `json:"priority"`

	// Tags is a set: trimmed, de-duplicated and sorted on every write.
	Tags []string `json:"tags,omitempty"`

	// Status is mutated only through the status graph.
	Status constants.TaskStatus `json:"status"`

	StartDate *time.Time `json:"start_date,omitempty"`

	// DueDate drives overdue and SLA computation.
	DueDate *time.Time `json:"due_date,omitempty"`

	// CompletedAt is set on entering Completed and cleared on reopen.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Resolution is the free-text note supplied when completing.
	Resolution string `json:"resolution,omitempty"`

	// AssignedTo references a user in the external directory.
	AssignedTo string `json:"assigned_to,omitempty"`

	LinkedEntity *LinkedEntity `json:"linked_entity,omitempty"`

	// ParentID is set on tasks linked as a sub-task of another task.
	ParentID string `json:"parent_id,omitempty"`

	Checklist []ChecklistItem `json:"checklist,omitempty"`
	SubTasks  []SubTaskRef    `json:"sub_tasks,omitempty"`

	Recurrence Recurrence `json:"recurrence"`
	SLA        SLAConfig  `json:"sla"`

	// Escalations is append-only.
	Escalations []Escalation `json:"escalations,omitempty"`

	// EscalationLevel is the current escalation level. It only drops (to zero)
	// when the task leaves an overdue condition.
	EscalationLevel int `json:"escalation_level"`

	// EscalationResetAt records when the task last left an overdue condition.
	// Ledger entries at or before this instant no longer gate re-escalation.
	EscalationResetAt *time.Time `json:"escalation_reset_at,omitempty"`

	// AutoGenerated is provenance only and never changes after creation.
	AutoGenerated AutoGenerated `json:"auto_generated"`

	Comments    []Comment       `json:"comments,omitempty"`
	ActivityLog []ActivityEntry `json:"activity_log,omitempty"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// SchemaVersion indicates the version of the Task struct schema.
	SchemaVersion int `json:"schema_version"`
}

// LinkedEntity is a navigation-only back reference to a CRM record.
type LinkedEntity struct {
	EntityType   constants.EntityType `json:"entity_type"`
	EntityID     string               `json:"entity_id"`
	DisplayLabel string               `json:"display_label,omitempty"`
}

// ChecklistItem is one completable line item owned by a task.
type ChecklistItem struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Order       int        `json:"order"`
}

// SubTaskRef is a weak reference to another task plus denormalized display fields.
type SubTaskRef struct {
	TaskID  string               `json:"task_id"`
	Title   string               `json:"title"`
	Status  constants.TaskStatus `json:"status"`
	DueDate *time.Time           `json:"due_date,omitempty"`
}

// Recurrence configures automatic re-scheduling of a task.
// NextOccurrence is present if and only if IsRecurring is true.
type Recurrence struct {
	IsRecurring    bool                        `json:"is_recurring"`
	Pattern        constants.RecurrencePattern `json:"pattern,omitempty"`
	Interval       int                         `json:"interval,omitempty"`
	NextOccurrence *time.Time                  `json:"next_occurrence,omitempty"`

	// SourceTaskID and OccurrenceKey are set on instances spawned from a
	// completed recurring task.
	SourceTaskID  string `json:"source_task_id,omitempty"`
	OccurrenceKey string `json:"occurrence_key,omitempty"`
}

// SLAConfig holds the resolution targets for a task.
// Breach state is derived on read and never stored.
type SLAConfig struct {
	// TargetResolutionHours is how long past the due date a task may stay
	// unresolved before it is breached. Zero breaches as soon as the due date passes.
	TargetResolutionHours float64 `json:"target_resolution_hours,omitempty"`

	// WarningThresholdHours opens the warning window this many hours before the due date.
	WarningThresholdHours *float64 `json:"warning_threshold_hours,omitempty"`
}

// Escalation is one entry in a task's append-only escalation ledger.
type Escalation struct {
	Level          int        `json:"level"`
	EscalatedTo    string     `json:"escalated_to"`
	Reason         string     `json:"reason"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	At             time.Time  `json:"at"`
}

// AutoGenerated records how a task came to exist.
type AutoGenerated struct {
	IsAutoGenerated bool   `json:"is_auto_generated"`
	TriggerType     string `json:"trigger_type,omitempty"`
}

// Comment is a free-text note on a task. Mentions and rich content are handled elsewhere.
type Comment struct {
	ID       string    `json:"id"`
	AuthorID string    `json:"author_id"`
	Body     string    `json:"body"`
	At       time.Time `json:"at"`
}

// ActivityEntry records one accepted change to a task.
// Status changes carry From and To.
type ActivityEntry struct {
	Action  string               `json:"action"`
	From    constants.TaskStatus `json:"from,omitempty"`
	To      constants.TaskStatus `json:"to,omitempty"`
	ActorID string               `json:"actor_id"`
	Detail  string               `json:"detail,omitempty"`
	At      time.Time            `json:"at"`
}

// Activity actions recorded in the log.
const (
	ActivityCreated             = "created"
	ActivityStatusChanged       = "status_changed"
	ActivityAssigned            = "assigned"
	ActivityChecklistUpdated    = "checklist_updated"
	ActivityEscalated           = "escalated"
	ActivityEscalationAcked     = "escalation_acknowledged"
	ActivityRecurrenceScheduled = "recurrence_scheduled"
	ActivityRecurrenceStopped   = "recurrence_stopped"
	ActivitySubTaskLinked       = "sub_task_linked"
	ActivityCommented           = "commented"
)

// Clone returns a deep copy of t. Mutations on the copy never reach t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = append([]string(nil), t.Tags...)
	c.StartDate = cloneTime(t.StartDate)
	c.DueDate = cloneTime(t.DueDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.EscalationResetAt = cloneTime(t.EscalationResetAt)
	if t.LinkedEntity != nil {
		le := *t.LinkedEntity
		c.LinkedEntity = &le
	}

	if t.Checklist != nil {
		c.Checklist = make([]ChecklistItem, len(t.Checklist))
		for i, item := range t.Checklist {
			item.CompletedAt = cloneTime(item.CompletedAt)
			c.Checklist[i] = item
		}
	}
	if t.SubTasks != nil {
		c.SubTasks = make([]SubTaskRef, len(t.SubTasks))
		for i, ref := range t.SubTasks {
			ref.DueDate = cloneTime(ref.DueDate)
			c.SubTasks[i] = ref
		}
	}

	c.Recurrence.NextOccurrence = cloneTime(t.Recurrence.NextOccurrence)
	if t.SLA.WarningThresholdHours != nil {
		w := *t.SLA.WarningThresholdHours
		c.SLA.WarningThresholdHours = &w
	}

	if t.Escalations != nil {
		c.Escalations = make([]Escalation, len(t.Escalations))
		for i, e := range t.Escalations {
			e.AcknowledgedAt = cloneTime(e.AcknowledgedAt)
			c.Escalations[i] = e
		}
	}
	c.Comments = append([]Comment(nil), t.Comments...)
	c.ActivityLog = append([]ActivityEntry(nil), t.ActivityLog...)
	return &c
}

// Summary returns the compact view of t used in event payloads.
func (t *Task) Summary() *TaskSummary {
	if t == nil {
		return nil
	}
	return &TaskSummary{
		ID:              t.ID,
		Title:           t.Title,
		Status:          t.Status,
		Priority:        t.Priority,
		AssignedTo:      t.AssignedTo,
		DueDate:         cloneTime(t.DueDate),
		EscalationLevel: t.EscalationLevel,
		ChecklistDone:   countCompleted(t.Checklist),
		ChecklistTotal:  len(t.Checklist),
	}
}

// TaskSummary is the before/after snapshot carried by engine events.
type TaskSummary struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Status          constants.TaskStatus `json:"status"`
	Priority        constants.Priority   `json:"priority"`
	AssignedTo      string               `json:"assigned_to,omitempty"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	EscalationLevel int                  `json:"escalation_level"`
	ChecklistDone   int                  `json:"checklist_done"`
	ChecklistTotal  int                  `json:"checklist_total"`
}

func countCompleted(items []ChecklistItem) int {
	n := 0
	for _, item := range items {
		if item.IsCompleted {
			n++
		}
	}
	return n
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
