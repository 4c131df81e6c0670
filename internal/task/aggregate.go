package task

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// RecurrenceParams enables recurrence on a new task.
type RecurrenceParams struct {
	Pattern  constants.RecurrencePattern `json:"pattern" yaml:"pattern"`
	Interval int                         `json:"interval" yaml:"interval"`
}

// CreateParams holds everything a caller may set when creating a task.
// Zero values take the documented defaults.
type CreateParams struct {
	// ID is optional; a random UUID is generated when empty.
	ID string

	Title        string
	Description  string
	Category     constants.Category // default General
	Priority     constants.Priority // default Medium
	Tags         []string
	StartDate    *time.Time
	DueDate      *time.Time
	AssignedTo   string
	LinkedEntity *domain.LinkedEntity

	// Checklist holds the text of the initial items, in order.
	Checklist []string

	Recurrence *RecurrenceParams
	SLA        domain.SLAConfig

	AutoGenerated domain.AutoGenerated
	CreatedBy     string
}

// NewTask validates params and builds a task in the Open status.
// All invalid fields are reported together as FieldErrors.
func NewTask(params CreateParams, now time.Time) (*domain.Task, error) {
	var fe tferrors.FieldErrors

	title := strings.TrimSpace(params.Title)
	switch {
	case title == "":
		fe.Add("title", "must not be empty")
	case len(title) > constants.MaxTitleLength:
		fe.Add("title", fmt.Sprintf("must be at most %d characters", constants.MaxTitleLength))
	}

	category := params.Category
	if category == "" {
		category = constants.CategoryGeneral
	}
	if !slices.Contains(constants.AllCategories(), category) {
		fe.Add("category", fmt.Sprintf("unknown category %q", params.Category))
	}

	priority := params.Priority
	if priority == "" {
		priority = constants.PriorityMedium
	}
	if !slices.Contains(constants.AllPriorities(), priority) {
		fe.Add("priority", fmt.Sprintf("unknown priority %q", params.Priority))
	}

	if params.StartDate != nil && params.DueDate != nil && params.DueDate.Before(*params.StartDate) {
		fe.Add("due_date", "must not be before start_date")
	}

	validateSLA(params.SLA, &fe)

	if le := params.LinkedEntity; le != nil {
		if !slices.Contains(constants.AllEntityTypes(), le.EntityType) {
			fe.Add("linked_entity.entity_type", fmt.Sprintf("unknown entity type %q", le.EntityType))
		}
		if strings.TrimSpace(le.EntityID) == "" {
			fe.Add("linked_entity.entity_id", "must not be empty")
		}
	}

	if len(params.Checklist) > constants.MaxChecklistItems {
		fe.Add("checklist", fmt.Sprintf("must have at most %d items", constants.MaxChecklistItems))
	}
	checklist := make([]domain.ChecklistItem, 0, len(params.Checklist))
	for i, text := range params.Checklist {
		text = strings.TrimSpace(text)
		if text == "" {
			fe.Add(fmt.Sprintf("checklist[%d]", i), "must not be empty")
			continue
		}
		checklist = append(checklist, domain.ChecklistItem{ID: uuid.NewString(), Text: text})
	}
	renumber(checklist)

	var recurrence domain.Recurrence
	if rp := params.Recurrence; rp != nil {
		recurrence = domain.Recurrence{IsRecurring: true, Pattern: rp.Pattern, Interval: rp.Interval}
		if _, err := NextOccurrence(rp.Pattern, rp.Interval, now); err != nil {
			if rp.Interval < 1 {
				fe.Add("recurrence.interval", "must be at least 1")
			} else {
				fe.Add("recurrence.pattern", fmt.Sprintf("unknown pattern %q", rp.Pattern))
			}
		}
	}

	if err := fe.Err(); err != nil {
		return nil, err
	}

	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdBy := params.CreatedBy
	if createdBy == "" {
		createdBy = constants.SystemActor
	}

	task := &domain.Task{
		ID:            id,
		Title:         title,
		Description:   strings.TrimSpace(params.Description),
		Category:      category,
		Priority:      priority,
		Tags:          NormalizeTags(params.Tags),
		Status:        InitialStatus,
		StartDate:     params.StartDate,
		DueDate:       params.DueDate,
		AssignedTo:    strings.TrimSpace(params.AssignedTo),
		LinkedEntity:  params.LinkedEntity,
		Checklist:     checklist,
		Recurrence:    recurrence,
		SLA:           params.SLA,
		AutoGenerated: params.AutoGenerated,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
		SchemaVersion: constants.TaskSchemaVersion,
		ActivityLog: []domain.ActivityEntry{{
			Action:  domain.ActivityCreated,
			To:      InitialStatus,
			ActorID: createdBy,
			At:      now,
		}},
	}
	if len(task.Checklist) == 0 {
		task.Checklist = nil
	}
	if err := ScheduleRecurrence(task, now); err != nil {
		return nil, err
	}
	return task, nil
}

func validateSLA(sla domain.SLAConfig, fe *tferrors.FieldErrors) {
	if sla.TargetResolutionHours < 0 {
		fe.Add("sla.target_resolution_hours", "must not be negative")
	}
	if w := sla.WarningThresholdHours; w != nil && *w < 0 {
		fe.Add("sla.warning_threshold_hours", "must not be negative")
	}
}

// NormalizeTags trims, de-duplicates and sorts tags, dropping empty ones.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// CheckInvariants verifies the structural invariants of a stored task.
// Stores call it on load so a hand-edited file cannot enter the engine.
func CheckInvariants(task *domain.Task) error {
	var fe tferrors.FieldErrors

	if strings.TrimSpace(task.ID) == "" {
		fe.Add("id", "must not be empty")
	}
	if strings.TrimSpace(task.Title) == "" {
		fe.Add("title", "must not be empty")
	}
	if !IsKnownStatus(task.Status) {
		fe.Add("status", fmt.Sprintf("unknown status %q", task.Status))
	}

	seen := make(map[string]bool, len(task.Checklist))
	for i, item := range task.Checklist {
		if item.Order != i {
			fe.Add(fmt.Sprintf("checklist[%d].order", i), fmt.Sprintf("expected %d, got %d", i, item.Order))
		}
		if seen[item.ID] {
			fe.Add(fmt.Sprintf("checklist[%d].id", i), "duplicate id")
		}
		seen[item.ID] = true
	}

	if task.Recurrence.IsRecurring != (task.Recurrence.NextOccurrence != nil) {
		fe.Add("recurrence.next_occurrence", "must be set exactly when is_recurring is true")
	}
	if err := ValidateRecurrence(task.Recurrence); err != nil {
		fe.Add("recurrence", err.Error())
	}

	for i, e := range task.Escalations {
		if e.Level < 1 {
			fe.Add(fmt.Sprintf("escalations[%d].level", i), "must be at least 1")
		}
	}
	if task.EscalationLevel < 0 {
		fe.Add("escalation_level", "must not be negative")
	}

	if (task.Status == constants.TaskStatusCompleted) != (task.CompletedAt != nil) {
		fe.Add("completed_at", "must be set exactly when status is Completed")
	}

	return fe.Err()
}

// Assign sets the assignee. Returns false when it is unchanged.
func Assign(task *domain.Task, assignee, actor string, now time.Time) bool {
	assignee = strings.TrimSpace(assignee)
	if task.AssignedTo == assignee {
		return false
	}
	if actor == "" {
		actor = constants.SystemActor
	}
	previous := task.AssignedTo
	task.AssignedTo = assignee
	task.UpdatedAt = now
	task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{
		Action:  domain.ActivityAssigned,
		ActorID: actor,
		Detail:  previous + " -> " + assignee,
		At:      now,
	})
	return true
}

// AddComment appends a comment authored by author.
func AddComment(task *domain.Task, author, body string, now time.Time) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("comment body %w", tferrors.ErrEmptyValue)
	}
	if author == "" {
		author = constants.SystemActor
	}
	c := domain.Comment{ID: uuid.NewString(), AuthorID: author, Body: body, At: now}
	task.Comments = append(task.Comments, c)
	task.UpdatedAt = now
	task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{
		Action:  domain.ActivityCommented,
		ActorID: author,
		At:      now,
	})
	return &c, nil
}

// SubTaskRefFor builds the denormalized reference a parent keeps for child.
func SubTaskRefFor(child *domain.Task) domain.SubTaskRef {
	ref := domain.SubTaskRef{TaskID: child.ID, Title: child.Title, Status: child.Status}
	if child.DueDate != nil {
		due := *child.DueDate
		ref.DueDate = &due
	}
	return ref
}

// LinkSubTask makes child a sub-task of parent. Linking an already linked
// pair is a no-op that returns false.
func LinkSubTask(parent, child *domain.Task, actor string, now time.Time) (bool, error) {
	switch {
	case parent.ID == child.ID:
		return false, fmt.Errorf("%w: a task cannot be its own sub-task", tferrors.ErrValidation)
	case child.ParentID != "" && child.ParentID != parent.ID:
		return false, fmt.Errorf("%w: task '%s' is already a sub-task of '%s'",
			tferrors.ErrValidation, child.ID, child.ParentID)
	case parent.ParentID == child.ID:
		return false, fmt.Errorf("%w: linking '%s' under '%s' would create a cycle",
			tferrors.ErrValidation, child.ID, parent.ID)
	}

	if child.ParentID == parent.ID && slices.ContainsFunc(parent.SubTasks, func(r domain.SubTaskRef) bool {
		return r.TaskID == child.ID
	}) {
		return false, nil
	}

	if actor == "" {
		actor = constants.SystemActor
	}
	child.ParentID = parent.ID
	child.UpdatedAt = now
	parent.SubTasks = append(parent.SubTasks, SubTaskRefFor(child))
	parent.UpdatedAt = now
	parent.ActivityLog = append(parent.ActivityLog, domain.ActivityEntry{
		Action:  domain.ActivitySubTaskLinked,
		ActorID: actor,
		Detail:  child.ID,
		At:      now,
	})
	return true, nil
}

// SyncSubTaskRef refreshes the parent's denormalized copy of child.
// Returns false when the parent does not reference child or nothing changed.
func SyncSubTaskRef(parent, child *domain.Task) bool {
	for i, ref := range parent.SubTasks {
		if ref.TaskID != child.ID {
			continue
		}
		fresh := SubTaskRefFor(child)
		if ref.Title == fresh.Title && ref.Status == fresh.Status && sameTime(ref.DueDate, fresh.DueDate) {
			return false
		}
		parent.SubTasks[i] = fresh
		return true
	}
	return false
}

// UnlinkSubTask drops the reference to childID from parent.
func UnlinkSubTask(parent *domain.Task, childID string) error {
	idx := slices.IndexFunc(parent.SubTasks, func(r domain.SubTaskRef) bool { return r.TaskID == childID })
	if idx < 0 {
		return fmt.Errorf("'%s' under '%s': %w", childID, parent.ID, tferrors.ErrSubTaskNotFound)
	}
	parent.SubTasks = slices.Delete(parent.SubTasks, idx, idx+1)
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
