package workflow

import (
	"slices"
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/task"
)

// ListFilter narrows List results. Zero-valued fields match everything.
type ListFilter struct {
	Statuses     []constants.TaskStatus
	AssignedTo   string
	Category     constants.Category
	Priority     constants.Priority
	Tag          string
	EntityType   constants.EntityType
	EntityID     string
	ParentID     string
	OverdueOnly  bool
	BreachedOnly bool
}

// Match reports whether t passes every set criterion at now.
func (f ListFilter) Match(t *domain.Task, now time.Time) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !slices.Contains(t.Tags, f.Tag) {
		return false
	}
	if f.EntityType != "" || f.EntityID != "" {
		if t.LinkedEntity == nil {
			return false
		}
		if f.EntityType != "" && t.LinkedEntity.EntityType != f.EntityType {
			return false
		}
		if f.EntityID != "" && t.LinkedEntity.EntityID != f.EntityID {
			return false
		}
	}
	if f.ParentID != "" && t.ParentID != f.ParentID {
		return false
	}
	if f.OverdueOnly && !task.IsOverdue(t, now) {
		return false
	}
	if f.BreachedOnly && !task.IsBreached(t, now) {
		return false
	}
	return true
}
