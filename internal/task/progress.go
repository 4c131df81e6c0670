package task

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// percent returns round(100*done/total), or 0 when total is 0.
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// ChecklistProgress returns the percentage of completed checklist items.
// An empty checklist is 0%.
func ChecklistProgress(items []domain.ChecklistItem) int {
	return percent(countDone(items), len(items))
}

// SubTaskProgress returns the percentage of sub-tasks whose denormalized
// status is Completed. It is informational and never gates the parent.
func SubTaskProgress(refs []domain.SubTaskRef) int {
	done := 0
	for _, ref := range refs {
		if ref.Status == constants.TaskStatusCompleted {
			done++
		}
	}
	return percent(done, len(refs))
}

// IsChecklistComplete reports whether the checklist is non-empty and every item is done.
func IsChecklistComplete(items []domain.ChecklistItem) bool {
	return len(items) > 0 && countDone(items) == len(items)
}

func countDone(items []domain.ChecklistItem) int {
	n := 0
	for _, item := range items {
		if item.IsCompleted {
			n++
		}
	}
	return n
}

// AddChecklistItem appends a new incomplete item to the end of the checklist.
func AddChecklistItem(task *domain.Task, text, actor string, now time.Time) (*domain.ChecklistItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("checklist item text %w", tferrors.ErrEmptyValue)
	}
	if len(task.Checklist) >= constants.MaxChecklistItems {
		return nil, fmt.Errorf("%w: checklist is limited to %d items",
			tferrors.ErrValidation, constants.MaxChecklistItems)
	}

	task.Checklist = append(task.Checklist, domain.ChecklistItem{
		ID:    uuid.NewString(),
		Text:  text,
		Order: len(task.Checklist),
	})
	item := task.Checklist[len(task.Checklist)-1]
	touchChecklist(task, actor, "added: "+text, now)
	return &item, nil
}

// ChecklistToggle is the outcome of ToggleChecklistItem.
type ChecklistToggle struct {
	Item domain.ChecklistItem
	// Changed is false when the item was already in the requested state.
	Changed bool
	// ChecklistCompleted is true when this toggle completed the last open item.
	ChecklistCompleted bool
}

// ToggleChecklistItem sets one item to the requested completion state.
// A request matching the current state changes nothing and logs nothing.
func ToggleChecklistItem(task *domain.Task, itemID string, isCompleted bool, actor string, now time.Time) (ChecklistToggle, error) {
	idx := checklistIndex(task, itemID)
	if idx < 0 {
		return ChecklistToggle{}, fmt.Errorf("toggle '%s': %w", itemID, tferrors.ErrChecklistItemNotFound)
	}

	item := &task.Checklist[idx]
	if item.IsCompleted == isCompleted {
		return ChecklistToggle{Item: *item}, nil
	}

	wasComplete := IsChecklistComplete(task.Checklist)

	item.IsCompleted = isCompleted
	verb := "reopened: "
	if isCompleted {
		at := now
		item.CompletedAt = &at
		verb = "completed: "
	} else {
		item.CompletedAt = nil
	}

	touchChecklist(task, actor, verb+item.Text, now)
	return ChecklistToggle{
		Item:               *item,
		Changed:            true,
		ChecklistCompleted: !wasComplete && IsChecklistComplete(task.Checklist),
	}, nil
}

// RemoveChecklistItem deletes one item and renumbers the rest.
func RemoveChecklistItem(task *domain.Task, itemID, actor string, now time.Time) error {
	idx := checklistIndex(task, itemID)
	if idx < 0 {
		return fmt.Errorf("remove '%s': %w", itemID, tferrors.ErrChecklistItemNotFound)
	}
	text := task.Checklist[idx].Text
	task.Checklist = append(task.Checklist[:idx], task.Checklist[idx+1:]...)
	renumber(task.Checklist)
	touchChecklist(task, actor, "removed: "+text, now)
	return nil
}

// ReorderChecklist rearranges the checklist to match ids, which must be a
// permutation of the current item ids.
func ReorderChecklist(task *domain.Task, ids []string, actor string, now time.Time) error {
	if len(ids) != len(task.Checklist) {
		return fmt.Errorf("%w: reorder lists %d ids but the checklist has %d items",
			tferrors.ErrValidation, len(ids), len(task.Checklist))
	}

	byID := make(map[string]domain.ChecklistItem, len(task.Checklist))
	for _, item := range task.Checklist {
		byID[item.ID] = item
	}

	reordered := make([]domain.ChecklistItem, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok || seen[id] {
			return fmt.Errorf("%w: reorder is not a permutation of the checklist (id '%s')",
				tferrors.ErrValidation, id)
		}
		seen[id] = true
		reordered = append(reordered, item)
	}

	renumber(reordered)
	task.Checklist = reordered
	touchChecklist(task, actor, "reordered", now)
	return nil
}

func checklistIndex(task *domain.Task, itemID string) int {
	for i, item := range task.Checklist {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func renumber(items []domain.ChecklistItem) {
	for i := range items {
		items[i].Order = i
	}
}

func touchChecklist(task *domain.Task, actor, detail string, now time.Time) {
	if actor == "" {
		actor = constants.SystemActor
	}
	task.UpdatedAt = now
	task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{
		Action:  domain.ActivityChecklistUpdated,
		ActorID: actor,
		Detail:  detail,
		At:      now,
	})
}
