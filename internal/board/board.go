// Package board provides the caller side of drag-and-drop status changes.
//
// A Board holds a column view of tasks. Move applies the new status locally
// before the engine confirms it and rolls back to the prior status when the
// engine rejects the move. A board allows one move per task at a time.
//
// Import rules:
//   - CAN import: internal/domain, internal/constants, internal/errors, internal/task, std lib
//   - MUST NOT import: internal/workflow, internal/cli
package board

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/task"
)

// Mover applies a single status change. workflow.Coordinator satisfies it.
type Mover interface {
	Move(ctx context.Context, taskID string, target constants.TaskStatus, actor string) (*domain.Task, error)
}

// Card is the board's local copy of one task.
type Card struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Status     constants.TaskStatus `json:"status"`
	Priority   constants.Priority   `json:"priority"`
	AssignedTo string               `json:"assigned_to,omitempty"`
	DueDate    *time.Time           `json:"due_date,omitempty"`
	Progress   int                  `json:"progress"`

	// Pending is true while a move of this card awaits confirmation.
	Pending bool `json:"pending,omitempty"`
}

// Column is one status lane.
type Column struct {
	Status constants.TaskStatus `json:"status"`
	Cards  []Card               `json:"cards"`
}

// Board is an optimistic column view of tasks.
type Board struct {
	mu    sync.Mutex
	mover Mover
	actor string
	cards map[string]*Card
}

// New creates a Board over tasks. Moves are attributed to actor.
func New(mover Mover, actor string, tasks []*domain.Task) *Board {
	b := &Board{
		mover: mover,
		actor: actor,
		cards: make(map[string]*Card, len(tasks)),
	}
	for _, t := range tasks {
		b.cards[t.ID] = cardFor(t)
	}
	return b
}

func cardFor(t *domain.Task) *Card {
	return &Card{
		ID:         t.ID,
		Title:      t.Title,
		Status:     t.Status,
		Priority:   t.Priority,
		AssignedTo: t.AssignedTo,
		DueDate:    t.DueDate,
		Progress:   task.ChecklistProgress(t.Checklist),
	}
}

// Move shows target immediately and asks the mover to apply it. On failure
// the card returns to its previous status and the mover's error is returned.
// A second move of a card that is still pending fails with ErrBusy without
// reaching the mover.
func (b *Board) Move(ctx context.Context, taskID string, target constants.TaskStatus) error {
	b.mu.Lock()
	card, ok := b.cards[taskID]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("'%s' is not on the board: %w", taskID, tferrors.ErrTaskNotFound)
	}
	if card.Pending {
		b.mu.Unlock()
		return fmt.Errorf("task '%s': %w", taskID, tferrors.ErrBusy)
	}
	previous := card.Status
	card.Status = target
	card.Pending = true
	b.mu.Unlock()

	updated, err := b.mover.Move(ctx, taskID, target, b.actor)

	b.mu.Lock()
	defer b.mu.Unlock()
	card.Pending = false
	if err != nil {
		card.Status = previous
		return err
	}
	if updated != nil {
		fresh := cardFor(updated)
		*card = *fresh
	}
	return nil
}

// Card returns a copy of one card.
func (b *Board) Card(taskID string) (Card, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	card, ok := b.cards[taskID]
	if !ok {
		return Card{}, false
	}
	return *card, true
}

// Columns returns one column per status in lifecycle order. Cards are
// sorted by due date, undated cards last, then by id.
func (b *Board) Columns() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()

	byStatus := make(map[constants.TaskStatus][]Card)
	for _, card := range b.cards {
		byStatus[card.Status] = append(byStatus[card.Status], *card)
	}

	statuses := constants.AllTaskStatuses()
	columns := make([]Column, 0, len(statuses))
	for _, status := range statuses {
		cards := byStatus[status]
		sort.Slice(cards, func(i, j int) bool { return cardLess(cards[i], cards[j]) })
		if cards == nil {
			cards = []Card{}
		}
		columns = append(columns, Column{Status: status, Cards: cards})
	}
	return columns
}

func cardLess(a, b Card) bool {
	switch {
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
		return a.DueDate.Before(*b.DueDate)
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate == nil && b.DueDate != nil:
		return false
	default:
		return a.ID < b.ID
	}
}
