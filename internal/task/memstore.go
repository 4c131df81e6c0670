package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// MemoryStore is an in-process Store. Tasks are deep-copied on the way in and
// out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*domain.Task)}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTask(task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("failed to create task '%s': %w", task.ID, tferrors.ErrTaskExists)
	}
	task.SchemaVersion = constants.TaskSchemaVersion
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("failed to get task '%s': %w", taskID, tferrors.ErrTaskNotFound)
	}
	return task.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTask(task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return fmt.Errorf("failed to update task '%s': %w", task.ID, tferrors.ErrTaskNotFound)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	tasks := make([]*domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task.Clone())
	}
	s.mu.RUnlock()

	sortNewestFirst(tasks)
	return tasks, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return fmt.Errorf("failed to delete task '%s': %w", taskID, tferrors.ErrTaskNotFound)
	}
	delete(s.tasks, taskID)
	return nil
}
