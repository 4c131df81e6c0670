package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/flock"
)

// Directory and file permission constants.
const (
	dirPerm  = 0o750 // Secure directory permissions
	filePerm = 0o600 // Secure file permissions
)

// lockRetryInterval is the pause between non-blocking lock attempts.
const lockRetryInterval = 50 * time.Millisecond

// validTaskIDRegex matches ids that are safe to use as a directory name.
var validTaskIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// Store defines the interface for task persistence operations.
// Each call reads or writes exactly one aggregate.
type Store interface {
	// Create stores a new task.
	// Returns ErrTaskExists if a task with the same id is already stored.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by ID.
	// Returns ErrTaskNotFound if task doesn't exist.
	Get(ctx context.Context, taskID string) (*domain.Task, error)

	// Update replaces the stored task.
	// Returns ErrTaskNotFound if task doesn't exist.
	Update(ctx context.Context, task *domain.Task) error

	// List returns all tasks, sorted by creation time (newest first).
	List(ctx context.Context) ([]*domain.Task, error)

	// Delete removes a task.
	// Returns ErrTaskNotFound if task doesn't exist.
	Delete(ctx context.Context, taskID string) error
}

// FileStore implements Store using the local filesystem. Each task lives in
// <home>/tasks/<id>/task.json, guarded by an flock on a sibling lock file so
// that several taskflow processes can share one home directory.
type FileStore struct {
	home string // Usually ~/.taskflow
}

// NewFileStore creates a new FileStore rooted at home.
// If home is empty, uses the default ~/.taskflow directory.
func NewFileStore(home string) (*FileStore, error) {
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(userHome, constants.AppHome)
	}
	return &FileStore{home: home}, nil
}

// Create stores a new task.
func (s *FileStore) Create(ctx context.Context, task *domain.Task) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := validateTask(task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	taskDir := s.taskDir(task.ID)

	// Check if task already exists
	if _, err := os.Stat(taskDir); err == nil {
		return fmt.Errorf("failed to create task '%s': %w", task.ID, tferrors.ErrTaskExists)
	}

	if err := os.MkdirAll(taskDir, dirPerm); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}

	task.SchemaVersion = constants.TaskSchemaVersion

	lockFile, err := s.acquireLock(ctx, task.ID)
	if err != nil {
		// Clean up directory on lock failure
		_ = os.RemoveAll(taskDir)
		return fmt.Errorf("failed to create task '%s': %w", task.ID, err)
	}
	defer func() { _ = lockFile.Unlock() }()

	if err := s.write(task); err != nil {
		_ = os.RemoveAll(taskDir)
		return fmt.Errorf("failed to create task '%s': %w", task.ID, err)
	}
	return nil
}

// Get retrieves a task by ID.
func (s *FileStore) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := validateTaskID(taskID); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if _, err := os.Stat(s.taskDir(taskID)); os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to get task '%s': %w", taskID, tferrors.ErrTaskNotFound)
	}

	lockFile, err := s.acquireLock(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task '%s': %w", taskID, err)
	}
	defer func() { _ = lockFile.Unlock() }()

	return s.read(taskID)
}

// Update replaces the stored task (atomic write).
func (s *FileStore) Update(ctx context.Context, task *domain.Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := validateTask(task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if _, err := os.Stat(s.taskDir(task.ID)); os.IsNotExist(err) {
		return fmt.Errorf("failed to update task '%s': %w", task.ID, tferrors.ErrTaskNotFound)
	}

	lockFile, err := s.acquireLock(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("failed to update task '%s': %w", task.ID, err)
	}
	defer func() { _ = lockFile.Unlock() }()

	if err := s.write(task); err != nil {
		return fmt.Errorf("failed to update task '%s': %w", task.ID, err)
	}
	return nil
}

// List returns all tasks, sorted by creation time (newest first).
// Entries that cannot be read are logged and skipped.
func (s *FileStore) List(ctx context.Context) ([]*domain.Task, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tasksDir := s.tasksDir()
	if _, err := os.Stat(tasksDir); os.IsNotExist(err) {
		return []*domain.Task{}, nil
	}

	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	tasks := make([]*domain.Task, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !validTaskIDRegex.MatchString(entry.Name()) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		task, err := s.Get(ctx, entry.Name())
		if err != nil {
			logger.Warn().Err(err).Str("task_id", entry.Name()).Msg("skipping unreadable task")
			continue
		}
		tasks = append(tasks, task)
	}

	sortNewestFirst(tasks)
	return tasks, nil
}

// Delete removes a task directory.
func (s *FileStore) Delete(ctx context.Context, taskID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := validateTaskID(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	taskDir := s.taskDir(taskID)
	if _, err := os.Stat(taskDir); os.IsNotExist(err) {
		return fmt.Errorf("failed to delete task '%s': %w", taskID, tferrors.ErrTaskNotFound)
	}

	// Wait for in-flight writers, then release before removal since the lock
	// file lives inside the task directory.
	lockFile, err := s.acquireLock(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task '%s': %w", taskID, err)
	}
	_ = lockFile.Unlock()

	if err := os.RemoveAll(taskDir); err != nil {
		return fmt.Errorf("failed to delete task '%s': %w", taskID, err)
	}
	return nil
}

func (s *FileStore) read(taskID string) (*domain.Task, error) {
	data, err := os.ReadFile(s.taskFilePath(taskID)) //#nosec G304 -- path is validated and constructed from trusted base
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to get task '%s': %w", taskID, tferrors.ErrTaskNotFound)
		}
		return nil, fmt.Errorf("failed to read task '%s': %w", taskID, err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("task '%s': %w: %w", taskID, tferrors.ErrStoreCorrupted, err)
	}
	if err := CheckInvariants(&task); err != nil {
		return nil, fmt.Errorf("task '%s': %w: %w", taskID, tferrors.ErrStoreCorrupted, err)
	}
	return &task, nil
}

func (s *FileStore) write(task *domain.Task) error {
	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(s.taskFilePath(task.ID), data)
}

// Helper methods for path construction

func (s *FileStore) tasksDir() string {
	return filepath.Join(s.home, constants.TasksDir)
}

func (s *FileStore) taskDir(taskID string) string {
	return filepath.Join(s.tasksDir(), taskID)
}

func (s *FileStore) taskFilePath(taskID string) string {
	return filepath.Join(s.taskDir(taskID), constants.TaskFileName)
}

func (s *FileStore) lockFilePath(taskID string) string {
	return filepath.Join(s.taskDir(taskID), constants.TaskFileName+".lock")
}

// acquireLock takes the task's lock file, retrying until LockTimeout.
// It respects context cancellation between attempts.
func (s *FileStore) acquireLock(ctx context.Context, taskID string) (*flock.Lock, error) {
	deadline := time.Now().Add(constants.LockTimeout)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		l, err := flock.TryLock(s.lockFilePath(taskID))
		switch {
		case err == nil:
			return l, nil
		case !errors.Is(err, flock.ErrLocked):
			return nil, err
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("failed to acquire lock: %w", tferrors.ErrLockTimeout)
		}

		time.Sleep(lockRetryInterval)
	}
}

// atomicWrite writes data to a file atomically using write-then-rename.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Sync to disk (ensure data is persisted before rename)
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func validateTask(task *domain.Task) error {
	if task == nil {
		return fmt.Errorf("task %w", tferrors.ErrEmptyValue)
	}
	return validateTaskID(task.ID)
}

func validateTaskID(taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID %w", tferrors.ErrEmptyValue)
	}
	if !validTaskIDRegex.MatchString(taskID) {
		return fmt.Errorf("%w: invalid task ID %q", tferrors.ErrValidation, taskID)
	}
	return nil
}

func sortNewestFirst(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
