// Package workflow is the mutation boundary of the task engine. Every change
// to a task goes through Service, which guarantees at most one in-flight
// mutation per task, persists the result, and emits one event per accepted
// change. The bulk Coordinator and the SLA Sweeper are built on top of it.
//
// Import rules:
//   - CAN import: internal/task, internal/domain, internal/constants, internal/errors,
//     internal/ctxutil, internal/clock, internal/directory, internal/lease, internal/template, std lib
//   - MUST NOT import: internal/cli, internal/config
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/clock"
	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/ctxutil"
	"github.com/mrz1836/taskflow/internal/directory"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/task"
)

// maxAncestorDepth bounds the parent walk done before linking sub-tasks.
const maxAncestorDepth = 64

// Config holds the behavior switches of a Service.
type Config struct {
	// Escalation is applied by every sweep.
	Escalation task.EscalationPolicy

	// DefaultEscalationTarget receives escalations when no manager can be resolved.
	DefaultEscalationTarget string

	// SpawnRecurrence creates the next instance when a recurring task completes.
	SpawnRecurrence bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Escalation:      task.EscalationPolicy{MinInterval: constants.DefaultSweepInterval},
		SpawnRecurrence: true,
	}
}

// Service applies workflow operations to stored tasks.
type Service struct {
	store      task.Store
	guard      *Guard
	clock      clock.Clock
	directory  directory.Directory
	dispatcher task.Dispatcher
	metrics    task.Metrics
	config     Config
	logger     zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source. Defaults to the system clock.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithDirectory sets the user directory used for assignee checks and
// escalation targets. Without one, assignees are not checked and
// escalations go to the configured default target.
func WithDirectory(d directory.Directory) Option {
	return func(s *Service) { s.directory = d }
}

// WithDispatcher sets the event dispatcher.
func WithDispatcher(d task.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m task.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithGuard shares an in-flight guard between services.
func WithGuard(g *Guard) Option {
	return func(s *Service) { s.guard = g }
}

// WithConfig replaces the default Config.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.config = cfg }
}

// NewService creates a Service over store.
func NewService(store task.Store, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		guard:      NewGuard(),
		clock:      clock.RealClock{},
		dispatcher: task.NoopDispatcher{},
		metrics:    task.NoopMetrics{},
		config:     DefaultConfig(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransitionRequest carries the caller's side of a transition.
type TransitionRequest struct {
	Actor      string
	Resolution string
}

// change is one accepted mutation waiting to be announced.
type change struct {
	event  constants.EventType
	detail map[string]string
}

// mutateFunc applies a change to t. Returning no changes means nothing
// happened and nothing is persisted.
type mutateFunc func(t *domain.Task, now time.Time) ([]change, error)

// mutate runs fn against a fresh copy of the task inside the task's
// critical section, persists the result and emits its events.
func (s *Service) mutate(ctx context.Context, op, taskID, actor string, fn mutateFunc) (*domain.Task, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	release, err := s.guard.TryAcquire(taskID)
	if err != nil {
		s.metrics.BusyRejected(op)
		return nil, err
	}
	defer release()

	ctx = s.injectLoggerContext(ctx, op, taskID)

	t, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, storeErr(err)
	}

	before := t.Summary()
	now := s.clock.Now()
	changes, err := fn(t, now)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return t, nil
	}

	// Accepted: persist and announce even if the caller goes away.
	ctx = ctxutil.Committed(ctx)
	if err := s.store.Update(ctx, t); err != nil {
		return nil, storeErr(err)
	}

	after := t.Summary()
	for _, c := range changes {
		s.emit(ctx, c.event, t.ID, actor, before, after, now, c.detail)
	}
	return t, nil
}

// Create validates params and stores a new Open task.
func (s *Service) Create(ctx context.Context, params task.CreateParams) (*domain.Task, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if err := s.checkUser(ctx, params.AssignedTo); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t, err := task.NewTask(params, now)
	if err != nil {
		return nil, err
	}

	ctx = ctxutil.Committed(ctx)
	if err := s.store.Create(ctx, t); err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info().
		Str("task_id", t.ID).
		Str("category", string(t.Category)).
		Str("trigger", t.AutoGenerated.TriggerType).
		Msg("task created")

	s.metrics.TaskCreated(t.AutoGenerated.TriggerType)
	s.emit(ctx, constants.EventTaskCreated, t.ID, t.CreatedBy, nil, t.Summary(), now, nil)
	return t, nil
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	t, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, storeErr(err)
	}
	return t, nil
}

// List returns the tasks matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*domain.Task, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	now := s.clock.Now()
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Match(t, now) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Transition moves a task along the status graph. Completing a recurring
// task re-plans its next occurrence and spawns that instance.
func (s *Service) Transition(ctx context.Context, taskID string, target constants.TaskStatus, req TransitionRequest) (*domain.Task, error) {
	var outcome *task.TransitionOutcome
	t, err := s.mutate(ctx, "transition", taskID, req.Actor, func(t *domain.Task, now time.Time) ([]change, error) {
		from := t.Status
		o, err := task.Transition(ctx, t, target, task.TransitionOptions{
			Actor:      req.Actor,
			Resolution: req.Resolution,
			At:         now,
		})
		if err != nil {
			s.metrics.TransitionRejected(from, target, tferrors.Kind(err))
			return nil, err
		}
		outcome = o

		changes := []change{{
			event:  constants.EventTransitionApplied,
			detail: map[string]string{"from": string(o.From), "to": string(o.To)},
		}}
		if o.NextOccurrence != nil {
			changes = append(changes, change{
				event:  constants.EventRecurrenceScheduled,
				detail: map[string]string{"next_occurrence": o.NextOccurrence.Format(time.RFC3339)},
			})
		}
		return changes, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TransitionApplied(outcome.From, outcome.To)
	s.logger.Info().
		Str("task_id", taskID).
		Str("from", string(outcome.From)).
		Str("to", string(outcome.To)).
		Bool("left_overdue", outcome.LeftOverdue).
		Msg("transition applied")

	committed := ctxutil.Committed(ctx)
	s.syncParent(committed, t)
	if outcome.NextOccurrence != nil && s.config.SpawnRecurrence {
		s.spawnOccurrence(committed, t)
	}
	return t, nil
}

// Assign sets the task's assignee. Unknown users fail with ErrUserNotFound.
func (s *Service) Assign(ctx context.Context, taskID, assignee, actor string) (*domain.Task, error) {
	if err := s.checkUser(ctx, assignee); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "assign", taskID, actor, func(t *domain.Task, now time.Time) ([]change, error) {
		if !task.Assign(t, assignee, actor, now) {
			return nil, nil
		}
		return []change{{
			event:  constants.EventTaskAssigned,
			detail: map[string]string{"assigned_to": t.AssignedTo},
		}}, nil
	})
}

// AddChecklistItem appends an item to the task's checklist.
func (s *Service) AddChecklistItem(ctx context.Context, taskID, text, actor string) (*domain.Task, error) {
	return s.mutate(ctx, "checklist_add", taskID, actor, func(t *domain.Task, now time.Time) ([]change, error) {
		item, err := task.AddChecklistItem(t, text, actor, now)
		if err != nil {
			return nil, err
		}
		return []change{checklistChange("added", item.ID, t)}, nil
	})
}

// ToggleChecklistItem sets one checklist item to isCompleted. A request that
// matches the item's current state is a no-op with no event. Completing the
// last open item also emits ChecklistCompleted.
func (s *Service) ToggleChecklistItem(ctx context.Context, taskID, itemID string, isCompleted bool, actor string) (*domain.Task, error) {
	return s.mutate(ctx, "checklist_toggle", taskID, actor, func(t *domain.Task, now time.Time) ([]change, error) {
		res, err := task.ToggleChecklistItem(t, itemID, isCompleted, actor, now)
		if err != nil || !res.Changed {
			return nil, err
		}
		changes := []change{checklistChange("toggled", res.Item.ID, t)}
		if res.ChecklistCompleted {
			changes = append(changes, change{
				event:  constants.EventChecklistCompleted,
				detail: map[string]string{"items": strconv.Itoa(len(t.Checklist))},
			})
		}
		return changes, nil
	})
}

// RemoveChecklistItem deletes one checklist item.
func (s *Service) RemoveChecklistItem(ctx context.Context, taskID, itemID, actor string) (*domain.Task, error) {
	return s.mutate(ctx, "checklist_remove", taskID, actor, func(t *domain.Task, now time.Time) ([]change, error) {
		if err := task.RemoveChecklistItem(t, itemID, actor, now); err != nil {
			return nil, err
		}
		return []change{checklistChange("removed", itemID, t)}, nil
	})
}

// ReorderChecklist rearranges the checklist to the given id order.
func (s *Service) ReorderChecklist(ctx context.Context, taskID string, itemIDs []string, actor string) (*domain.Task, error) {
	return s.mutate(ctx, "checklist_reorder", taskID, actor, func(t *domain.Task, now time.Time) ([]change, error) {
		if err := task.ReorderChecklist(t, itemIDs, actor, now); err != nil {
			return nil, err
		}
		return []change{checklistChange("reordered", "", t)}, nil
	})
}

func checklistChange(action, itemID string, t *domain.Task) change {
	detail := map[string]string{
		"action":   action,
		"progress": strconv.Itoa(task.ChecklistProgress(t.Checklist)),
	}
	if itemID != "" {
		detail["item_id"] = itemID
	}
	return change{event: constants.EventChecklistUpdated, detail: detail}
}

// LinkSubTask makes childID a sub-task of parentID. Both tasks are held for
// the duration of the link.
func (s *Service) LinkSubTask(ctx context.Context, parentID, childID, actor string) (*domain.Task, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if parentID == childID {
		return nil, fmt.Errorf("%w: a task cannot be its own sub-task", tferrors.ErrValidation)
	}

	release, err := s.guard.TryAcquireAll(parentID, childID)
	if err != nil {
		s.metrics.BusyRejected("subtask_link")
		return nil, err
	}
	defer release()

	parent, err := s.store.Get(ctx, parentID)
	if err != nil {
		return nil, storeErr(err)
	}
	child, err := s.store.Get(ctx, childID)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := s.checkNotAncestor(ctx, parent, childID); err != nil {
		return nil, err
	}

	before := parent.Summary()
	now := s.clock.Now()
	linked, err := task.LinkSubTask(parent, child, actor, now)
	if err != nil || !linked {
		return parent, err
	}

	ctx = ctxutil.Committed(ctx)
	if err := s.store.Update(ctx, child); err != nil {
		return nil, storeErr(err)
	}
	if err := s.store.Update(ctx, parent); err != nil {
		return nil, storeErr(err)
	}
	s.emit(ctx, constants.EventSubTaskLinked, parent.ID, actor, before, parent.Summary(), now,
		map[string]string{"sub_task_id": child.ID})
	return parent, nil
}

// checkNotAncestor walks up from parent and fails if childID is on the way.
func (s *Service) checkNotAncestor(ctx context.Context, parent *domain.Task, childID string) error {
	next := parent.ParentID
	for depth := 0; next != "" && depth < maxAncestorDepth; depth++ {
		if next == childID {
			return fmt.Errorf("%w: linking '%s' under '%s' would create a cycle",
				tferrors.ErrValidation, childID, parent.ID)
		}
		ancestor, err := s.store.Get(ctx, next)
		if err != nil {
			if errors.Is(err, tferrors.ErrNotFound) {
				return nil
			}
			return storeErr(err)
		}
		next = ancestor.ParentID
	}
	return nil
}

// Acknowledge marks the unacknowledged escalation at level as seen.
func (s *Service) Acknowledge(ctx context.Context, taskID string, level int, actor string) (*domain.Task, error) {
	return s.mutate(ctx, "escalation_ack", taskID, actor, func(t *domain.Task, now time.Time) ([]change, error) {
		if _, err := task.Acknowledge(t, level, actor, now); err != nil {
			return nil, err
		}
		return []change{{
			event:  constants.EventEscalationAcknowledged,
			detail: map[string]string{"level": strconv.Itoa(level)},
		}}, nil
	})
}

// StopRecurrence turns recurrence off. Spawned instances are untouched.
func (s *Service) StopRecurrence(ctx context.Context, taskID, actor string) (*domain.Task, error) {
	return s.mutate(ctx, "recurrence_stop", taskID, actor, func(t *domain.Task, now time.Time) ([]change, error) {
		if !task.StopRecurrence(t, actor, now) {
			return nil, nil
		}
		return []change{{event: constants.EventRecurrenceStopped}}, nil
	})
}

// AddComment appends a comment to the task.
func (s *Service) AddComment(ctx context.Context, taskID, author, body string) (*domain.Task, error) {
	return s.mutate(ctx, "comment", taskID, author, func(t *domain.Task, now time.Time) ([]change, error) {
		c, err := task.AddComment(t, author, body, now)
		if err != nil {
			return nil, err
		}
		return []change{{
			event:  constants.EventCommentAdded,
			detail: map[string]string{"comment_id": c.ID},
		}}, nil
	})
}

// Delete removes a task. Tasks that other tasks name as parent cannot be
// deleted. A deleted sub-task is unlinked from its parent.
func (s *Service) Delete(ctx context.Context, taskID, actor string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	release, err := s.guard.TryAcquire(taskID)
	if err != nil {
		s.metrics.BusyRejected("delete")
		return err
	}
	defer release()

	t, err := s.store.Get(ctx, taskID)
	if err != nil {
		return storeErr(err)
	}

	all, err := s.store.List(ctx)
	if err != nil {
		return storeErr(err)
	}
	for _, other := range all {
		if other.ParentID == taskID && other.ID != taskID {
			return fmt.Errorf("task '%s' is parent of '%s': %w", taskID, other.ID, tferrors.ErrTaskReferenced)
		}
	}

	ctx = ctxutil.Committed(ctx)
	if err := s.store.Delete(ctx, taskID); err != nil {
		return storeErr(err)
	}
	if t.ParentID != "" {
		s.unlinkFromParent(ctx, t)
	}

	s.logger.Info().Str("task_id", taskID).Str("actor", actor).Msg("task deleted")
	s.emit(ctx, constants.EventTaskDeleted, taskID, actor, t.Summary(), nil, s.clock.Now(), nil)
	return nil
}

// Progress is the derived completion view of a task.
type Progress struct {
	Checklist      int `json:"checklist"`
	ChecklistDone  int `json:"checklist_done"`
	ChecklistTotal int `json:"checklist_total"`
	SubTasks       int `json:"sub_tasks"`
}

// Progress computes the task's checklist and sub-task percentages. It takes
// no lock: the values are derived from a single read.
func (s *Service) Progress(ctx context.Context, taskID string) (Progress, error) {
	t, err := s.Get(ctx, taskID)
	if err != nil {
		return Progress{}, err
	}
	summary := t.Summary()
	return Progress{
		Checklist:      task.ChecklistProgress(t.Checklist),
		ChecklistDone:  summary.ChecklistDone,
		ChecklistTotal: summary.ChecklistTotal,
		SubTasks:       task.SubTaskProgress(t.SubTasks),
	}, nil
}

// EvaluateSLA derives the task's SLA state at the current time.
func (s *Service) EvaluateSLA(ctx context.Context, taskID string) (task.SLAState, error) {
	t, err := s.Get(ctx, taskID)
	if err != nil {
		return task.SLAState{}, err
	}
	return task.EvaluateSLA(t, s.clock.Now()), nil
}

// checkUser verifies userID against the directory. Empty ids and a missing
// directory always pass.
func (s *Service) checkUser(ctx context.Context, userID string) error {
	if s.directory == nil || userID == "" {
		return nil
	}
	ok, err := s.directory.Exists(ctx, userID)
	if err != nil {
		return tferrors.Unavailable(fmt.Errorf("failed to look up user '%s': %w", userID, err))
	}
	if !ok {
		return fmt.Errorf("'%s': %w", userID, tferrors.ErrUserNotFound)
	}
	return nil
}

// syncParent refreshes the parent's denormalized view of child. A busy or
// missing parent is logged and skipped.
func (s *Service) syncParent(ctx context.Context, child *domain.Task) {
	if child.ParentID == "" {
		return
	}
	logger := s.logger.With().Str("task_id", child.ID).Str("parent_id", child.ParentID).Logger()

	release, err := s.guard.TryAcquire(child.ParentID)
	if err != nil {
		logger.Warn().Err(err).Msg("parent busy, sub-task summary not refreshed")
		return
	}
	defer release()

	parent, err := s.store.Get(ctx, child.ParentID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load parent for sub-task sync")
		return
	}
	if !task.SyncSubTaskRef(parent, child) {
		return
	}
	parent.UpdatedAt = s.clock.Now()
	if err := s.store.Update(ctx, parent); err != nil {
		logger.Warn().Err(err).Msg("failed to save parent after sub-task sync")
	}
}

// unlinkFromParent drops a deleted task from its parent's sub-task list.
func (s *Service) unlinkFromParent(ctx context.Context, child *domain.Task) {
	logger := s.logger.With().Str("task_id", child.ID).Str("parent_id", child.ParentID).Logger()

	release, err := s.guard.TryAcquire(child.ParentID)
	if err != nil {
		logger.Warn().Err(err).Msg("parent busy, deleted sub-task not unlinked")
		return
	}
	defer release()

	parent, err := s.store.Get(ctx, child.ParentID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load parent for unlink")
		return
	}
	if err := task.UnlinkSubTask(parent, child.ID); err != nil {
		return
	}
	parent.UpdatedAt = s.clock.Now()
	if err := s.store.Update(ctx, parent); err != nil {
		logger.Warn().Err(err).Msg("failed to save parent after unlink")
	}
}

// spawnOccurrence creates the next instance of a just-completed recurring
// task. The instance id is derived from (task id, completed_at), so a
// replayed completion finds the instance already stored and does nothing.
func (s *Service) spawnOccurrence(ctx context.Context, source *domain.Task) {
	logger := s.logger.With().Str("task_id", source.ID).Logger()
	now := s.clock.Now()

	inst, err := task.SpawnInstance(source, now)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build recurrence instance")
		return
	}

	if err := s.store.Create(ctx, inst); err != nil {
		if errors.Is(err, tferrors.ErrTaskExists) {
			logger.Debug().Str("instance_id", inst.ID).Msg("recurrence instance already exists")
			return
		}
		logger.Error().Err(err).Str("instance_id", inst.ID).Msg("failed to store recurrence instance")
		return
	}

	logger.Info().
		Str("instance_id", inst.ID).
		Time("due_date", *inst.DueDate).
		Msg("recurrence instance created")

	s.metrics.TaskCreated(constants.TriggerRecurrence)
	s.emit(ctx, constants.EventTaskCreated, inst.ID, constants.SystemActor, nil, inst.Summary(), now,
		map[string]string{
			"source_task_id": source.ID,
			"occurrence_key": inst.Recurrence.OccurrenceKey,
		})
}

// emit hands one event to the dispatcher. Dispatch failures are logged and
// never undo the mutation.
func (s *Service) emit(ctx context.Context, eventType constants.EventType, taskID, actor string,
	before, after *domain.TaskSummary, at time.Time, detail map[string]string,
) {
	if actor == "" {
		actor = constants.SystemActor
	}
	event := domain.Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		TaskID:  taskID,
		ActorID: actor,
		Before:  before,
		After:   after,
		At:      at,
		Detail:  detail,
	}
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("task_id", taskID).
			Str("event_type", string(eventType)).
			Msg("failed to dispatch event")
	}
}

// injectLoggerContext creates a context with an enriched logger containing
// operation and task_id fields. Stores and dispatchers retrieve it with
// zerolog.Ctx(ctx).
func (s *Service) injectLoggerContext(ctx context.Context, op, taskID string) context.Context {
	logger := s.logger.With().
		Str("operation", op).
		Str("task_id", taskID).
		Logger()
	return logger.WithContext(ctx)
}

// storeErr passes engine kinds through and marks everything else as a
// persistence failure.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, tferrors.ErrUnavailable),
		errors.Is(err, tferrors.ErrNotFound),
		errors.Is(err, tferrors.ErrValidation):
		return err
	default:
		return tferrors.Unavailable(err)
	}
}
