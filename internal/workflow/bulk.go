package workflow

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// Coordinator fans multi-task requests out to the Service. A failure on one
// task never stops the others and nothing is retried.
type Coordinator struct {
	service     *Service
	concurrency int
	logger      zerolog.Logger
}

// NewCoordinator creates a Coordinator. concurrency is clamped to
// [1, MaxBulkConcurrency]; zero means DefaultBulkConcurrency.
func NewCoordinator(service *Service, concurrency int) *Coordinator {
	switch {
	case concurrency == 0:
		concurrency = constants.DefaultBulkConcurrency
	case concurrency < 1:
		concurrency = 1
	case concurrency > constants.MaxBulkConcurrency:
		concurrency = constants.MaxBulkConcurrency
	}
	return &Coordinator{
		service:     service,
		concurrency: concurrency,
		logger:      service.logger,
	}
}

// BulkTransition moves every task in ids to target.
func (c *Coordinator) BulkTransition(ctx context.Context, ids []string, target constants.TaskStatus, req TransitionRequest) domain.BulkResult {
	return c.fanOut(ctx, "bulk_transition", ids, func(ctx context.Context, id string) error {
		_, err := c.service.Transition(ctx, id, target, req)
		return err
	})
}

// BulkAssign assigns every task in ids to assignee. An unknown assignee
// fails every task with NotFound.
func (c *Coordinator) BulkAssign(ctx context.Context, ids []string, assignee, actor string) domain.BulkResult {
	if err := c.service.checkUser(ctx, assignee); err != nil {
		return c.fanOut(ctx, "bulk_assign", ids, func(context.Context, string) error { return err })
	}
	return c.fanOut(ctx, "bulk_assign", ids, func(ctx context.Context, id string) error {
		_, err := c.service.Assign(ctx, id, assignee, actor)
		return err
	})
}

// Move is the single-task drag-and-drop transition.
func (c *Coordinator) Move(ctx context.Context, id string, target constants.TaskStatus, actor string) (*domain.Task, error) {
	return c.service.Transition(ctx, id, target, TransitionRequest{Actor: actor})
}

// fanOut runs fn for each unique id with bounded concurrency and collects
// per-task outcomes in request order.
func (c *Coordinator) fanOut(ctx context.Context, op string, ids []string, fn func(context.Context, string) error) domain.BulkResult {
	unique := dedupe(ids)
	errs := make([]error, len(unique))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range unique {
		g.Go(func() error {
			errs[i] = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	result := domain.BulkResult{
		Succeeded: make([]string, 0, len(unique)),
		Failed:    []domain.Failure{},
	}
	for i, id := range unique {
		if errs[i] == nil {
			result.Succeeded = append(result.Succeeded, id)
			continue
		}
		result.Failed = append(result.Failed, domain.Failure{
			ID:     id,
			Reason: errs[i].Error(),
			Kind:   tferrors.Kind(errs[i]),
		})
	}

	c.service.metrics.BulkCompleted(op, result)
	c.logger.Info().
		Str("operation", op).
		Int("requested", len(ids)).
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Msg("bulk operation completed")
	return result
}

// dedupe drops repeated ids, keeping the first position of each.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
