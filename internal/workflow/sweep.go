package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/ctxutil"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/lease"
	"github.com/mrz1836/taskflow/internal/task"
)

// UnresolvedEscalationTarget is recorded when neither the directory nor the
// configuration names anyone to escalate to.
const UnresolvedEscalationTarget = "unassigned"

// Sweep scans every task once and escalates the breached ones. Tasks with a
// mutation in flight are skipped and picked up by the next sweep. Running
// Sweep twice at the same instant appends nothing the second time.
func (s *Service) Sweep(ctx context.Context) (domain.SweepReport, error) {
	started := time.Now()
	report := domain.SweepReport{Escalated: []string{}}

	if err := ctxutil.Canceled(ctx); err != nil {
		return report, err
	}

	tasks, err := s.store.List(ctx)
	if err != nil {
		return report, storeErr(err)
	}

	now := s.clock.Now()
	for _, t := range tasks {
		if err := ctxutil.Canceled(ctx); err != nil {
			return report, err
		}

		report.Scanned++
		if !task.IsBreached(t, now) {
			continue
		}
		report.Breached++
		if !task.ShouldEscalate(t, now, s.config.Escalation) {
			continue
		}

		entry, err := s.escalate(ctx, t.ID, now)
		switch {
		case errors.Is(err, tferrors.ErrBusy):
			report.Skipped = append(report.Skipped, t.ID)
		case err != nil:
			report.Failed = append(report.Failed, domain.Failure{
				ID:     t.ID,
				Reason: err.Error(),
				Kind:   tferrors.Kind(err),
			})
		case entry != nil:
			report.Escalated = append(report.Escalated, t.ID)
		}
	}

	duration := time.Since(started)
	s.metrics.SweepCompleted(duration, report)
	s.logger.Info().
		Int("scanned", report.Scanned).
		Int("breached", report.Breached).
		Int("escalated", len(report.Escalated)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Dur("duration_ms", duration).
		Msg("sla sweep completed")
	return report, nil
}

// escalate appends the next escalation entry to one task. The decision is
// re-made on the freshly loaded copy inside the task's critical section.
func (s *Service) escalate(ctx context.Context, taskID string, now time.Time) (*domain.Escalation, error) {
	var raised *domain.Escalation
	_, err := s.mutate(ctx, "escalate", taskID, constants.SystemActor, func(t *domain.Task, _ time.Time) ([]change, error) {
		if !task.ShouldEscalate(t, now, s.config.Escalation) {
			return nil, nil
		}
		target := s.resolveEscalationTarget(ctx, t)
		raised = task.MaybeEscalate(t, now, target, "", s.config.Escalation)
		if raised == nil {
			return nil, nil
		}
		return []change{{
			event: constants.EventEscalationRaised,
			detail: map[string]string{
				"level":        strconv.Itoa(raised.Level),
				"escalated_to": raised.EscalatedTo,
			},
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	if raised != nil {
		s.metrics.EscalationRaised(raised.Level)
	}
	return raised, nil
}

// resolveEscalationTarget picks who receives the next escalation: the
// manager of the assignee for level 1, the manager of the previous target
// after that. Without a manager the configured default is used, then the
// previous target.
func (s *Service) resolveEscalationTarget(ctx context.Context, t *domain.Task) string {
	from := t.AssignedTo
	if n := len(t.Escalations); n > 0 && t.EscalationLevel > 0 {
		from = t.Escalations[n-1].EscalatedTo
	}

	if from != "" && s.directory != nil {
		manager, err := s.directory.ManagerOf(ctx, from)
		if err == nil && manager != "" {
			return manager
		}
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("user_id", from).Msg("no manager found for escalation")
		}
	}

	switch {
	case s.config.DefaultEscalationTarget != "":
		return s.config.DefaultEscalationTarget
	case from != "" && from != t.AssignedTo:
		return from
	default:
		return UnresolvedEscalationTarget
	}
}

// Sweeper runs Sweep periodically under a named lease so that only one
// process sweeps at a time.
type Sweeper struct {
	service  *Service
	lease    lease.Lease
	interval time.Duration
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewSweeper creates a Sweeper. Zero interval or ttl use the defaults.
func NewSweeper(service *Service, l lease.Lease, interval, ttl time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = constants.DefaultSweepInterval
	}
	if ttl <= 0 {
		ttl = constants.DefaultLeaseTTL
	}
	return &Sweeper{
		service:  service,
		lease:    l,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
	}
}

// WithInterval returns a copy of w that ticks every interval.
func (w *Sweeper) WithInterval(interval time.Duration) *Sweeper {
	c := *w
	if interval > 0 {
		c.interval = interval
	}
	return &c
}

// RunOnce acquires the sweep lease and runs one sweep. It returns
// ErrLeaseHeld when another process holds the lease.
func (w *Sweeper) RunOnce(ctx context.Context) (domain.SweepReport, error) {
	release, err := w.lease.Acquire(ctx, constants.SweepLeaseName, w.ttl)
	if err != nil {
		return domain.SweepReport{}, fmt.Errorf("failed to acquire sweep lease: %w", err)
	}
	defer func() {
		if relErr := release(ctxutil.Committed(ctx)); relErr != nil {
			w.logger.Warn().Err(relErr).Msg("failed to release sweep lease")
		}
	}()

	return w.service.Sweep(ctx)
}

// Run sweeps immediately and then on every interval until ctx is done.
func (w *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("sla sweeper started")
	for {
		w.tick(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info().Msg("sla sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Sweeper) tick(ctx context.Context) {
	_, err := w.RunOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, tferrors.ErrLeaseHeld):
		w.logger.Debug().Msg("sweep lease held elsewhere, skipping tick")
	case errors.Is(err, context.Canceled):
	default:
		w.logger.Warn().Err(err).Msg("sla sweep failed")
	}
}
