package task

import (
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
)

// Metrics collects metrics about workflow mutations and sweeps.
// Implementations can send these to monitoring systems like Prometheus,
// StatsD, or custom observability platforms.
type Metrics interface {
	// TaskCreated is called after a task is stored. trigger is empty for
	// manual creation, otherwise the auto-generation trigger type.
	TaskCreated(trigger string)

	// TransitionApplied is called after an accepted status change.
	TransitionApplied(from, to constants.TaskStatus)

	// TransitionRejected is called when a transition fails. kind is the error kind.
	TransitionRejected(from, to constants.TaskStatus, kind string)

	// BusyRejected is called when a mutation is refused because another is in flight.
	BusyRejected(operation string)

	// EscalationRaised is called for every appended escalation entry.
	EscalationRaised(level int)

	// BulkCompleted is called once per bulk request.
	BulkCompleted(operation string, result domain.BulkResult)

	// SweepCompleted is called after each SLA sweep.
	SweepCompleted(duration time.Duration, report domain.SweepReport)
}

// NoopMetrics is a no-op implementation of Metrics for default behavior.
// Use this when metrics collection is not needed.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Metrics interface.
var _ Metrics = (*NoopMetrics)(nil)

// TaskCreated implements Metrics.
func (NoopMetrics) TaskCreated(string) {}

// TransitionApplied implements Metrics.
func (NoopMetrics) TransitionApplied(constants.TaskStatus, constants.TaskStatus) {}

// TransitionRejected implements Metrics.
func (NoopMetrics) TransitionRejected(constants.TaskStatus, constants.TaskStatus, string) {}

// BusyRejected implements Metrics.
func (NoopMetrics) BusyRejected(string) {}

// EscalationRaised implements Metrics.
func (NoopMetrics) EscalationRaised(int) {}

// BulkCompleted implements Metrics.
func (NoopMetrics) BulkCompleted(string, domain.BulkResult) {}

// SweepCompleted implements Metrics.
func (NoopMetrics) SweepCompleted(time.Duration, domain.SweepReport) {}
