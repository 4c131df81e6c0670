// Package metrics implements task.Metrics on Prometheus collectors and
// serves them over HTTP.
//
// Import rules:
//   - CAN import: internal/task, internal/domain, internal/constants, std lib
//   - MUST NOT import: internal/workflow, internal/cli
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/task"
)

// Ensure Prometheus implements task.Metrics.
var _ task.Metrics = (*Prometheus)(nil)

// outcomeApplied labels accepted transitions.
const outcomeApplied = "applied"

// Prometheus records engine metrics on Prometheus collectors.
type Prometheus struct {
	tasksCreated   *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	busyRejections *prometheus.CounterVec
	escalations    *prometheus.CounterVec
	bulkSize       *prometheus.HistogramVec
	bulkFailures   *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
	sweepBreached  prometheus.Gauge
	sweepSkipped   prometheus.Counter
}

// New creates the collectors and registers them with reg. An empty
// namespace uses the default.
func New(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	if namespace == "" {
		namespace = constants.DefaultMetricsNamespace
	}

	p := &Prometheus{
		tasksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Tasks stored, by auto-generation trigger (empty for manual).",
		}, []string{"trigger"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Status transitions by from, to and outcome.",
		}, []string{"from", "to", "outcome"}),
		busyRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "busy_rejections_total",
			Help:      "Mutations refused because another was in flight.",
		}, []string{"operation"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_raised_total",
			Help:      "Escalation entries appended, by level.",
		}, []string{"level"}),
		bulkSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_batch_size",
			Help:      "Tasks per bulk request after de-duplication.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"operation"}),
		bulkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_failures_total",
			Help:      "Per-task failures inside bulk requests, by error kind.",
		}, []string{"operation", "kind"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of each SLA sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		sweepBreached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_breached_tasks",
			Help:      "Breached tasks seen by the last SLA sweep.",
		}),
		sweepSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_skipped_total",
			Help:      "Tasks a sweep skipped because a mutation was in flight.",
		}),
	}

	for _, c := range []prometheus.Collector{
		p.tasksCreated, p.transitions, p.busyRejections, p.escalations,
		p.bulkSize, p.bulkFailures, p.sweepDuration, p.sweepBreached, p.sweepSkipped,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}
	return p, nil
}

// TaskCreated implements task.Metrics.
func (p *Prometheus) TaskCreated(trigger string) {
	p.tasksCreated.WithLabelValues(trigger).Inc()
}

// TransitionApplied implements task.Metrics.
func (p *Prometheus) TransitionApplied(from, to constants.TaskStatus) {
	p.transitions.WithLabelValues(string(from), string(to), outcomeApplied).Inc()
}

// TransitionRejected implements task.Metrics.
func (p *Prometheus) TransitionRejected(from, to constants.TaskStatus, kind string) {
	p.transitions.WithLabelValues(string(from), string(to), kind).Inc()
}

// BusyRejected implements task.Metrics.
func (p *Prometheus) BusyRejected(operation string) {
	p.busyRejections.WithLabelValues(operation).Inc()
}

// EscalationRaised implements task.Metrics.
func (p *Prometheus) EscalationRaised(level int) {
	p.escalations.WithLabelValues(strconv.Itoa(level)).Inc()
}

// BulkCompleted implements task.Metrics.
func (p *Prometheus) BulkCompleted(operation string, result domain.BulkResult) {
	p.bulkSize.WithLabelValues(operation).Observe(float64(result.Total()))
	for _, f := range result.Failed {
		p.bulkFailures.WithLabelValues(operation, f.Kind).Inc()
	}
}

// SweepCompleted implements task.Metrics.
func (p *Prometheus) SweepCompleted(duration time.Duration, report domain.SweepReport) {
	p.sweepDuration.Observe(duration.Seconds())
	p.sweepBreached.Set(float64(report.Breached))
	p.sweepSkipped.Add(float64(len(report.Skipped)))
}

// Serve exposes gatherer on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}
