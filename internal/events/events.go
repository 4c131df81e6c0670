// Package events provides task.Dispatcher implementations: a NATS
// publisher, a structured log sink, an in-memory recorder and fan-out
// helpers.
//
// Import rules:
//   - CAN import: internal/task, internal/domain, internal/constants, internal/errors, std lib
//   - MUST NOT import: internal/workflow, internal/cli
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/task"
)

// Compile-time interface checks.
var (
	_ task.Dispatcher = (*NATS)(nil)
	_ task.Dispatcher = (*Log)(nil)
	_ task.Dispatcher = (*Recorder)(nil)
	_ task.Dispatcher = Multi(nil)
)

// Publisher is the part of *nats.Conn the NATS dispatcher needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Connect dials a NATS server for event publishing.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, tferrors.Unavailable(fmt.Errorf("connect to NATS: %w", err))
	}
	return conn, nil
}

// NATS publishes each event as JSON on <prefix>.<event type>.
type NATS struct {
	pub    Publisher
	prefix string
}

// NewNATS creates a NATS dispatcher. An empty prefix uses the default.
func NewNATS(pub Publisher, prefix string) *NATS {
	if prefix == "" {
		prefix = constants.DefaultEventSubjectPrefix
	}
	return &NATS{pub: pub, prefix: prefix}
}

// Subject returns the subject an event type is published on.
func (n *NATS) Subject(eventType constants.EventType) string {
	return n.prefix + "." + string(eventType)
}

// Dispatch implements task.Dispatcher.
func (n *NATS) Dispatch(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.pub.Publish(n.Subject(event.Type), data); err != nil {
		return tferrors.Unavailable(fmt.Errorf("publish %s: %w", event.Type, err))
	}
	return nil
}

// Log writes every event to a zerolog logger. Attention events are logged
// at warn level.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a Log dispatcher.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

// Dispatch implements task.Dispatcher.
func (l *Log) Dispatch(_ context.Context, event domain.Event) error {
	e := l.logger.Info()
	if task.IsAttentionEvent(event.Type) {
		e = l.logger.Warn()
	}
	e = e.Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("task_id", event.TaskID).
		Str("actor_id", event.ActorID).
		Time("at", event.At)
	if event.Before != nil && event.After != nil && event.Before.Status != event.After.Status {
		e = e.Str("from", string(event.Before.Status)).Str("to", string(event.After.Status))
	}
	if len(event.Detail) > 0 {
		detail := zerolog.Dict()
		for k, v := range event.Detail {
			detail = detail.Str(k, v)
		}
		e = e.Dict("detail", detail)
	}
	e.Msg("task event")
	return nil
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// Dispatch implements task.Dispatcher.
func (r *Recorder) Dispatch(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events in dispatch order.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// OfType returns the recorded events of one type.
func (r *Recorder) OfType(eventType constants.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Multi hands each event to every dispatcher in order. All dispatchers are
// called even when one fails; the failures are joined.
type Multi []task.Dispatcher

// Dispatch implements task.Dispatcher.
func (m Multi) Dispatch(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AttentionOnly forwards only the events that need a person's attention:
// escalations, completed checklists and assignments.
func AttentionOnly(next task.Dispatcher) task.Dispatcher {
	return task.DispatcherFunc(func(ctx context.Context, event domain.Event) error {
		if !task.IsAttentionEvent(event.Type) {
			return nil
		}
		return next.Dispatch(ctx, event)
	})
}
