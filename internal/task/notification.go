package task

import (
	"context"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
)

// attentionEvents are the event types that ask a person to act.
//
//nolint:gochecknoglobals // Read-only lookup table for attention event checks
var attentionEvents = map[constants.EventType]bool{
	constants.EventEscalationRaised:   true,
	constants.EventChecklistCompleted: true,
	constants.EventTaskAssigned:       true,
}

// IsAttentionEvent returns true if the event should reach a person rather
// than only an audit trail.
func IsAttentionEvent(eventType constants.EventType) bool {
	return attentionEvents[eventType]
}

// Dispatcher receives the events emitted on every accepted mutation and is
// responsible for delivering them. A dispatch error is logged by the caller
// and never undoes the mutation.
type Dispatcher interface {
	Dispatch(ctx context.Context, event domain.Event) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, event domain.Event) error

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(ctx context.Context, event domain.Event) error {
	return f(ctx, event)
}

// NoopDispatcher drops every event.
type NoopDispatcher struct{}

// Ensure NoopDispatcher implements Dispatcher interface.
var _ Dispatcher = NoopDispatcher{}

// Dispatch implements Dispatcher.
func (NoopDispatcher) Dispatch(context.Context, domain.Event) error { return nil }
