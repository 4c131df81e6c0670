package domain

import (
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
)

// Event is emitted on every accepted mutation and handed to the notification
// dispatcher. Before is nil for creations and After is nil for deletions.
type Event struct {
	ID      string              `json:"id"`
	Type    constants.EventType `json:"type"`
	TaskID  string              `json:"task_id"`
	ActorID string              `json:"actor_id"`
	Before  *TaskSummary        `json:"before,omitempty"`
	After   *TaskSummary        `json:"after,omitempty"`
	At      time.Time           `json:"at"`

	// Detail carries event-specific data such as the escalation level or
	// the spawned recurrence instance id.
	Detail map[string]string `json:"detail,omitempty"`
}
