// Package template provides reusable task blueprints.
//
// A Template describes a task and its sub-tasks with {{variable}}
// placeholders. Instantiate turns a template into task.CreateParams that
// enter the engine exactly like a manual creation, marked as auto-generated
// with a "template:<name>" trigger.
//
// Import rules:
//   - CAN import: internal/task, internal/domain, internal/constants, internal/errors, std lib
//   - MUST NOT import: internal/workflow, internal/cli, internal/config
package template

import (
	"maps"
	"slices"
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/task"
)

// Template is a named blueprint for a task and its sub-tasks.
type Template struct {
	Name        string
	Description string
	Task        Blueprint
	SubTasks    []Blueprint
	Variables   map[string]Variable
}

// Blueprint holds the creation defaults of one task.
type Blueprint struct {
	Title       string
	Description string
	Category    constants.Category
	Priority    constants.Priority
	Tags        []string
	Checklist   []string

	// DueIn sets the due date relative to instantiation. Zero leaves it unset.
	DueIn time.Duration

	SLA        domain.SLAConfig
	Recurrence *task.RecurrenceParams
}

// Variable is a placeholder a template expects at instantiation.
type Variable struct {
	Description string
	Default     string
	Required    bool
}

// Clone returns a deep copy of t.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	c := &Template{
		Name:        t.Name,
		Description: t.Description,
		Task:        t.Task.clone(),
	}
	if len(t.SubTasks) > 0 {
		c.SubTasks = make([]Blueprint, len(t.SubTasks))
		for i, b := range t.SubTasks {
			c.SubTasks[i] = b.clone()
		}
	}
	if t.Variables != nil {
		c.Variables = maps.Clone(t.Variables)
	}
	return c
}

func (b Blueprint) clone() Blueprint {
	c := b
	c.Tags = slices.Clone(b.Tags)
	c.Checklist = slices.Clone(b.Checklist)
	if b.SLA.WarningThresholdHours != nil {
		w := *b.SLA.WarningThresholdHours
		c.SLA.WarningThresholdHours = &w
	}
	if b.Recurrence != nil {
		r := *b.Recurrence
		c.Recurrence = &r
	}
	return c
}
