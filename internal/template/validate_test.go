package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/constants"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/task"
)

func TestValidateTemplate(t *testing.T) {
	valid := func() *Template {
		return &Template{
			Name: "ok",
			Task: Blueprint{
				Title:    "Do it",
				Category: constants.CategoryMeeting,
				Priority: constants.PriorityLow,
			},
			SubTasks:  []Blueprint{{Title: "Prep"}},
			Variables: map[string]Variable{"customer_name": {}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Template)
		wantMsg string
	}{
		{"valid", func(*Template) {}, ""},
		{"blank name", func(t *Template) { t.Name = "  " }, "name is required"},
		{"blank title", func(t *Template) { t.Task.Title = "" }, "task: title is required"},
		{"sub-task title", func(t *Template) { t.SubTasks[0].Title = "" }, "sub_tasks[0]: title is required"},
		{"category", func(t *Template) { t.Task.Category = "Gardening" }, "unknown category"},
		{"priority", func(t *Template) { t.Task.Priority = "Urgent" }, "unknown priority"},
		{"due in", func(t *Template) { t.Task.DueIn = -1 }, "due_in must not be negative"},
		{"sla", func(t *Template) { t.Task.SLA.TargetResolutionHours = -2 }, "sla target"},
		{"recurrence pattern", func(t *Template) {
			t.Task.Recurrence = &task.RecurrenceParams{Pattern: "hourly", Interval: 1}
		}, "task"},
		{"recurrence interval", func(t *Template) {
			t.Task.Recurrence = &task.RecurrenceParams{Pattern: constants.RecurrenceDaily, Interval: 0}
		}, "interval"},
		{"checklist item", func(t *Template) { t.Task.Checklist = []string{"a", " "} }, "checklist[1] is empty"},
		{"variable name", func(t *Template) { t.Variables["bad-name"] = Variable{} }, `invalid variable name "bad-name"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := valid()
			tc.mutate(tmpl)

			err := ValidateTemplate(tmpl)
			if tc.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tferrors.ErrTemplateInvalid)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestValidateTemplate_Nil(t *testing.T) {
	require.ErrorIs(t, ValidateTemplate(nil), tferrors.ErrTemplateInvalid)
}
