package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
)

func TestListFilter_Match(t *testing.T) {
	tk := &domain.Task{
		ID:         "t1",
		Status:     constants.TaskStatusInProgress,
		AssignedTo: "agent-1",
		Category:   constants.CategorySiteVisit,
		Priority:   constants.PriorityHigh,
		Tags:       []string{"tower-b", "vip"},
		ParentID:   "p1",
		DueDate:    ptrTime(testNow.Add(-2 * time.Hour)),
		SLA:        domain.SLAConfig{TargetResolutionHours: 1},
		LinkedEntity: &domain.LinkedEntity{
			EntityType: constants.EntityLead,
			EntityID:   "lead-42",
		},
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   bool
	}{
		{"empty matches", ListFilter{}, true},
		{"status", ListFilter{Statuses: []constants.TaskStatus{constants.TaskStatusOpen, constants.TaskStatusInProgress}}, true},
		{"status miss", ListFilter{Statuses: []constants.TaskStatus{constants.TaskStatusOpen}}, false},
		{"assignee", ListFilter{AssignedTo: "agent-1"}, true},
		{"assignee miss", ListFilter{AssignedTo: "agent-2"}, false},
		{"category", ListFilter{Category: constants.CategorySiteVisit}, true},
		{"priority miss", ListFilter{Priority: constants.PriorityLow}, false},
		{"tag", ListFilter{Tag: "vip"}, true},
		{"tag miss", ListFilter{Tag: "nri"}, false},
		{"entity", ListFilter{EntityType: constants.EntityLead, EntityID: "lead-42"}, true},
		{"entity id miss", ListFilter{EntityID: "lead-7"}, false},
		{"parent", ListFilter{ParentID: "p1"}, true},
		{"overdue", ListFilter{OverdueOnly: true}, true},
		{"breached", ListFilter{BreachedOnly: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tk, testNow))
		})
	}

	t.Run("entity filter without linked entity", func(t *testing.T) {
		bare := &domain.Task{ID: "t2", Status: constants.TaskStatusOpen}
		assert.False(t, ListFilter{EntityType: constants.EntityLead}.Match(bare, testNow))
		assert.False(t, ListFilter{OverdueOnly: true}.Match(bare, testNow))
	})
}
