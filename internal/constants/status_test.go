package constants

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatus_JSONRoundTripUsesDisplayValue(t *testing.T) {
	data, err := json.Marshal(TaskStatusInProgress)
	require.NoError(t, err)
	assert.JSONEq(t, `"In Progress"`, string(data))

	var status TaskStatus
	require.NoError(t, json.Unmarshal([]byte(`"Under Review"`), &status))
	assert.Equal(t, TaskStatusUnderReview, status)
}

func TestAllTaskStatuses_Unique(t *testing.T) {
	seen := make(map[TaskStatus]bool)
	for _, s := range AllTaskStatuses() {
		assert.False(t, seen[s], "duplicate status %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, 6)
}

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		in   string
		want TaskStatus
		ok   bool
	}{
		{"Open", TaskStatusOpen, true},
		{"in progress", TaskStatusInProgress, true},
		{"in_progress", TaskStatusInProgress, true},
		{"IN-PROGRESS", TaskStatusInProgress, true},
		{"  under   review ", TaskStatusUnderReview, true},
		{"on_hold", TaskStatusOnHold, true},
		{"completed", TaskStatusCompleted, true},
		{"CANCELLED", TaskStatusCancelled, true},
		{"canceled", "", false},
		{"", "", false},
		{"done", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTaskStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePriorityAndCategory(t *testing.T) {
	p, ok := ParsePriority("critical")
	require.True(t, ok)
	assert.Equal(t, PriorityCritical, p)

	_, ok = ParsePriority("urgent")
	assert.False(t, ok)

	c, ok := ParseCategory("follow-up")
	require.True(t, ok)
	assert.Equal(t, CategoryFollowUp, c)

	c, ok = ParseCategory("site_visit")
	require.True(t, ok)
	assert.Equal(t, CategorySiteVisit, c)
}

func TestParseEntityType(t *testing.T) {
	e, ok := ParseEntityType("lead")
	require.True(t, ok)
	assert.Equal(t, EntityLead, e)

	_, ok = ParseEntityType("tower")
	assert.False(t, ok)
}

func TestParseRecurrencePattern(t *testing.T) {
	for _, p := range AllRecurrencePatterns() {
		got, ok := ParseRecurrencePattern(" " + string(p) + " ")
		require.True(t, ok)
		assert.Equal(t, p, got)
	}

	got, ok := ParseRecurrencePattern("Weekly")
	require.True(t, ok)
	assert.Equal(t, RecurrenceWeekly, got)

	_, ok = ParseRecurrencePattern("yearly")
	assert.False(t, ok)
}
