package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

func items(done ...bool) []domain.ChecklistItem {
	out := make([]domain.ChecklistItem, len(done))
	for i, d := range done {
		out[i] = domain.ChecklistItem{ID: string(rune('a' + i)), Text: "item", IsCompleted: d, Order: i}
	}
	return out
}

func TestChecklistProgress(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.ChecklistItem
		want  int
	}{
		{"empty", nil, 0},
		{"none done", items(false, false), 0},
		{"all done", items(true, true, true), 100},
		{"one of three rounds down", items(true, false, false), 33},
		{"two of three rounds up", items(true, true, false), 67},
		{"one of eight rounds half up", items(true, false, false, false, false, false, false, false), 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChecklistProgress(tt.items))
		})
	}
}

func TestSubTaskProgress(t *testing.T) {
	refs := []domain.SubTaskRef{
		{TaskID: "a", Status: constants.TaskStatusCompleted},
		{TaskID: "b", Status: constants.TaskStatusInProgress},
		{TaskID: "c", Status: constants.TaskStatusCancelled},
		{TaskID: "d", Status: constants.TaskStatusCompleted},
	}
	assert.Equal(t, 50, SubTaskProgress(refs))
	assert.Equal(t, 0, SubTaskProgress(nil))
}

func TestAddChecklistItem(t *testing.T) {
	task := newTestTask("task-1", constants.TaskStatusOpen)

	item, err := AddChecklistItem(task, "  Verify KYC documents ", "u-1", testNow)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Verify KYC documents", item.Text)
	assert.Equal(t, 0, item.Order)

	second, err := AddChecklistItem(task, "Collect cheque", "u-1", testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Order)
	assert.Len(t, task.Checklist, 2)
	assert.Equal(t, domain.ActivityChecklistUpdated, task.ActivityLog[len(task.ActivityLog)-1].Action)

	_, err = AddChecklistItem(task, "   ", "u-1", testNow)
	require.ErrorIs(t, err, tferrors.ErrValidation)
}

func TestAddChecklistItem_Limit(t *testing.T) {
	task := newTestTask("task-1", constants.TaskStatusOpen)
	task.Checklist = make([]domain.ChecklistItem, constants.MaxChecklistItems)

	_, err := AddChecklistItem(task, "one more", "", testNow)
	require.ErrorIs(t, err, tferrors.ErrValidation)
}

func TestToggleChecklistItem(t *testing.T) {
	task := newTestTask("task-1", constants.TaskStatusOpen)
	task.Checklist = items(true, false)

	res, err := ToggleChecklistItem(task, "b", true, "u-1", testNow)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Item.IsCompleted)
	require.NotNil(t, res.Item.CompletedAt)
	assert.Equal(t, testNow, *res.Item.CompletedAt)
	assert.True(t, res.ChecklistCompleted, "toggle completed the checklist")
	assert.Equal(t, 100, ChecklistProgress(task.Checklist))

	res, err = ToggleChecklistItem(task, "b", false, "u-1", testNow)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Item.IsCompleted)
	assert.Nil(t, res.Item.CompletedAt)
	assert.False(t, res.ChecklistCompleted)
	assert.Equal(t, 50, ChecklistProgress(task.Checklist))
}

func TestToggleChecklistItem_RepeatedRequestIsNoop(t *testing.T) {
	task := newTestTask("task-1", constants.TaskStatusOpen)
	task.Checklist = items(false, false)

	_, err := ToggleChecklistItem(task, "a", true, "u-1", testNow)
	require.NoError(t, err)
	before := task.Clone()

	res, err := ToggleChecklistItem(task, "a", true, "u-1", testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.ChecklistCompleted)
	assert.True(t, res.Item.IsCompleted)
	require.NotNil(t, res.Item.CompletedAt)
	assert.Equal(t, testNow, *res.Item.CompletedAt, "completion time is kept")
	assert.Equal(t, before, task, "no activity entry or timestamp change")
	assert.Equal(t, 50, ChecklistProgress(task.Checklist))

	res, err = ToggleChecklistItem(task, "b", false, "u-1", testNow)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Nil(t, res.Item.CompletedAt)
}

func TestToggleChecklistItem_NotFound(t *testing.T) {
	task := newTestTask("task-1", constants.TaskStatusOpen)
	task.Checklist = items(false)
	before := task.Clone()

	_, err := ToggleChecklistItem(task, "zzz", true, "u-1", testNow)
	require.ErrorIs(t, err, tferrors.ErrChecklistItemNotFound)
	require.ErrorIs(t, err, tferrors.ErrNotFound)
	assert.Equal(t, before, task)
}

func TestRemoveChecklistItem(t *testing.T) {
	task := newTestTask("task-1", constants.TaskStatusOpen)
	task.Checklist = items(false, true, false)

	require.NoError(t, RemoveChecklistItem(task, "b", "u-1", testNow))
	require.Len(t, task.Checklist, 2)
	assert.Equal(t, "a", task.Checklist[0].ID)
	assert.Equal(t, "c", task.Checklist[1].ID)
	assert.Equal(t, 1, task.Checklist[1].Order)

	require.ErrorIs(t, RemoveChecklistItem(task, "b", "u-1", testNow), tferrors.ErrNotFound)
}

func TestReorderChecklist(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		wantErr bool
	}{
		{"permutation", []string{"c", "a", "b"}, false},
		{"missing id", []string{"c", "a"}, true},
		{"unknown id", []string{"c", "a", "x"}, true},
		{"duplicate id", []string{"c", "c", "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTestTask("task-1", constants.TaskStatusOpen)
			task.Checklist = items(false, true, false)

			err := ReorderChecklist(task, tt.ids, "u-1", testNow)
			if tt.wantErr {
				require.ErrorIs(t, err, tferrors.ErrValidation)
				assert.Equal(t, "a", task.Checklist[0].ID)
				return
			}
			require.NoError(t, err)
			for i, id := range tt.ids {
				assert.Equal(t, id, task.Checklist[i].ID)
				assert.Equal(t, i, task.Checklist[i].Order)
			}
		})
	}
}

// TestChecklistProgress_MonotonicProperty checks that completing one more
// item never lowers the percentage and that it stays within 0..100.
func TestChecklistProgress_MonotonicProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		done := rapid.SliceOfN(rapid.Bool(), 1, 50).Draw(rt, "done")
		list := items(done...)
		before := ChecklistProgress(list)
		if before < 0 || before > 100 {
			rt.Fatalf("progress %d out of range", before)
		}

		idx := rapid.IntRange(0, len(list)-1).Draw(rt, "idx")
		if list[idx].IsCompleted {
			return
		}
		list[idx].IsCompleted = true
		if after := ChecklistProgress(list); after < before {
			rt.Fatalf("progress dropped from %d to %d", before, after)
		}
	})
}
