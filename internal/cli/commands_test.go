package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/board"
	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/errors"
)

type showResult struct {
	domain.Task

	Progress struct {
		Checklist      int `json:"checklist"`
		ChecklistDone  int `json:"checklist_done"`
		ChecklistTotal int `json:"checklist_total"`
		SubTasks       int `json:"sub_tasks"`
	} `json:"progress"`
	SLAState struct {
		Breached bool `json:"breached"`
		Warning  bool `json:"warning"`
	} `json:"sla_state"`
}

func TestTaskCommands_CreateShowList(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	var created domain.Task
	env.runJSON(t, &created, "task", "create",
		"--id", "t1",
		"--title", "Call back lead",
		"--category", "follow-up",
		"--priority", "high",
		"--assign", "agent-1",
		"--due", "2024-03-05",
		"--entity-type", "lead", "--entity-id", "L-2231", "--entity-label", "R. Mehta",
		"--checklist", "Dial", "--checklist", "Log outcome",
		"--tag", "hot",
	)
	assert.Equal(t, "t1", created.ID)
	assert.Equal(t, constants.TaskStatusOpen, created.Status)
	assert.Equal(t, constants.CategoryFollowUp, created.Category)
	assert.Equal(t, constants.PriorityHigh, created.Priority)
	assert.Equal(t, "agent-1", created.AssignedTo)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), created.DueDate.UTC())
	require.NotNil(t, created.LinkedEntity)
	assert.Equal(t, constants.EntityLead, created.LinkedEntity.EntityType)
	assert.Len(t, created.Checklist, 2)
	assert.Equal(t, constants.SystemActor, created.CreatedBy)

	var shown showResult
	env.runJSON(t, &shown, "task", "show", "t1")
	assert.Equal(t, "Call back lead", shown.Title)
	assert.Equal(t, 2, shown.Progress.ChecklistTotal)
	assert.Zero(t, shown.Progress.Checklist)
	assert.False(t, shown.SLAState.Breached)

	text := env.mustRun(t, "task", "show", "t1")
	assert.Contains(t, text, "Call back lead")
	assert.Contains(t, text, "L-2231")
	assert.Contains(t, text, "Checklist (0/2, 0%)")

	var listed []domain.Task
	env.runJSON(t, &listed, "task", "list", "--assignee", "agent-1")
	require.Len(t, listed, 1)
	assert.Equal(t, "t1", listed[0].ID)

	env.runJSON(t, &listed, "task", "ls", "--status", "completed")
	assert.Empty(t, listed)

	text = env.mustRun(t, "task", "list", "--status", "completed")
	assert.Contains(t, text, "No tasks match")
}

func TestTaskCommands_ActorFlag(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	var created domain.Task
	env.runJSON(t, &created, "--actor", "agent-2", "task", "create", "--title", "Send brochure")
	assert.Equal(t, "agent-2", created.CreatedBy)
	assert.NotEmpty(t, created.ID)
}

func TestTaskCommands_CreateValidation(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing title", []string{"task", "create"}},
		{"unknown priority", []string{"task", "create", "--title", "x", "--priority", "urgent-ish"}},
		{"bad due date", []string{"task", "create", "--title", "x", "--due", "next tuesday"}},
		{"entity id without type", []string{"task", "create", "--title", "x", "--entity-id", "L-1"}},
		{"unknown recurrence", []string{"task", "create", "--title", "x", "--recur", "hourly"}},
		{"due before start", []string{"task", "create", "--title", "x", "--start", "2024-03-05", "--due", "2024-03-01"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.run(tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
		})
	}
}

func TestTaskCommands_AssignCommentDelete(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.mustRun(t, "task", "create", "--id", "t1", "--title", "Collect KYC")

	var assigned domain.Task
	env.runJSON(t, &assigned, "task", "assign", "t1", "agent-2")
	assert.Equal(t, "agent-2", assigned.AssignedTo)

	_, err := env.run("task", "assign", "t1", "nobody")
	require.ErrorIs(t, err, errors.ErrNotFound)

	var comment domain.Comment
	env.runJSON(t, &comment, "--actor", "agent-2", "task", "comment", "t1", "Customer will share PAN tomorrow")
	assert.Equal(t, "agent-2", comment.AuthorID)
	assert.Equal(t, "Customer will share PAN tomorrow", comment.Body)

	out := env.mustRun(t, "task", "rm", "t1")
	assert.Contains(t, out, "Deleted task t1")

	_, err = env.run("task", "show", "t1")
	require.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, ExitError, ExitCodeForError(err))
}

func TestTransitionCommand(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.mustRun(t, "task", "create", "--id", "t1", "--title", "Registry appointment")

	out := env.mustRun(t, "transition", "t1", "in_progress")
	assert.Contains(t, out, "In Progress")

	var done domain.Task
	env.runJSON(t, &done, "transition", "t1", "completed", "--resolution", "Registered")
	assert.Equal(t, constants.TaskStatusCompleted, done.Status)
	assert.Equal(t, "Registered", done.Resolution)
	assert.NotNil(t, done.CompletedAt)

	_, err := env.run("transition", "t1", "under review")
	require.ErrorIs(t, err, errors.ErrInvalidTransition)
	assert.Equal(t, errors.KindInvalidTransition, errors.Kind(err))

	_, err = env.run("transition", "t1", "archived")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestBulkCommands(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.mustRun(t, "task", "create", "--id", "t1", "--title", "One")
	env.mustRun(t, "task", "create", "--id", "t2", "--title", "Two")

	var result domain.BulkResult
	env.runJSON(t, &result, "bulk", "transition", "in progress", "t1", "missing", "t2")
	assert.Equal(t, []string{"t1", "t2"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "missing", result.Failed[0].ID)
	assert.Equal(t, errors.KindNotFound, result.Failed[0].Kind)

	env.runJSON(t, &result, "bulk", "assign", "agent-1", "t1", "t2")
	assert.Equal(t, []string{"t1", "t2"}, result.Succeeded)
	assert.Empty(t, result.Failed)

	out, err := env.run("bulk", "transition", "open", "t1", "t2")
	require.NoError(t, err, "bulk failures are reported, not returned")
	assert.Contains(t, out, "2 of 2 tasks failed")
	assert.Contains(t, out, errors.KindInvalidTransition)
}

func TestChecklistCommands(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.mustRun(t, "task", "create", "--id", "t1", "--title", "Agreement drafting",
		"--checklist", "Draft", "--checklist", "Legal review")

	type checklistDoc struct {
		TaskID    string                 `json:"task_id"`
		Progress  int                    `json:"progress"`
		Checklist []domain.ChecklistItem `json:"checklist"`
	}

	var doc checklistDoc
	env.runJSON(t, &doc, "checklist", "add", "t1", "Customer signature")
	require.Len(t, doc.Checklist, 3)
	assert.Equal(t, "t1", doc.TaskID)

	first := doc.Checklist[0].ID
	env.runJSON(t, &doc, "cl", "toggle", "t1", first)
	assert.Equal(t, 33, doc.Progress)
	assert.True(t, doc.Checklist[0].IsCompleted)

	env.runJSON(t, &doc, "checklist", "toggle", "t1", first)
	assert.Equal(t, 33, doc.Progress, "repeating a toggle keeps the item done")
	assert.True(t, doc.Checklist[0].IsCompleted)

	env.runJSON(t, &doc, "checklist", "toggle", "t1", first, "--undone")
	assert.Zero(t, doc.Progress)
	assert.False(t, doc.Checklist[0].IsCompleted)

	env.runJSON(t, &doc, "checklist", "toggle", "t1", first)
	assert.Equal(t, 33, doc.Progress)

	ids := []string{doc.Checklist[2].ID, doc.Checklist[1].ID, doc.Checklist[0].ID}
	env.runJSON(t, &doc, append([]string{"checklist", "reorder", "t1"}, ids...)...)
	assert.Equal(t, "Customer signature", doc.Checklist[0].Text)

	env.runJSON(t, &doc, "checklist", "remove", "t1", first)
	assert.Len(t, doc.Checklist, 2)
	assert.Zero(t, doc.Progress)

	_, err := env.run("checklist", "toggle", "t1", "no-such-item")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSubTaskAndRecurrenceCommands(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.mustRun(t, "task", "create", "--id", "parent", "--title", "Possession handover")
	env.mustRun(t, "task", "create", "--id", "child", "--title", "Snag list")

	var parent domain.Task
	env.runJSON(t, &parent, "subtask", "link", "parent", "child")
	require.Len(t, parent.SubTasks, 1)
	assert.Equal(t, "child", parent.SubTasks[0].TaskID)

	_, err := env.run("subtask", "link", "child", "parent")
	require.ErrorIs(t, err, errors.ErrValidation, "cycles are rejected")

	_, err = env.run("task", "delete", "parent")
	require.Error(t, err, "a referenced parent cannot be deleted")

	env.mustRun(t, "task", "create", "--id", "monthly", "--title", "Ledger review",
		"--recur", "monthly", "--due", "2024-03-31")
	var rec domain.Recurrence
	env.runJSON(t, &rec, "recurrence", "stop", "monthly")
	assert.False(t, rec.IsRecurring)
}

func TestTemplateCommands(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	var summaries []templateSummary
	env.runJSON(t, &summaries, "template", "list")
	var siteVisit *templateSummary
	for i := range summaries {
		if summaries[i].Name == "site-visit" {
			siteVisit = &summaries[i]
		}
	}
	require.NotNil(t, siteVisit)
	assert.Equal(t, []string{"customer", "project"}, siteVisit.Required)
	assert.Equal(t, 2, siteVisit.SubTasks)

	var result struct {
		Task     domain.Task   `json:"task"`
		SubTasks []domain.Task `json:"sub_tasks"`
	}
	env.runJSON(t, &result, "template", "instantiate", "site-visit",
		"--var", "customer=Mehta", "--var", "project=Skyline",
		"--assign", "agent-1", "--entity-type", "lead", "--entity-id", "L-9")
	assert.Equal(t, "Site visit: Mehta at Skyline", result.Task.Title)
	assert.True(t, result.Task.AutoGenerated.IsAutoGenerated)
	assert.Equal(t, "agent-1", result.Task.AssignedTo)
	require.Len(t, result.SubTasks, 2)
	for _, sub := range result.SubTasks {
		assert.Equal(t, result.Task.ID, sub.ParentID)
	}

	var shown showResult
	env.runJSON(t, &shown, "task", "show", result.Task.ID)
	assert.Len(t, shown.SubTasks, 2)

	_, err := env.run("tpl", "new", "site-visit", "--var", "customer=Mehta")
	require.ErrorIs(t, err, errors.ErrTemplateVariableRequired)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))

	_, err = env.run("template", "instantiate", "no-such-template")
	require.ErrorIs(t, err, errors.ErrTemplateNotFound)
}

func TestBoardCommands(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.mustRun(t, "task", "create", "--id", "t1", "--title", "Brochure print")
	env.mustRun(t, "task", "create", "--id", "t2", "--title", "Hoarding design", "--assign", "agent-1")

	var columns []board.Column
	env.runJSON(t, &columns, "board", "move", "t1", "in progress")
	cards := cardsIn(columns, constants.TaskStatusInProgress)
	require.Len(t, cards, 1)
	assert.Equal(t, "t1", cards[0].ID)
	assert.False(t, cards[0].Pending)

	_, err := env.run("board", "move", "t2", "completed")
	require.ErrorIs(t, err, errors.ErrInvalidTransition)

	env.runJSON(t, &columns, "board", "--assignee", "agent-1", "--hide", "completed", "--hide", "cancelled")
	assert.Len(t, columns, len(constants.AllTaskStatuses())-2)
	require.Len(t, cardsIn(columns, constants.TaskStatusOpen), 1)
	assert.Empty(t, cardsIn(columns, constants.TaskStatusInProgress), "t1 is filtered out by assignee")

	text := env.mustRun(t, "board", "--width", "24")
	assert.Contains(t, text, "Brochure print")
}

func cardsIn(columns []board.Column, status constants.TaskStatus) []board.Card {
	for _, c := range columns {
		if c.Status == status {
			return c.Cards
		}
	}
	return nil
}

func TestSweepAndEscalationCommands(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	env.mustRun(t, "task", "create", "--id", "late", "--title", "Refund cheque",
		"--assign", "agent-1", "--due", "2024-02-28", "--sla-hours", "8")
	env.mustRun(t, "task", "create", "--id", "fine", "--title", "Welcome kit", "--due", "2024-03-10")

	var report domain.SweepReport
	env.runJSON(t, &report, "sweep")
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Breached)
	assert.Equal(t, []string{"late"}, report.Escalated)

	var entries []domain.Escalation
	env.runJSON(t, &entries, "escalation", "list", "late")
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Level)
	assert.Equal(t, "lead-1", entries[0].EscalatedTo)
	assert.False(t, entries[0].Acknowledged)

	env.runJSON(t, &entries, "--actor", "lead-1", "escalation", "ack", "late", "1")
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Acknowledged)
	assert.Equal(t, "lead-1", entries[0].AcknowledgedBy)

	_, err := env.run("escalation", "ack", "late", "0")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))

	out := env.mustRun(t, "escalation", "list", "fine")
	assert.Contains(t, out, "has not been escalated")
}

func TestSweepCommand_LeaseHeld(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	release, err := env.lease.Acquire(context.Background(), constants.SweepLeaseName, time.Minute)
	require.NoError(t, err)
	defer func() { _ = release(context.Background()) }()

	var doc map[string]bool
	env.runJSON(t, &doc, "sweep")
	assert.True(t, doc["lease_held"])

	out := env.mustRun(t, "sweep")
	assert.Contains(t, out, "Another sweeper holds the SLA sweep lease")
}
