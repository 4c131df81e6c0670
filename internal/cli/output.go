package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/task"
	"github.com/mrz1836/taskflow/internal/tui"
	"github.com/mrz1836/taskflow/internal/workflow"
)

// dateLayouts are the accepted --due and --start formats, tried in order.
// Values without a zone are read as UTC.
var dateLayouts = []string{ //nolint:gochecknoglobals // immutable lookup table
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// errorDocument is the --output json shape of a failed command.
type errorDocument struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string             `json:"kind"`
	Message string             `json:"message"`
	Detail  string             `json:"detail"`
	Action  string             `json:"action,omitempty"`
	Fields  errors.FieldErrors `json:"fields,omitempty"`
}

// taskView is the detailed JSON form of one task.
type taskView struct {
	*domain.Task

	Progress workflow.Progress `json:"progress"`
	SLAState task.SLAState     `json:"sla_state"`
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeJSONError(w io.Writer, err error) error {
	message, action := errors.Actionable(err)
	return writeJSON(w, errorDocument{Error: errorBody{
		Kind:    errors.Kind(err),
		Message: message,
		Detail:  err.Error(),
		Action:  action,
		Fields:  errors.Fields(err),
	}})
}

// parseTime reads a timestamp in one of dateLayouts. Empty input is nil.
func parseTime(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil //nolint:nilnil // unset is not an error
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fieldError(field, fmt.Sprintf("cannot parse %q; use YYYY-MM-DD or RFC3339", s))
}

func parseStatus(s string) (constants.TaskStatus, error) {
	status, ok := constants.ParseTaskStatus(s)
	if !ok {
		return "", fieldError("status", fmt.Sprintf("unknown status %q", s))
	}
	return status, nil
}

func parsePriority(s string) (constants.Priority, error) {
	if s == "" {
		return "", nil
	}
	p, ok := constants.ParsePriority(s)
	if !ok {
		return "", fieldError("priority", fmt.Sprintf("unknown priority %q", s))
	}
	return p, nil
}

func parseCategory(s string) (constants.Category, error) {
	if s == "" {
		return "", nil
	}
	c, ok := constants.ParseCategory(s)
	if !ok {
		return "", fieldError("category", fmt.Sprintf("unknown category %q", s))
	}
	return c, nil
}

// parseEntity builds a linked entity from flag values. Both type and id are
// needed; neither means no link.
func parseEntity(entityType, entityID, label string) (*domain.LinkedEntity, error) {
	if entityType == "" && entityID == "" {
		return nil, nil //nolint:nilnil // no link requested
	}
	if entityType == "" || entityID == "" {
		return nil, fieldError("linked_entity", "--entity-type and --entity-id must be given together")
	}
	et, ok := constants.ParseEntityType(entityType)
	if !ok {
		return nil, fieldError("linked_entity.entity_type", fmt.Sprintf("unknown entity type %q", entityType))
	}
	return &domain.LinkedEntity{EntityType: et, EntityID: entityID, DisplayLabel: label}, nil
}

func fieldError(field, message string) error {
	var fe errors.FieldErrors
	fe.Add(field, message)
	return fe.Err()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// taskRows renders tasks as table rows for list views.
func taskRows(tasks []*domain.Task, now time.Time) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := formatTime(t.DueDate)
		if task.IsOverdue(t, now) {
			due = alert(tui.ColorError, due+" !")
		}
		rows = append(rows, []string{
			t.ID,
			tui.RenderStatus(t.Status),
			tui.RenderPriority(t.Priority),
			t.Title,
			orDash(t.AssignedTo),
			due,
		})
	}
	return rows
}

var taskHeaders = []string{"ID", "STATUS", "PRIORITY", "TITLE", "ASSIGNEE", "DUE"} //nolint:gochecknoglobals // table layout

// renderTask writes the detailed text view of one task.
func renderTask(w io.Writer, v taskView) {
	t := v.Task
	line := func(label, value string) {
		_, _ = fmt.Fprintf(w, "%-12s %s\n", label+":", value)
	}

	_, _ = fmt.Fprintln(w, tui.StyleBold.Render(t.Title))
	line("ID", t.ID)
	line("Status", tui.RenderStatus(t.Status))
	line("Priority", tui.RenderPriority(t.Priority))
	line("Category", string(t.Category))
	line("Assignee", orDash(t.AssignedTo))
	line("Due", formatTime(t.DueDate))
	if t.LinkedEntity != nil {
		le := t.LinkedEntity
		label := fmt.Sprintf("%s %s", le.EntityType, le.EntityID)
		if le.DisplayLabel != "" {
			label += " (" + le.DisplayLabel + ")"
		}
		line("Linked", label)
	}
	if len(t.Tags) > 0 {
		line("Tags", strings.Join(t.Tags, ", "))
	}
	if t.ParentID != "" {
		line("Parent", t.ParentID)
	}
	if t.Recurrence.IsRecurring {
		line("Recurs", fmt.Sprintf("%s every %d, next %s", t.Recurrence.Pattern, t.Recurrence.Interval, formatTime(t.Recurrence.NextOccurrence)))
	}
	if t.SLA.TargetResolutionHours > 0 {
		line("SLA", slaText(v.SLAState))
	}
	if t.Resolution != "" {
		line("Resolution", t.Resolution)
	}

	if len(t.Checklist) > 0 {
		_, _ = fmt.Fprintf(w, "\nChecklist (%d/%d, %d%%)\n", v.Progress.ChecklistDone, v.Progress.ChecklistTotal, v.Progress.Checklist)
		for _, item := range t.Checklist {
			mark := "[ ]"
			if item.IsCompleted {
				mark = "[x]"
			}
			_, _ = fmt.Fprintf(w, "  %s %s  %s\n", mark, item.Text, tui.StyleDim.Render(item.ID))
		}
	}

	if len(t.SubTasks) > 0 {
		_, _ = fmt.Fprintf(w, "\nSub-tasks (%d%%)\n", v.Progress.SubTasks)
		for _, ref := range t.SubTasks {
			_, _ = fmt.Fprintf(w, "  %s %s  %s\n", tui.RenderStatus(ref.Status), ref.Title, tui.StyleDim.Render(ref.TaskID))
		}
	}

	if len(t.Escalations) > 0 {
		_, _ = fmt.Fprintln(w, "\nEscalations")
		for _, e := range t.Escalations {
			state := "open"
			if e.Acknowledged {
				state = "acknowledged by " + e.AcknowledgedBy
			}
			_, _ = fmt.Fprintf(w, "  L%d → %s  %s  (%s)\n", e.Level, e.EscalatedTo, e.Reason, state)
		}
	}

	if len(t.Comments) > 0 {
		_, _ = fmt.Fprintln(w, "\nComments")
		for _, c := range t.Comments {
			_, _ = fmt.Fprintf(w, "  %s %s: %s\n", c.At.Format("2006-01-02 15:04"), c.AuthorID, c.Body)
		}
	}
}

func slaText(s task.SLAState) string {
	switch {
	case s.Breached:
		return alert(tui.ColorError, "breached") + " (at " + formatTime(s.BreachAt) + ")"
	case s.Warning:
		return alert(tui.ColorWarning, "warning") + " (breach at " + formatTime(s.BreachAt) + ")"
	default:
		return "on track (breach at " + formatTime(s.BreachAt) + ")"
	}
}

func alert(c lipgloss.TerminalColor, s string) string {
	return tui.StyleBold.Foreground(c).Render(s)
}
