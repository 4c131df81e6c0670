package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/task"
)

// AddChecklistCommand adds the checklist command group to the root command.
func AddChecklistCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:     "checklist",
		Aliases: []string{"cl"},
		Short:   "Edit a task's checklist",
	}

	cmd.AddCommand(
		checklistCmd(s, "add <id> <text>", "Append a checklist item",
			func(app *App, cmd *cobra.Command, args []string) (*domain.Task, error) {
				return app.Service.AddChecklistItem(cmd.Context(), args[0], args[1], s.actor)
			}, cobra.ExactArgs(2)),
		checklistToggleCmd(s),
		checklistCmd(s, "remove <id> <item-id>", "Remove a checklist item",
			func(app *App, cmd *cobra.Command, args []string) (*domain.Task, error) {
				return app.Service.RemoveChecklistItem(cmd.Context(), args[0], args[1], s.actor)
			}, cobra.ExactArgs(2)),
		checklistCmd(s, "reorder <id> <item-id>...", "Set the checklist order; every item id must be listed once",
			func(app *App, cmd *cobra.Command, args []string) (*domain.Task, error) {
				return app.Service.ReorderChecklist(cmd.Context(), args[0], args[1:], s.actor)
			}, cobra.MinimumNArgs(2)),
	)

	root.AddCommand(cmd)
}

// checklistToggleCmd marks an item done, or not done with --undone. Repeating
// a request leaves the item as it is.
func checklistToggleCmd(s *session) *cobra.Command {
	var undone bool
	cmd := checklistCmd(s, "toggle <id> <item-id>", "Mark a checklist item done or not done",
		func(app *App, cmd *cobra.Command, args []string) (*domain.Task, error) {
			return app.Service.ToggleChecklistItem(cmd.Context(), args[0], args[1], !undone, s.actor)
		}, cobra.ExactArgs(2))
	cmd.Long = `Mark a checklist item done. With --undone the item is reopened instead.
Asking for the state the item is already in changes nothing.

Examples:
  taskflow checklist toggle 7f3c 91ab
  taskflow checklist toggle 7f3c 91ab --undone`
	cmd.Flags().BoolVar(&undone, "undone", false, "mark the item as not done")
	return cmd
}

type checklistOp func(app *App, cmd *cobra.Command, args []string) (*domain.Task, error)

func checklistCmd(s *session, use, short string, op checklistOp, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			t, err := op(app, cmd, args)
			if err != nil {
				return err
			}
			return writeChecklist(cmd, s, t)
		},
	}
}

func writeChecklist(cmd *cobra.Command, s *session, t *domain.Task) error {
	w := cmd.OutOrStdout()
	if s.jsonOutput() {
		items := t.Checklist
		if items == nil {
			items = []domain.ChecklistItem{}
		}
		return writeJSON(w, map[string]any{
			"task_id":   t.ID,
			"progress":  task.ChecklistProgress(t.Checklist),
			"checklist": items,
		})
	}

	out := s.output(w)
	out.Success(fmt.Sprintf("Checklist of %s is %d%% complete", t.ID, task.ChecklistProgress(t.Checklist)))
	rows := make([][]string, 0, len(t.Checklist))
	for _, item := range t.Checklist {
		done := " "
		if item.IsCompleted {
			done = "x"
		}
		rows = append(rows, []string{item.ID, "[" + done + "]", item.Text})
	}
	out.Table([]string{"ITEM", "DONE", "TEXT"}, rows)
	return nil
}
