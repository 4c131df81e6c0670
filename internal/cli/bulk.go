package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/workflow"
)

// AddBulkCommand adds the bulk command group to the root command.
// Bulk commands apply one operation to many tasks; a failure on one task
// never stops the others. Failures are listed, and the command still exits 0.
func AddBulkCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one change to many tasks",
	}

	var resolution string
	transition := &cobra.Command{
		Use:   "transition <status> <id>...",
		Short: "Move many tasks to one status",
		Example: `  taskflow bulk transition "on hold" 7f3c 91ab c0de
  taskflow bulk transition completed 7f3c 91ab --resolution "Handover done"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseStatus(args[0])
			if err != nil {
				return err
			}
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			result := app.Coordinator.BulkTransition(cmd.Context(), args[1:], target, workflow.TransitionRequest{
				Actor:      s.actor,
				Resolution: resolution,
			})
			return writeBulkResult(cmd.OutOrStdout(), s, "moved to "+string(target), result)
		},
	}
	transition.Flags().StringVar(&resolution, "resolution", "", "resolution note recorded on completion")

	assign := &cobra.Command{
		Use:     "assign <user> <id>...",
		Short:   "Assign many tasks to one user",
		Example: `  taskflow bulk assign agent-7 7f3c 91ab c0de`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			result := app.Coordinator.BulkAssign(cmd.Context(), args[1:], args[0], s.actor)
			return writeBulkResult(cmd.OutOrStdout(), s, "assigned to "+args[0], result)
		},
	}

	cmd.AddCommand(transition, assign)
	root.AddCommand(cmd)
}

func writeBulkResult(w io.Writer, s *session, verb string, result domain.BulkResult) error {
	if s.jsonOutput() {
		if result.Succeeded == nil {
			result.Succeeded = []string{}
		}
		if result.Failed == nil {
			result.Failed = []domain.Failure{}
		}
		return writeJSON(w, result)
	}

	out := s.output(w)
	if len(result.Succeeded) > 0 {
		out.Success(fmt.Sprintf("%d of %d tasks %s", len(result.Succeeded), result.Total(), verb))
	}
	if len(result.Failed) == 0 {
		return nil
	}

	out.Warning(fmt.Sprintf("%d of %d tasks failed", len(result.Failed), result.Total()))
	rows := make([][]string, 0, len(result.Failed))
	for _, f := range result.Failed {
		rows = append(rows, []string{f.ID, f.Kind, f.Reason})
	}
	out.Table([]string{"ID", "KIND", "REASON"}, rows)
	return nil
}
