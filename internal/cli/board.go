package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/board"
	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/tui"
)

type boardOptions struct {
	list   taskListOptions
	width  int
	hidden []string
}

// AddBoardCommand adds the board command to the root command.
func AddBoardCommand(root *cobra.Command, s *session) {
	var opts boardOptions

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks as a Kanban board",
		Long: `Show tasks in one column per status.

Examples:
  taskflow board --assignee agent-7
  taskflow board --hide completed --hide cancelled --width 30
  taskflow board move 7f3c "under review"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hidden, err := hiddenStatuses(opts.hidden)
			if err != nil {
				return err
			}
			b, err := loadBoard(cmd.Context(), s, opts.list)
			if err != nil {
				return err
			}
			return writeBoard(cmd, s, b, hidden, opts.width)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.list.assignee, "assignee", "", "only tasks assigned to this user")
	pf.StringVar(&opts.list.category, "category", "", "only tasks in this category")
	pf.StringVar(&opts.list.entityType, "entity-type", "", "only tasks linked to this entity type")
	pf.StringVar(&opts.list.entityID, "entity-id", "", "only tasks linked to this entity id")
	pf.IntVar(&opts.width, "width", tui.DefaultColumnWidth, "column width")
	pf.StringSliceVar(&opts.hidden, "hide", nil, "status column to hide (repeatable)")

	move := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Drag a card to another column",
		Long: `Move a card to another status column. The board shows the move at once
and puts the card back if the engine rejects the transition.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			hidden, err := hiddenStatuses(opts.hidden)
			if err != nil {
				return err
			}
			b, err := loadBoard(cmd.Context(), s, opts.list)
			if err != nil {
				return err
			}
			if err := b.Move(cmd.Context(), args[0], target); err != nil {
				return err
			}
			if !s.jsonOutput() {
				s.output(cmd.OutOrStdout()).Success(fmt.Sprintf("Moved %s to %s", args[0], target))
			}
			return writeBoard(cmd, s, b, hidden, opts.width)
		},
	}

	cmd.AddCommand(move)
	root.AddCommand(cmd)
}

func loadBoard(ctx context.Context, s *session, opts taskListOptions) (*board.Board, error) {
	filter, err := opts.filter()
	if err != nil {
		return nil, err
	}
	app, err := s.App(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := app.Service.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return board.New(app.Coordinator, s.actor, tasks), nil
}

func hiddenStatuses(raw []string) ([]constants.TaskStatus, error) {
	hidden := make([]constants.TaskStatus, 0, len(raw))
	for _, r := range raw {
		status, err := parseStatus(r)
		if err != nil {
			return nil, err
		}
		hidden = append(hidden, status)
	}
	return hidden, nil
}

func writeBoard(cmd *cobra.Command, s *session, b *board.Board, hidden []constants.TaskStatus, width int) error {
	columns := slices.DeleteFunc(b.Columns(), func(c board.Column) bool {
		return slices.Contains(hidden, c.Status)
	})

	if s.jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), columns)
	}
	tui.CheckNoColor()
	tui.RenderBoard(cmd.OutOrStdout(), columns, width)
	return nil
}
