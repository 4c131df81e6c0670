package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/domain"
)

// AddSubTaskCommand adds the subtask command group to the root command.
func AddSubTaskCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Link tasks as sub-tasks",
	}

	link := &cobra.Command{
		Use:   "link <parent-id> <child-id>",
		Short: "Make a task a sub-task of another",
		Long: `Make child a sub-task of parent. A task has at most one parent and
cannot become its own ancestor. The parent's sub-task progress follows the
child's status from then on.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			parent, err := app.Service.LinkSubTask(cmd.Context(), args[0], args[1], s.actor)
			if err != nil {
				return err
			}
			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), parent)
			}
			s.output(cmd.OutOrStdout()).Success(fmt.Sprintf("Task %s now has %d sub-task(s)", parent.ID, len(parent.SubTasks)))
			return nil
		},
	}

	cmd.AddCommand(link)
	root.AddCommand(cmd)
}

// AddEscalationCommand adds the escalation command group to the root command.
func AddEscalationCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "escalation",
		Short: "Review and acknowledge SLA escalations",
	}

	list := &cobra.Command{
		Use:   "list <id>",
		Short: "Show a task's escalation ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			t, err := app.Service.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeEscalations(cmd, s, t)
		},
	}

	ack := &cobra.Command{
		Use:   "ack <id> <level>",
		Short: "Acknowledge the escalation at a level",
		Long: `Acknowledge an escalation. A task never climbs past an unacknowledged
level; once acknowledged, a sweep may raise the next level if the task is
still breached after the configured minimum interval.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[1])
			if err != nil || level < 1 {
				return fieldError("level", fmt.Sprintf("must be a positive integer, got %q", args[1]))
			}
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			t, err := app.Service.Acknowledge(cmd.Context(), args[0], level, s.actor)
			if err != nil {
				return err
			}
			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), t.Escalations)
			}
			s.output(cmd.OutOrStdout()).Success(fmt.Sprintf("Escalation level %d on %s acknowledged", level, t.ID))
			return nil
		},
	}

	cmd.AddCommand(list, ack)
	root.AddCommand(cmd)
}

func writeEscalations(cmd *cobra.Command, s *session, t *domain.Task) error {
	w := cmd.OutOrStdout()
	if s.jsonOutput() {
		entries := t.Escalations
		if entries == nil {
			entries = []domain.Escalation{}
		}
		return writeJSON(w, entries)
	}

	out := s.output(w)
	if len(t.Escalations) == 0 {
		out.Info("Task " + t.ID + " has not been escalated.")
		return nil
	}
	rows := make([][]string, 0, len(t.Escalations))
	for _, e := range t.Escalations {
		acked := "no"
		if e.Acknowledged {
			acked = e.AcknowledgedBy + " " + formatTime(e.AcknowledgedAt)
		}
		rows = append(rows, []string{strconv.Itoa(e.Level), e.EscalatedTo, e.At.Format("2006-01-02 15:04"), acked, e.Reason})
	}
	out.Table([]string{"LEVEL", "TO", "AT", "ACKNOWLEDGED", "REASON"}, rows)
	return nil
}

// AddRecurrenceCommand adds the recurrence command group to the root command.
func AddRecurrenceCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "recurrence",
		Short: "Manage recurring tasks",
	}

	stop := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a task from recurring; existing instances are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			t, err := app.Service.StopRecurrence(cmd.Context(), args[0], s.actor)
			if err != nil {
				return err
			}
			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), t.Recurrence)
			}
			s.output(cmd.OutOrStdout()).Success("Task " + t.ID + " no longer recurs")
			return nil
		},
	}

	cmd.AddCommand(stop)
	root.AddCommand(cmd)
}
