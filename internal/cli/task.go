package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/task"
	"github.com/mrz1836/taskflow/internal/workflow"
)

// AddTaskCommand adds the task command group to the root command.
func AddTaskCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, inspect and edit tasks",
	}

	addTaskCreateCmd(cmd, s)
	addTaskShowCmd(cmd, s)
	addTaskListCmd(cmd, s)
	addTaskAssignCmd(cmd, s)
	addTaskCommentCmd(cmd, s)
	addTaskDeleteCmd(cmd, s)

	root.AddCommand(cmd)
}

type taskCreateOptions struct {
	id          string
	title       string
	description string
	category    string
	priority    string
	tags        []string
	start       string
	due         string
	assignee    string
	entityType  string
	entityID    string
	entityLabel string
	checklist   []string
	recur       string
	recurEvery  int
	slaHours    float64
	slaWarning  float64
}

func addTaskCreateCmd(parent *cobra.Command, s *session) {
	var opts taskCreateOptions

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Long: `Create a task in the Open status.

Examples:
  taskflow task create --title "Call back lead" --category follow-up --due 2024-03-05
  taskflow task create --title "Collect booking amount" --priority high \
      --entity-type sale --entity-id S-104 --sla-hours 48 --sla-warning-hours 24
  taskflow task create --title "Monthly ledger review" --recur monthly --due 2024-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTaskCreate(cmd.Context(), cmd, s, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.id, "id", "", "task id (default: generated)")
	f.StringVar(&opts.title, "title", "", "task title")
	f.StringVar(&opts.description, "description", "", "task description")
	f.StringVar(&opts.category, "category", "", "category (default: General)")
	f.StringVar(&opts.priority, "priority", "", "priority: critical, high, medium, low (default: medium)")
	f.StringSliceVar(&opts.tags, "tag", nil, "tag (repeatable or comma separated)")
	f.StringVar(&opts.start, "start", "", "start date (YYYY-MM-DD or RFC3339)")
	f.StringVar(&opts.due, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	f.StringVar(&opts.assignee, "assign", "", "assignee user id")
	f.StringVar(&opts.entityType, "entity-type", "", "linked entity type: lead, project, unit, sale, payment, customer")
	f.StringVar(&opts.entityID, "entity-id", "", "linked entity id")
	f.StringVar(&opts.entityLabel, "entity-label", "", "linked entity display label")
	f.StringArrayVar(&opts.checklist, "checklist", nil, "checklist item text (repeatable)")
	f.StringVar(&opts.recur, "recur", "", "recurrence pattern: daily, weekly, biweekly, monthly, quarterly")
	f.IntVar(&opts.recurEvery, "recur-interval", 1, "recurrence interval in pattern units")
	f.Float64Var(&opts.slaHours, "sla-hours", 0, "target resolution hours")
	f.Float64Var(&opts.slaWarning, "sla-warning-hours", 0, "warn this many hours before the SLA breaches")
	_ = cmd.MarkFlagRequired("title")

	parent.AddCommand(cmd)
}

func runTaskCreate(ctx context.Context, cmd *cobra.Command, s *session, opts taskCreateOptions) error {
	params, err := opts.params(s.actor)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("sla-warning-hours") {
		warning := opts.slaWarning
		params.SLA.WarningThresholdHours = &warning
	}

	app, err := s.App(ctx)
	if err != nil {
		return err
	}

	t, err := app.Service.Create(ctx, params)
	if err != nil {
		return err
	}

	if s.jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), t)
	}
	s.output(cmd.OutOrStdout()).Success(fmt.Sprintf("Created task %s: %s", t.ID, t.Title))
	return nil
}

func (o taskCreateOptions) params(actor string) (task.CreateParams, error) {
	category, err := parseCategory(o.category)
	if err != nil {
		return task.CreateParams{}, err
	}
	priority, err := parsePriority(o.priority)
	if err != nil {
		return task.CreateParams{}, err
	}
	start, err := parseTime("start_date", o.start)
	if err != nil {
		return task.CreateParams{}, err
	}
	due, err := parseTime("due_date", o.due)
	if err != nil {
		return task.CreateParams{}, err
	}
	entity, err := parseEntity(o.entityType, o.entityID, o.entityLabel)
	if err != nil {
		return task.CreateParams{}, err
	}

	params := task.CreateParams{
		ID:           o.id,
		Title:        o.title,
		Description:  o.description,
		Category:     category,
		Priority:     priority,
		Tags:         o.tags,
		StartDate:    start,
		DueDate:      due,
		AssignedTo:   o.assignee,
		LinkedEntity: entity,
		Checklist:    o.checklist,
		SLA:          domain.SLAConfig{TargetResolutionHours: o.slaHours},
		CreatedBy:    actor,
	}

	if o.recur != "" {
		pattern, ok := constants.ParseRecurrencePattern(o.recur)
		if !ok {
			return task.CreateParams{}, fieldError("recurrence.pattern", fmt.Sprintf("unknown pattern %q", o.recur))
		}
		params.Recurrence = &task.RecurrenceParams{Pattern: pattern, Interval: o.recurEvery}
	}
	return params, nil
}

func addTaskShowCmd(parent *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its progress and SLA state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			view, err := loadTaskView(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			renderTask(cmd.OutOrStdout(), view)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

func loadTaskView(ctx context.Context, app *App, id string) (taskView, error) {
	t, err := app.Service.Get(ctx, id)
	if err != nil {
		return taskView{}, err
	}
	progress, err := app.Service.Progress(ctx, id)
	if err != nil {
		return taskView{}, err
	}
	sla, err := app.Service.EvaluateSLA(ctx, id)
	if err != nil {
		return taskView{}, err
	}
	return taskView{Task: t, Progress: progress, SLAState: sla}, nil
}

type taskListOptions struct {
	statuses   []string
	assignee   string
	category   string
	priority   string
	tag        string
	entityType string
	entityID   string
	parent     string
	overdue    bool
	breached   bool
}

func addTaskListCmd(parent *cobra.Command, s *session) {
	var opts taskListOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		Long: `List tasks matching every given filter.

Examples:
  taskflow task list --status open --status "in progress"
  taskflow task list --assignee agent-7 --overdue
  taskflow task list --entity-type unit --entity-id A-1203 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTaskList(cmd.Context(), cmd, s, opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.statuses, "status", nil, "status filter (repeatable)")
	f.StringVar(&opts.assignee, "assignee", "", "assignee filter")
	f.StringVar(&opts.category, "category", "", "category filter")
	f.StringVar(&opts.priority, "priority", "", "priority filter")
	f.StringVar(&opts.tag, "tag", "", "tag filter")
	f.StringVar(&opts.entityType, "entity-type", "", "linked entity type filter")
	f.StringVar(&opts.entityID, "entity-id", "", "linked entity id filter")
	f.StringVar(&opts.parent, "parent", "", "only sub-tasks of this task")
	f.BoolVar(&opts.overdue, "overdue", false, "only overdue tasks")
	f.BoolVar(&opts.breached, "breached", false, "only tasks past their SLA")

	parent.AddCommand(cmd)
}

func (o taskListOptions) filter() (workflow.ListFilter, error) {
	filter := workflow.ListFilter{
		AssignedTo:   o.assignee,
		Tag:          o.tag,
		EntityID:     o.entityID,
		ParentID:     o.parent,
		OverdueOnly:  o.overdue,
		BreachedOnly: o.breached,
	}
	for _, raw := range o.statuses {
		status, err := parseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	var err error
	if filter.Category, err = parseCategory(o.category); err != nil {
		return filter, err
	}
	if filter.Priority, err = parsePriority(o.priority); err != nil {
		return filter, err
	}
	if o.entityType != "" {
		et, ok := constants.ParseEntityType(o.entityType)
		if !ok {
			return filter, fieldError("entity_type", fmt.Sprintf("unknown entity type %q", o.entityType))
		}
		filter.EntityType = et
	}
	return filter, nil
}

func runTaskList(ctx context.Context, cmd *cobra.Command, s *session, opts taskListOptions) error {
	filter, err := opts.filter()
	if err != nil {
		return err
	}

	app, err := s.App(ctx)
	if err != nil {
		return err
	}

	tasks, err := app.Service.List(ctx, filter)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if s.jsonOutput() {
		if tasks == nil {
			tasks = []*domain.Task{}
		}
		return writeJSON(w, tasks)
	}

	out := s.output(w)
	if len(tasks) == 0 {
		out.Info("No tasks match. Run 'taskflow task create' to add one.")
		return nil
	}
	out.Table(taskHeaders, taskRows(tasks, app.Clock.Now()))
	return nil
}

func addTaskAssignCmd(parent *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "assign <id> <user>",
		Short: "Assign a task; pass \"\" to clear the assignee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			t, err := app.Service.Assign(cmd.Context(), args[0], args[1], s.actor)
			if err != nil {
				return err
			}
			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), t)
			}
			s.output(cmd.OutOrStdout()).Success(fmt.Sprintf("Task %s assigned to %s", t.ID, orDash(t.AssignedTo)))
			return nil
		},
	}
	parent.AddCommand(cmd)
}

func addTaskCommentCmd(parent *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Add a comment to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			t, err := app.Service.AddComment(cmd.Context(), args[0], s.actor, args[1])
			if err != nil {
				return err
			}
			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), t.Comments[len(t.Comments)-1])
			}
			s.output(cmd.OutOrStdout()).Success("Comment added to task " + t.ID)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

func addTaskDeleteCmd(parent *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task that no sub-task references",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Service.Delete(cmd.Context(), args[0], s.actor); err != nil {
				return err
			}
			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			}
			s.output(cmd.OutOrStdout()).Success("Deleted task " + args[0])
			return nil
		},
	}
	parent.AddCommand(cmd)
}

// AddTransitionCommand adds the transition command to the root command.
func AddTransitionCommand(root *cobra.Command, s *session) {
	var resolution string

	cmd := &cobra.Command{
		Use:   "transition <id> <status>",
		Short: "Move a task to another status",
		Long: `Move a task along the status workflow:

  Open         → In Progress, On Hold, Cancelled
  In Progress  → Under Review, On Hold, Cancelled, Completed
  Under Review → In Progress, Completed, On Hold
  On Hold      → Open, In Progress, Cancelled
  Completed    → Open
  Cancelled    → Open

Examples:
  taskflow transition 7f3c "in progress"
  taskflow transition 7f3c completed --resolution "Booking amount received"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			t, err := app.Service.Transition(cmd.Context(), args[0], target, workflow.TransitionRequest{
				Actor:      s.actor,
				Resolution: resolution,
			})
			if err != nil {
				return err
			}
			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), t)
			}
			s.output(cmd.OutOrStdout()).Success(fmt.Sprintf("Task %s is now %s", t.ID, t.Status))
			return nil
		},
	}
	cmd.Flags().StringVar(&resolution, "resolution", "", "resolution note recorded on completion")

	root.AddCommand(cmd)
}
