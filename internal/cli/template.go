package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/template"
)

// AddTemplateCommand adds the template command group to the root command.
func AddTemplateCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "List and instantiate task templates",
	}

	addTemplateListCmd(cmd, s)
	addTemplateInstantiateCmd(cmd, s)

	root.AddCommand(cmd)
}

// templateSummary is the list form of one template.
type templateSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	SubTasks    int      `json:"sub_tasks"`
	Required    []string `json:"required_variables,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

func addTemplateListCmd(parent *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List built-in and configured templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := s.App(cmd.Context())
			if err != nil {
				return err
			}
			summaries := summarizeTemplates(app.Templates)

			if s.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), summaries)
			}
			rows := make([][]string, 0, len(summaries))
			for _, t := range summaries {
				rows = append(rows, []string{
					t.Name,
					t.Category,
					fmt.Sprintf("%d", t.SubTasks),
					orDash(strings.Join(t.Required, ", ")),
					t.Description,
				})
			}
			s.output(cmd.OutOrStdout()).Table([]string{"NAME", "CATEGORY", "SUB-TASKS", "REQUIRES", "DESCRIPTION"}, rows)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

func summarizeTemplates(r *template.Registry) []templateSummary {
	aliases := make(map[string][]string)
	for alias, target := range r.Aliases() {
		aliases[target] = append(aliases[target], alias)
	}

	list := r.List()
	out := make([]templateSummary, 0, len(list))
	for _, t := range list {
		var required []string
		for name, v := range t.Variables {
			if v.Required && v.Default == "" {
				required = append(required, name)
			}
		}
		sort.Strings(required)
		sort.Strings(aliases[t.Name])

		out = append(out, templateSummary{
			Name:        t.Name,
			Description: t.Description,
			Category:    string(t.Task.Category),
			SubTasks:    len(t.SubTasks),
			Required:    required,
			Aliases:     aliases[t.Name],
		})
	}
	return out
}

type instantiateOptions struct {
	vars        map[string]string
	assignee    string
	due         string
	priority    string
	entityType  string
	entityID    string
	entityLabel string
}

// instantiateResult is the JSON form of an instantiation.
type instantiateResult struct {
	Task     *domain.Task   `json:"task"`
	SubTasks []*domain.Task `json:"sub_tasks"`
}

func addTemplateInstantiateCmd(parent *cobra.Command, s *session) {
	var opts instantiateOptions

	cmd := &cobra.Command{
		Use:     "instantiate <name>",
		Aliases: []string{"new"},
		Short:   "Create a task and its sub-tasks from a template",
		Long: `Create a task from a template. Sub-tasks defined by the template are
created too and linked under the new task. Every created task is marked as
auto-generated by the template.

Examples:
  taskflow template instantiate site-visit --var customer="R. Mehta" --var project=Skyline \
      --assign agent-7 --entity-type lead --entity-id L-2231
  taskflow template instantiate payment-follow-up --var unit=B-402 --priority critical`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplateInstantiate(cmd.Context(), cmd, s, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringToStringVar(&opts.vars, "var", nil, "template variable as name=value (repeatable)")
	f.StringVar(&opts.assignee, "assign", "", "assignee for the task and its sub-tasks")
	f.StringVar(&opts.due, "due", "", "due date of the main task, replacing the template's")
	f.StringVar(&opts.priority, "priority", "", "priority of the main task, replacing the template's")
	f.StringVar(&opts.entityType, "entity-type", "", "linked entity type")
	f.StringVar(&opts.entityID, "entity-id", "", "linked entity id")
	f.StringVar(&opts.entityLabel, "entity-label", "", "linked entity display label")

	parent.AddCommand(cmd)
}

func runTemplateInstantiate(ctx context.Context, cmd *cobra.Command, s *session, name string, opts instantiateOptions) error {
	due, err := parseTime("due_date", opts.due)
	if err != nil {
		return err
	}
	priority, err := parsePriority(opts.priority)
	if err != nil {
		return err
	}
	entity, err := parseEntity(opts.entityType, opts.entityID, opts.entityLabel)
	if err != nil {
		return err
	}

	app, err := s.App(ctx)
	if err != nil {
		return err
	}

	inst, err := app.Templates.Instantiate(name, template.Overrides{
		Values:       opts.vars,
		AssignedTo:   opts.assignee,
		LinkedEntity: entity,
		Priority:     priority,
		DueDate:      due,
		CreatedBy:    s.actor,
	}, app.Clock.Now())
	if err != nil {
		return err
	}

	main, subs, err := app.Service.CreateFromTemplate(ctx, inst, s.actor)
	if err != nil {
		return err
	}

	if s.jsonOutput() {
		if subs == nil {
			subs = []*domain.Task{}
		}
		return writeJSON(cmd.OutOrStdout(), instantiateResult{Task: main, SubTasks: subs})
	}

	out := s.output(cmd.OutOrStdout())
	out.Success(fmt.Sprintf("Created task %s: %s", main.ID, main.Title))
	for _, sub := range subs {
		out.Info(fmt.Sprintf("Sub-task %s: %s", sub.ID, sub.Title))
	}
	return nil
}
