package template

import (
	"fmt"
	"maps"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/task"
)

// varPattern matches {{variable}} placeholders.
var varPattern = regexp.MustCompile(`\{\{(\w+)\}\}`) //nolint:gochecknoglobals // compiled once, immutable

// Overrides carries the caller's values for one instantiation.
type Overrides struct {
	// Values fills template variables.
	Values map[string]string

	AssignedTo   string
	LinkedEntity *domain.LinkedEntity
	Priority     constants.Priority

	// DueDate replaces the template's relative due date for the main task.
	DueDate *time.Time

	CreatedBy string
}

// Instance is the creation input produced from a template. SubTasks are
// created after Task and linked under it.
type Instance struct {
	Task     task.CreateParams
	SubTasks []task.CreateParams
}

// Instantiate expands t with the overrides into creation params.
// Missing required variables fail with ErrTemplateVariableRequired.
func Instantiate(t *Template, o Overrides, now time.Time) (*Instance, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: template is nil", tferrors.ErrTemplateInvalid)
	}

	values, err := resolveValues(t.Variables, o.Values)
	if err != nil {
		return nil, err
	}

	generated := domain.AutoGenerated{
		IsAutoGenerated: true,
		TriggerType:     constants.TriggerTemplatePrefix + t.Name,
	}

	main := paramsFor(t.Task, values, now)
	if o.DueDate != nil {
		due := *o.DueDate
		main.DueDate = &due
	}
	if o.Priority != "" {
		main.Priority = o.Priority
	}

	inst := &Instance{Task: main}
	for _, b := range t.SubTasks {
		inst.SubTasks = append(inst.SubTasks, paramsFor(b, values, now))
	}

	for _, p := range append([]*task.CreateParams{&inst.Task}, subTaskPtrs(inst)...) {
		p.AssignedTo = o.AssignedTo
		p.CreatedBy = o.CreatedBy
		p.AutoGenerated = generated
		if o.LinkedEntity != nil {
			le := *o.LinkedEntity
			p.LinkedEntity = &le
		}
	}
	return inst, nil
}

func subTaskPtrs(inst *Instance) []*task.CreateParams {
	out := make([]*task.CreateParams, len(inst.SubTasks))
	for i := range inst.SubTasks {
		out[i] = &inst.SubTasks[i]
	}
	return out
}

func paramsFor(b Blueprint, values map[string]string, now time.Time) task.CreateParams {
	b = b.clone()
	p := task.CreateParams{
		Title:       expandString(b.Title, values),
		Description: expandString(b.Description, values),
		Category:    b.Category,
		Priority:    b.Priority,
		SLA:         b.SLA,
		Recurrence:  b.Recurrence,
	}
	for _, tag := range b.Tags {
		p.Tags = append(p.Tags, expandString(tag, values))
	}
	for _, item := range b.Checklist {
		p.Checklist = append(p.Checklist, expandString(item, values))
	}
	if b.DueIn > 0 {
		due := now.Add(b.DueIn)
		p.DueDate = &due
	}
	return p
}

// resolveValues merges provided values over variable defaults and reports
// every required variable left without a value.
func resolveValues(vars map[string]Variable, provided map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(vars)+len(provided))
	for name, v := range vars {
		if v.Default != "" {
			merged[name] = v.Default
		}
	}
	maps.Copy(merged, provided)

	var missing []string
	for name, v := range vars {
		if v.Required && strings.TrimSpace(merged[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", tferrors.ErrTemplateVariableRequired, strings.Join(missing, ", "))
	}
	return merged, nil
}

// expandString replaces {{variable}} placeholders. Unknown placeholders are
// left as-is.
func expandString(s string, values map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.Trim(match, "{}")
		if val, ok := values[name]; ok {
			return val
		}
		return match
	})
}
