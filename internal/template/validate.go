package template

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/task"
)

// ValidateTemplate checks that t can be instantiated. It returns the first
// problem found wrapped in ErrTemplateInvalid.
func ValidateTemplate(t *Template) error {
	if t == nil {
		return fmt.Errorf("%w: template is nil", tferrors.ErrTemplateInvalid)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", tferrors.ErrTemplateInvalid)
	}

	if err := validateBlueprint(t.Task, "task"); err != nil {
		return err
	}
	for i, b := range t.SubTasks {
		if err := validateBlueprint(b, fmt.Sprintf("sub_tasks[%d]", i)); err != nil {
			return err
		}
	}

	for name := range t.Variables {
		if !varName(name) {
			return fmt.Errorf("%w: invalid variable name %q", tferrors.ErrTemplateInvalid, name)
		}
	}
	return nil
}

func validateBlueprint(b Blueprint, path string) error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: %s: title is required", tferrors.ErrTemplateInvalid, path)
	}
	if b.Category != "" && !slices.Contains(constants.AllCategories(), b.Category) {
		return fmt.Errorf("%w: %s: unknown category %q", tferrors.ErrTemplateInvalid, path, b.Category)
	}
	if b.Priority != "" && !slices.Contains(constants.AllPriorities(), b.Priority) {
		return fmt.Errorf("%w: %s: unknown priority %q", tferrors.ErrTemplateInvalid, path, b.Priority)
	}
	if b.DueIn < 0 {
		return fmt.Errorf("%w: %s: due_in must not be negative", tferrors.ErrTemplateInvalid, path)
	}
	if b.SLA.TargetResolutionHours < 0 {
		return fmt.Errorf("%w: %s: sla target must not be negative", tferrors.ErrTemplateInvalid, path)
	}
	if r := b.Recurrence; r != nil {
		if _, err := task.NextOccurrence(r.Pattern, r.Interval, time.Time{}); err != nil {
			return fmt.Errorf("%w: %s: %w", tferrors.ErrTemplateInvalid, path, err)
		}
	}
	for i, item := range b.Checklist {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf("%w: %s: checklist[%d] is empty", tferrors.ErrTemplateInvalid, path, i)
		}
	}
	return nil
}

// varNamePattern matches the names a {{variable}} placeholder can refer to.
var varNamePattern = regexp.MustCompile(`^\w+$`) //nolint:gochecknoglobals // compiled once, immutable

func varName(name string) bool {
	return varNamePattern.MatchString(name)
}
