package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/task"
)

// FileTemplate is the YAML/JSON layout of a template file.
type FileTemplate struct {
	Name        string                  `yaml:"name" json:"name"`
	Description string                  `yaml:"description,omitempty" json:"description,omitempty"`
	Task        FileBlueprint           `yaml:"task" json:"task"`
	SubTasks    []FileBlueprint         `yaml:"sub_tasks,omitempty" json:"sub_tasks,omitempty"`
	Variables   map[string]FileVariable `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// FileBlueprint is one task in a template file. Enum fields accept any
// spelling ParseCategory and friends understand.
type FileBlueprint struct {
	Title       string          `yaml:"title" json:"title"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string          `yaml:"category,omitempty" json:"category,omitempty"`
	Priority    string          `yaml:"priority,omitempty" json:"priority,omitempty"`
	Tags        []string        `yaml:"tags,omitempty" json:"tags,omitempty"`
	Checklist   []string        `yaml:"checklist,omitempty" json:"checklist,omitempty"`
	DueIn       string          `yaml:"due_in,omitempty" json:"due_in,omitempty"`
	SLA         *FileSLA        `yaml:"sla,omitempty" json:"sla,omitempty"`
	Recurrence  *FileRecurrence `yaml:"recurrence,omitempty" json:"recurrence,omitempty"`
}

// FileSLA mirrors domain.SLAConfig.
type FileSLA struct {
	TargetResolutionHours float64  `yaml:"target_resolution_hours" json:"target_resolution_hours"`
	WarningThresholdHours *float64 `yaml:"warning_threshold_hours,omitempty" json:"warning_threshold_hours,omitempty"`
}

// FileRecurrence mirrors task.RecurrenceParams.
type FileRecurrence struct {
	Pattern  string `yaml:"pattern" json:"pattern"`
	Interval int    `yaml:"interval" json:"interval"`
}

// FileVariable represents a variable in a template file.
type FileVariable struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
	Required    bool   `yaml:"required" json:"required"`
}

// Loader loads templates from files.
type Loader struct {
	basePath string
}

// NewLoader creates a template loader. Relative paths resolve against basePath.
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadFromFile loads and validates one template. The format follows the
// extension: .json for JSON, YAML otherwise.
func (l *Loader) LoadFromFile(path string) (*Template, error) {
	resolved := l.resolvePath(path)

	data, err := os.ReadFile(resolved) //nolint:gosec // path comes from user config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", tferrors.ErrTemplateFileMissing, resolved)
		}
		return nil, fmt.Errorf("failed to read template %s: %w", resolved, err)
	}

	var file FileTemplate
	if detectFormat(path) == "json" {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", tferrors.ErrTemplateParse, resolved, err)
	}

	t, err := toTemplate(&file)
	if err != nil {
		return nil, err
	}
	if err := ValidateTemplate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadAll loads templates from name -> path mappings. The map key replaces
// the name inside the file. Stops at the first failure.
func (l *Loader) LoadAll(templates map[string]string) ([]*Template, error) {
	if len(templates) == 0 {
		return nil, nil
	}

	loaded := make([]*Template, 0, len(templates))
	for configName, path := range templates {
		t, err := l.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("template %q from %q: %w", configName, path, err)
		}
		t.Name = configName
		loaded = append(loaded, t)
	}
	return loaded, nil
}

func (l *Loader) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.basePath, path)
}

func detectFormat(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return "json"
	}
	return "yaml"
}

func toTemplate(f *FileTemplate) (*Template, error) {
	t := &Template{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
	}

	main, err := toBlueprint(&f.Task)
	if err != nil {
		return nil, fmt.Errorf("%w: task: %w", tferrors.ErrTemplateInvalid, err)
	}
	t.Task = main

	for i := range f.SubTasks {
		b, err := toBlueprint(&f.SubTasks[i])
		if err != nil {
			return nil, fmt.Errorf("%w: sub_tasks[%d]: %w", tferrors.ErrTemplateInvalid, i, err)
		}
		t.SubTasks = append(t.SubTasks, b)
	}

	if f.Variables != nil {
		t.Variables = make(map[string]Variable, len(f.Variables))
		for name, v := range f.Variables {
			t.Variables[name] = Variable{Description: v.Description, Default: v.Default, Required: v.Required}
		}
	}
	return t, nil
}

func toBlueprint(f *FileBlueprint) (Blueprint, error) {
	b := Blueprint{
		Title:       f.Title,
		Description: f.Description,
		Tags:        f.Tags,
		Checklist:   f.Checklist,
	}

	if f.Category != "" {
		c, ok := constants.ParseCategory(f.Category)
		if !ok {
			return b, fmt.Errorf("unknown category %q", f.Category)
		}
		b.Category = c
	}
	if f.Priority != "" {
		p, ok := constants.ParsePriority(f.Priority)
		if !ok {
			return b, fmt.Errorf("unknown priority %q", f.Priority)
		}
		b.Priority = p
	}
	if f.DueIn != "" {
		d, err := parseDueIn(f.DueIn)
		if err != nil {
			return b, err
		}
		b.DueIn = d
	}
	if f.SLA != nil {
		b.SLA = domain.SLAConfig{
			TargetResolutionHours: f.SLA.TargetResolutionHours,
			WarningThresholdHours: f.SLA.WarningThresholdHours,
		}
	}
	if f.Recurrence != nil {
		pattern, ok := constants.ParseRecurrencePattern(f.Recurrence.Pattern)
		if !ok {
			return b, fmt.Errorf("unknown recurrence pattern %q", f.Recurrence.Pattern)
		}
		b.Recurrence = &task.RecurrenceParams{Pattern: pattern, Interval: f.Recurrence.Interval}
	}
	return b, nil
}

// parseDueIn accepts Go durations plus a whole-day form such as "3d".
func parseDueIn(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid due_in %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid due_in %q: %w", s, err)
	}
	return d, nil
}
