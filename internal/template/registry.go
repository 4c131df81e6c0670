package template

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// Registry provides thread-safe access to task templates.
// Aliases can map alternative names to existing templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	aliases   map[string]string // alias name -> template name
}

// NewRegistry creates a new empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
		aliases:   make(map[string]string),
	}
}

// Get retrieves a template by name or alias.
// Returns a clone so callers cannot mutate registry state.
func (r *Registry) Get(name string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := name
	if target, isAlias := r.aliases[name]; isAlias {
		resolved = target
	}

	t, ok := r.templates[resolved]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tferrors.ErrTemplateNotFound, name)
	}
	return t.Clone(), nil
}

// List returns clones of all registered templates sorted by name.
func (r *Registry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		result = append(result, t.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Register validates and adds a template.
// Returns ErrTemplateDuplicate if the name is taken.
func (r *Registry) Register(t *Template) error {
	if err := ValidateTemplate(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[t.Name]; exists {
		return fmt.Errorf("%w: %s", tferrors.ErrTemplateDuplicate, t.Name)
	}
	r.templates[t.Name] = t.Clone()
	return nil
}

// RegisterOrReplace adds a template, replacing any template with the same
// name. File templates use it to override built-ins.
func (r *Registry) RegisterOrReplace(t *Template) error {
	if err := ValidateTemplate(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.templates[t.Name] = t.Clone()
	return nil
}

// RegisterAlias creates an alias that points to an existing template.
func (r *Registry) RegisterAlias(alias, target string) error {
	alias = strings.TrimSpace(alias)
	target = strings.TrimSpace(target)

	if alias == "" || target == "" {
		return fmt.Errorf("%w: alias and target are required", tferrors.ErrEmptyValue)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[target]; !exists {
		return fmt.Errorf("%w: alias target %q", tferrors.ErrTemplateNotFound, target)
	}
	if _, exists := r.templates[alias]; exists {
		return fmt.Errorf("%w: alias %q conflicts with existing template", tferrors.ErrTemplateDuplicate, alias)
	}

	r.aliases[alias] = target
	return nil
}

// Aliases returns all registered aliases as alias -> template name.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]string, len(r.aliases))
	for alias, target := range r.aliases {
		result[alias] = target
	}
	return result
}

// Instantiate looks up name and instantiates it.
func (r *Registry) Instantiate(name string, o Overrides, now time.Time) (*Instance, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return Instantiate(t, o, now)
}
