package workflow

import (
	"context"

	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/template"
)

// CreateFromTemplate creates the instance's main task, then each sub-task
// linked under it. A failure after the main task is stored returns the tasks
// created so far together with the error.
func (s *Service) CreateFromTemplate(ctx context.Context, inst *template.Instance, actor string) (*domain.Task, []*domain.Task, error) {
	main, err := s.Create(ctx, inst.Task)
	if err != nil {
		return nil, nil, err
	}

	subs := make([]*domain.Task, 0, len(inst.SubTasks))
	for _, params := range inst.SubTasks {
		sub, err := s.Create(ctx, params)
		if err != nil {
			return main, subs, err
		}

		linked, err := s.LinkSubTask(ctx, main.ID, sub.ID, actor)
		if err != nil {
			return main, append(subs, sub), err
		}
		main = linked

		if sub, err = s.Get(ctx, sub.ID); err != nil {
			return main, subs, err
		}
		subs = append(subs, sub)
	}

	s.logger.Info().
		Str("task_id", main.ID).
		Str("trigger", main.AutoGenerated.TriggerType).
		Int("sub_tasks", len(subs)).
		Msg("template instantiated")
	return main, subs, nil
}
