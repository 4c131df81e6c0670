package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/constants"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/template"
)

func TestService_CreateFromTemplate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	inst, err := template.NewDefaultRegistry().Instantiate("site-visit", template.Overrides{
		Values:     map[string]string{"customer": "Asha", "project": "Palm Grove"},
		AssignedTo: "agent-1",
		CreatedBy:  "lead-1",
	}, testNow)
	require.NoError(t, err)

	main, subs, err := env.svc.CreateFromTemplate(ctx, inst, "lead-1")
	require.NoError(t, err)

	assert.Equal(t, "Site visit: Asha at Palm Grove", main.Title)
	assert.Equal(t, "template:site-visit", main.AutoGenerated.TriggerType)
	require.Len(t, main.SubTasks, 2)
	require.Len(t, subs, 2)
	for _, sub := range subs {
		assert.Equal(t, main.ID, sub.ParentID)
		assert.Equal(t, "agent-1", sub.AssignedTo)
	}

	assert.Equal(t, []constants.EventType{
		constants.EventTaskCreated,
		constants.EventTaskCreated,
		constants.EventSubTaskLinked,
		constants.EventTaskCreated,
		constants.EventSubTaskLinked,
	}, env.events.types())
}

func TestService_CreateFromTemplate_UnknownAssignee(t *testing.T) {
	env := newTestEnv(t, nil)

	inst, err := template.NewDefaultRegistry().Instantiate("kyc", template.Overrides{
		Values:     map[string]string{"customer": "Ravi"},
		AssignedTo: "ghost",
	}, testNow)
	require.NoError(t, err)

	main, subs, err := env.svc.CreateFromTemplate(context.Background(), inst, "lead-1")
	require.ErrorIs(t, err, tferrors.ErrUserNotFound)
	assert.Nil(t, main)
	assert.Nil(t, subs)
	assert.Empty(t, env.events.types())
}
