package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid transition", fmt.Errorf("%w: Open -> Completed", ErrInvalidTransition), KindInvalidTransition},
		{"task not found", Wrapf(ErrTaskNotFound, "task %s", "t-1"), KindNotFound},
		{"checklist item not found", ErrChecklistItemNotFound, KindNotFound},
		{"escalation not found", ErrEscalationNotFound, KindNotFound},
		{"busy", Wrap(ErrBusy, "transition"), KindBusy},
		{"validation", ErrEmptyValue, KindValidation},
		{"task exists", ErrTaskExists, KindValidation},
		{"field errors", FieldErrors{{Field: "title", Message: "required"}}, KindValidation},
		{"lock timeout", ErrLockTimeout, KindUnavailable},
		{"unknown error", errors.New("connection reset"), KindUnavailable},
		{"unavailable wins over wrapped kind", Unavailable(ErrTaskNotFound), KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(ErrBusy))
	assert.True(t, IsRecoverable(ErrInvalidTransition))
	assert.False(t, IsRecoverable(ErrUnavailable))
	assert.False(t, IsRecoverable(nil))
}

func TestSpecificNotFoundWrapsGeneral(t *testing.T) {
	for _, err := range []error{ErrTaskNotFound, ErrChecklistItemNotFound, ErrEscalationNotFound, ErrSubTaskNotFound, ErrTemplateNotFound, ErrUserNotFound} {
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, "task not found", ErrTaskNotFound.Error())
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
	assert.NoError(t, Unavailable(nil))

	err := Wrap(ErrBusy, "failed to move task")
	assert.Equal(t, "failed to move task: task busy", err.Error())
	assert.ErrorIs(t, err, ErrBusy)

	err = Wrapf(ErrTaskNotFound, "failed to load %s", "abc")
	assert.Equal(t, "failed to load abc: task not found", err.Error())
}

func TestFieldErrors(t *testing.T) {
	var fe FieldErrors
	require.NoError(t, fe.Err())

	fe.Add("title", "must not be empty")
	fe.Add("recurrence.interval", "must be at least 1")
	err := fe.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "title: must not be empty")
	assert.Contains(t, err.Error(), "recurrence.interval: must be at least 1")

	wrapped := Wrap(err, "failed to create task")
	fields := Fields(wrapped)
	require.Len(t, fields, 2)
	assert.Equal(t, "recurrence.interval", fields[1].Field)

	assert.Nil(t, Fields(ErrBusy))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "The task does not exist.", UserMessage(Wrap(ErrTaskNotFound, "get")))
	assert.Equal(t, "Another change to this task is still in progress.", UserMessage(ErrBusy))
	assert.Equal(t, "custom failure", UserMessage(errors.New("custom failure")))

	msg, action := Actionable(ErrInvalidTransition)
	assert.NotEmpty(t, msg)
	assert.Contains(t, action, "taskflow task show")

	msg, action = Actionable(ErrNotFound)
	assert.Equal(t, "The requested record does not exist.", msg)
	assert.Empty(t, action)
}
