package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()
	dir := NewStatic([]User{
		{ID: "agent-1", Name: "Asha", Manager: "lead-1"},
		{ID: " lead-1 ", Manager: "director-1"},
		{ID: ""},
	})

	ok, err := dir.Exists(ctx, "agent-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(ctx, "director-1")
	require.NoError(t, err)
	assert.True(t, ok, "managers are implicitly known")

	ok, err = dir.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	mgr, err := dir.ManagerOf(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", mgr)

	mgr, err = dir.ManagerOf(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "director-1", mgr)

	mgr, err = dir.ManagerOf(ctx, "director-1")
	require.NoError(t, err)
	assert.Empty(t, mgr)

	_, err = dir.ManagerOf(ctx, "ghost")
	require.ErrorIs(t, err, tferrors.ErrUserNotFound)
	require.ErrorIs(t, err, tferrors.ErrNotFound)

	assert.Len(t, dir.Users(), 3)
	assert.Equal(t, "agent-1", dir.Users()[0].ID)
}

func TestStatic_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic(nil).Exists(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}
