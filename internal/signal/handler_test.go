package signal

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_SignalCancelsContext(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	h.handle(syscall.SIGTERM)

	require.ErrorIs(t, h.Context().Err(), context.Canceled)
	assert.Equal(t, syscall.SIGTERM, h.Received())
}

func TestHandler_FirstSignalWins(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	h.handle(syscall.SIGINT)
	h.handle(syscall.SIGTERM)

	assert.Equal(t, syscall.SIGINT, h.Received())
}

func TestHandler_StopIsIdempotent(t *testing.T) {
	h := NewHandler(context.Background())

	h.Stop()
	h.Stop()

	require.Error(t, h.Context().Err())
	assert.Nil(t, h.Received())
}

func TestHandler_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := NewHandler(parent)
	defer h.Stop()

	cancel()

	select {
	case <-h.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("handler context should follow its parent")
	}
	assert.Nil(t, h.Received())
}
