package ctxutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mrz1836/taskflow/internal/ctxutil"
)

type ctxKey struct{}

func TestCanceled(t *testing.T) {
	t.Parallel()

	t.Run("returns nil for active context", func(t *testing.T) {
		t.Parallel()
		if err := ctxutil.Canceled(context.Background()); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("returns error for canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := ctxutil.Canceled(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestCommitted(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	committed := ctxutil.Committed(parent)
	cancel()

	if err := committed.Err(); err != nil {
		t.Errorf("committed context should ignore parent cancellation, got %v", err)
	}
	if got := committed.Value(ctxKey{}); got != "req-1" {
		t.Errorf("expected value to be preserved, got %v", got)
	}
}
