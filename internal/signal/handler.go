// Package signal turns SIGINT and SIGTERM into context cancellation for the
// long-running taskflow commands, such as the periodic SLA sweeper.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler cancels its context on the first SIGINT or SIGTERM.
type Handler struct {
	ctx    context.Context //nolint:containedctx // handler owns the context lifecycle
	cancel context.CancelFunc

	sigCh chan os.Signal
	done  chan struct{}

	mu       sync.Mutex
	received os.Signal

	stopOnce sync.Once
}

// NewHandler starts listening for shutdown signals.
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	err := sweeper.Run(h.Context())
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:    ctx,
		cancel: cancel,
		sigCh:  make(chan os.Signal, 1),
		done:   make(chan struct{}),
	}

	signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context is canceled by the first signal, by Stop, or with its parent.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Received returns the signal that canceled the context, or nil.
func (h *Handler) Received() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// Stop unregisters the handler and cancels its context. Safe to call more
// than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigCh)
		close(h.done)
		h.cancel()
	})
}

func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case sig := <-h.sigCh:
			h.handle(sig)
		}
	}
}

// handle records the first signal and cancels the context. Later signals
// are drained and ignored.
func (h *Handler) handle(sig os.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.received != nil {
		return
	}
	h.received = sig
	h.cancel()
}
