// Package ctxutil provides context utility functions.
package ctxutil

import "context"

// Canceled checks if the context has been canceled or exceeded its deadline.
// Returns the context error if done (Canceled or DeadlineExceeded), nil otherwise.
// Mutating operations call this once at entry; after that point an accepted
// mutation runs to completion.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}

// Committed returns a context that keeps ctx's values (logger, request ids)
// but ignores its cancellation. Work that follows an accepted mutation, such
// as persisting it and emitting its events, runs under this context so a
// caller abandoning the request cannot leave the task half-written.
func Committed(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
