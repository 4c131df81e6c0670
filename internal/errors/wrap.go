package errors

import "fmt"

// Wrap adds context to errors at package boundaries.
// It returns nil if err is nil, allowing for safe inline usage.
//
// The wrapped error preserves the original error chain, so kind checks
// keep working after wrapping:
//
//	if err := store.Update(ctx, t); err != nil {
//	    return errors.Wrap(err, "failed to save task")
//	}
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // report NotFound to the caller
//	}
//
// IMPORTANT: Only wrap errors at package boundaries to avoid
// overly nested error messages.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context to errors at package boundaries.
// It returns nil if err is nil, allowing for safe inline usage.
//
//	return errors.Wrapf(err, "failed to transition task %s", taskID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// Unavailable marks a transport or persistence failure so that Kind reports
// it as Unavailable even if the underlying error happens to wrap an engine kind.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
