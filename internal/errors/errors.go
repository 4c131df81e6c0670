// Package errors provides centralized error handling for taskflow.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the engine. All error types can be checked using errors.Is().
//
// The engine reports four recoverable kinds to callers: InvalidTransition,
// NotFound, Busy and ValidationError. Transport and persistence failures are
// wrapped as Unavailable by the calling layer.
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import (
	"errors"
	"fmt"
)

// Engine error kinds. All failures surfaced to callers wrap one of these.
var (
	// ErrInvalidTransition indicates the target status is not reachable
	// from the task's current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNotFound indicates a task, checklist item or escalation entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBusy indicates a mutation is already in flight for the task.
	ErrBusy = errors.New("task busy")

	// ErrValidation indicates invalid input such as an empty title or an interval below 1.
	ErrValidation = errors.New("validation error")

	// ErrUnavailable indicates a transport or persistence failure.
	ErrUnavailable = errors.New("unavailable")
)

// Specific not-found errors. Each wraps ErrNotFound so callers can match
// either the specific or the general kind.
var (
	// ErrTaskNotFound indicates the task does not exist.
	ErrTaskNotFound = fmt.Errorf("task %w", ErrNotFound)

	// ErrChecklistItemNotFound indicates the checklist item does not belong to the task.
	ErrChecklistItemNotFound = fmt.Errorf("checklist item %w", ErrNotFound)

	// ErrEscalationNotFound indicates no unacknowledged escalation exists at the requested level.
	ErrEscalationNotFound = fmt.Errorf("escalation entry %w", ErrNotFound)

	// ErrSubTaskNotFound indicates the sub-task reference does not exist on the parent.
	ErrSubTaskNotFound = fmt.Errorf("sub-task %w", ErrNotFound)

	// ErrTemplateNotFound indicates the named task template does not exist.
	ErrTemplateNotFound = fmt.Errorf("template %w", ErrNotFound)

	// ErrUserNotFound indicates the directory has no such user.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
)

// Specific validation errors. Each wraps ErrValidation.
var (
	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = fmt.Errorf("%w: value cannot be empty", ErrValidation)

	// ErrTaskExists indicates an attempt to create a task whose id is already stored.
	ErrTaskExists = fmt.Errorf("%w: task already exists", ErrValidation)

	// ErrTaskReferenced indicates a delete of a task that sub-tasks still name as parent.
	ErrTaskReferenced = fmt.Errorf("%w: task is referenced as parent by sub-tasks", ErrValidation)

	// ErrInvalidRecurrence indicates an unknown pattern or an interval below 1.
	ErrInvalidRecurrence = fmt.Errorf("%w: invalid recurrence", ErrValidation)

	// ErrTemplateInvalid indicates a task template failed validation.
	ErrTemplateInvalid = fmt.Errorf("%w: invalid template", ErrValidation)

	// ErrTemplateDuplicate indicates a template name is already registered.
	ErrTemplateDuplicate = fmt.Errorf("%w: template already registered", ErrValidation)

	// ErrTemplateVariableRequired indicates a required template variable has no value.
	ErrTemplateVariableRequired = fmt.Errorf("%w: required template variable missing", ErrValidation)
)

// Template file errors.
var (
	// ErrTemplateFileMissing indicates a configured template file does not exist.
	ErrTemplateFileMissing = errors.New("template file not found")

	// ErrTemplateParse indicates a template file is not valid YAML or JSON.
	ErrTemplateParse = errors.New("template file parse error")
)

// Infrastructure errors. These wrap ErrUnavailable.
var (
	// ErrLockTimeout indicates a file lock could not be acquired within the timeout period.
	ErrLockTimeout = fmt.Errorf("%w: lock acquisition timeout", ErrUnavailable)

	// ErrStoreCorrupted indicates a persisted task could not be decoded.
	ErrStoreCorrupted = fmt.Errorf("%w: task state corrupted", ErrUnavailable)

	// ErrLeaseHeld indicates another sweeper currently holds the sweep lease.
	ErrLeaseHeld = errors.New("lease held by another owner")
)

// Configuration errors.
var (
	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidSLA indicates an invalid SLA or escalation configuration value.
	ErrConfigInvalidSLA = errors.New("invalid SLA configuration")

	// ErrConfigInvalidBulk indicates an invalid bulk configuration value.
	ErrConfigInvalidBulk = errors.New("invalid bulk configuration")

	// ErrConfigInvalidLease indicates an invalid lease configuration value.
	ErrConfigInvalidLease = errors.New("invalid lease configuration")

	// ErrConfigInvalidEvents indicates an invalid events configuration value.
	ErrConfigInvalidEvents = errors.New("invalid events configuration")

	// ErrConfigInvalidStore indicates an unknown store backend.
	ErrConfigInvalidStore = errors.New("invalid store configuration")

	// ErrConfigInvalidDirectory indicates a directory user without an id or with a duplicate id.
	ErrConfigInvalidDirectory = errors.New("invalid directory configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")
)

// Kind names reported to callers.
const (
	KindInvalidTransition = "InvalidTransition"
	KindNotFound          = "NotFound"
	KindBusy              = "Busy"
	KindValidation        = "ValidationError"
	KindUnavailable       = "Unavailable"
)

// Kind returns the caller-facing kind for err.
// Errors that do not wrap an engine kind are reported as Unavailable, since
// the engine itself has no other failure modes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindUnavailable
	}
}

// IsRecoverable reports whether err is one of the engine's recoverable kinds.
// Unavailable is recoverable too, but only by the calling layer.
func IsRecoverable(err error) bool {
	switch Kind(err) {
	case KindInvalidTransition, KindNotFound, KindBusy, KindValidation:
		return true
	default:
		return false
	}
}
