package errors

import (
	"errors"
	"strings"
)

// FieldError describes one invalid input field.
type FieldError struct {
	// Field is the snake_case name of the offending field (e.g. "title", "recurrence.interval").
	Field string `json:"field"`
	// Message explains what is wrong with the value.
	Message string `json:"message"`
}

// FieldErrors collects per-field validation failures so they can be surfaced together.
// A non-empty FieldErrors matches ErrValidation with errors.Is.
type FieldErrors []FieldError

// Add appends a failure for field.
func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

// Err returns fe as an error, or nil when no failures were recorded.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Error implements error.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, f := range fe {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(fe, ErrValidation) succeed.
func (fe FieldErrors) Is(target error) bool {
	return target == ErrValidation
}

// Fields extracts the field failures from err, if it carries any.
func Fields(err error) FieldErrors {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
