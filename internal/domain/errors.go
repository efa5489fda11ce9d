package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced document or session is absent.
var ErrNotFound = errors.New("not found")

// ValidationError signals rejected input (empty, oversized, or malformed).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
