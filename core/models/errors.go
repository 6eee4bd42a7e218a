package models

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a batch status change would move backwards
// or out of a terminal status.
var ErrInvalidTransition = errors.New("invalid batch status transition")

// ValidationError reports a malformed ingestion request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown job or batch id
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ExternalCallError reports a failed call to the external system for one batch
type ExternalCallError struct {
	JobID   string
	BatchID string
	Err     error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("external call for batch %s failed: %v", e.BatchID, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
