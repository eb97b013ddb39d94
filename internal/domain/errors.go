package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPayload signals an annotation payload that cannot be indexed.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInvalidName signals a picture name that cannot be stored or resolved.
	ErrInvalidName = errors.New("invalid picture name")
	// ErrPayloadTooLarge signals an upload above the configured size limit.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrMissingFile signals an upload request without a picture file.
	ErrMissingFile = errors.New("no file was uploaded")
)

// ValidationError wraps ErrInvalidPayload with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidPayload.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidPayload }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
