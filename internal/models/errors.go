package models

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input to a mutating operation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation on an entity that does not exist
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ProviderError wraps a failure from an external feed or model backend
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrBudgetExceeded is returned when the monthly AI budget is spent
var ErrBudgetExceeded = errors.New("monthly AI budget exceeded")

// ErrAINotConfigured is returned when no model backend can be called
var ErrAINotConfigured = errors.New("AI provider is not configured")

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
