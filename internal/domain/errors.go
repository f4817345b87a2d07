package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrAuthentication    = errors.New("authentication failed")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrTransientBackend  = errors.New("backend temporarily unavailable")
	ErrPermanentProvider = errors.New("provider rejected message")
)

// ValidationError identifies the payload field that failed validation.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field '%s' failed '%s'", e.Field, e.Rule)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for a *ValidationError on field.
func Invalid(field, rule string) error {
	return &ValidationError{Field: field, Rule: rule}
}

// Transient marks a failed backend call as safe to retry. The original error stays in the chain.
func Transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientBackend, err)
}
