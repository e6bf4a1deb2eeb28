package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrQuotaExceeded     = errors.New("session limit reached")
	ErrSlotConflict      = errors.New("slot no longer available")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("operation not permitted for this actor")
)

// ValidationError describes malformed input. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransitionError reports a rejected status change. It matches ErrInvalidTransition.
type TransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
