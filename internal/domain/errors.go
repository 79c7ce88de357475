package domain

import (
	"fmt"
)

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// ErrUnauthorized is returned when a request carries no valid identity
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrRateLimited is returned when a user exceeds an action quota
type ErrRateLimited struct {
	Action     string
	RetryAfter int // seconds
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %d seconds", e.Action, e.RetryAfter)
}
