package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransactionNotFound is returned when a transaction does not exist
	// for the given id and account email.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAccountNotFound is returned when no account exists for an email.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPlanNotFound is returned when a subscription plan name is unknown.
	ErrPlanNotFound = errors.New("subscription plan not found")

	// ErrCreditPackageNotFound is returned when no credit package matches.
	ErrCreditPackageNotFound = errors.New("credit package not found")

	// ErrTransactionCompleted is returned when a transaction is confirmed
	// more than once.
	ErrTransactionCompleted = errors.New("transaction already completed")
)

// ValidationError reports invalid input on a command or query.
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

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
