package domain

import (
	"errors"
	"strings"
)

// ValueObject represents an immutable domain concept defined by its attributes.
type ValueObject interface {
	Equals(other ValueObject) bool
}

// ErrInvalidEmail is returned when an email address fails validation.
var ErrInvalidEmail = errors.New("invalid email address")

// Email identifies an account across bounded contexts.
type Email struct {
	value string
}

// NewEmail normalizes and validates an email address.
func NewEmail(value string) (Email, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 || !strings.Contains(value[at+1:], ".") {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: value}, nil
}

// String returns the normalized address.
func (e Email) String() string {
	return e.value
}

// Equals checks if two emails are equal.
func (e Email) Equals(other ValueObject) bool {
	if otherEmail, ok := other.(Email); ok {
		return e.value == otherEmail.value
	}
	return false
}

// IsEmpty returns true if the email is empty.
func (e Email) IsEmpty() bool {
	return e.value == ""
}
