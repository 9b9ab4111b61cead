// Package services holds Aurora's business rules on top of database.Store.
// Handlers translate the errors defined here, plus database.ErrNotFound and
// database.ErrConflict, into HTTP statuses.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned when a presented identity token is missing,
// invalid or belongs to someone else.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError reports a malformed or missing input field.
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

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	if _, err := uuid.Parse(value); err != nil {
		return invalid(field, "must be a UUID")
	}
	return nil
}
