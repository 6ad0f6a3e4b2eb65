package config

import (
	"errors"
	"fmt"
)

// Error is a configuration problem detected before any remote call.
type Error struct {
	// Field is the dotted config key that failed validation
	Field string
	// Message describes the failure
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Field, e.Message)
}

// Errors collects multiple configuration errors.
type Errors []error

// Error returns a formatted error message for all failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no configuration errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d configuration errors:\n- %s", len(ve), errors.Join(ve...))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (ve Errors) Unwrap() []error {
	return ve
}
