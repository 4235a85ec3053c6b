package validation

import (
	"errors"
	"fmt"
)

// ValidationError is implemented by every error this package returns for a
// contract violation. Callers use IsValidationError to decide whether a
// failure is retryable at the agent level.
type ValidationError interface {
	error
	validationError()
}

// ParseError means the raw agent text could not be parsed into a top-level
// mapping.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

func (e *ParseError) validationError() {}

// SchemaError means the parsed output violated a stage contract.
type SchemaError struct {
	Stage   string
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema error in %s output at %s: %s", e.Stage, e.Field, e.Message)
	}
	return fmt.Sprintf("schema error in %s output: %s", e.Stage, e.Message)
}

func (e *SchemaError) validationError() {}

// IsValidationError reports whether err (or anything it wraps) is a
// ParseError or SchemaError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
