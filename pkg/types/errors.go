package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTopology is matched by every error reporting a cluster
	// spec that cannot be turned into a topology.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrEmissionFailure is matched by every error raised while
	// serializing or delivering a descriptor.
	ErrEmissionFailure = errors.New("emission failure")
)

// ValidationError represents an error that occurs during validation.
type ValidationError struct {
	// Field is the parameter that failed validation, if known.
	Field   string
	Message string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrInvalidTopology.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidTopology
}

// NewValidationError creates a new ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		Message: message,
	}
}

// NewInvalidTopologyError creates a ValidationError bound to a parameter.
func NewInvalidTopologyError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WrapValidationError wraps an error with additional context.
func WrapValidationError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	message := fmt.Sprintf(format, args...)
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{
			Field:   ve.Field,
			Message: fmt.Sprintf("%s: %s", message, ve.Message),
		}
	}

	return &ValidationError{
		Message: fmt.Sprintf("%s: %v", message, err),
	}
}

// EmissionError reports a descriptor that could not be serialized or delivered.
type EmissionError struct {
	// Format is the serialization format in use.
	Format string
	// Stage is "serialize" or "submit".
	Stage string
	Err   error
}

// Error returns the error message.
func (e *EmissionError) Error() string {
	return fmt.Sprintf("emit %s descriptor: %s: %v", e.Format, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EmissionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrEmissionFailure.
func (e *EmissionError) Is(target error) bool {
	return target == ErrEmissionFailure
}
