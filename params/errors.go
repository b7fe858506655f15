package params

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownParameter is wrapped by UnknownParameterError
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrMissingValue is wrapped by MissingValueError
	ErrMissingValue = errors.New("missing value for required parameter")
	// ErrInvalidValue is wrapped by InvalidValueError
	ErrInvalidValue = errors.New("invalid parameter value")
)

// UnknownParameterError is returned when a caller names a parameter
// that the registry does not declare.
type UnknownParameterError struct {
	Name string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter %q", e.Name)
}

func (e *UnknownParameterError) Unwrap() error { return ErrUnknownParameter }

// MissingValueError is returned when a required parameter has no value
type MissingValueError struct {
	Name string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("missing value for required parameter %q", e.Name)
}

func (e *MissingValueError) Unwrap() error { return ErrMissingValue }

// InvalidValueError is returned when a supplied value cannot be coerced
// to the declared type of its parameter.
type InvalidValueError struct {
	Name string
	Type Type
	Err  error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for parameter %q of type %v: %v", e.Name, e.Type, e.Err)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }
