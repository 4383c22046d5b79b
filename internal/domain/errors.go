package domain

import (
	"errors"
	"fmt"
)

// ValidationError is a client-input failure: a bad field, an empty batch, or a
// lookup miss the caller can correct.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalidf builds a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UnavailableError reports that a capability backed by a startup artifact or a
// data file cannot serve requests.
type UnavailableError struct {
	Capability string
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return e.Capability + " not available"
	}
	return fmt.Sprintf("%s not available: %v", e.Capability, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as an UnavailableError for capability.
func Unavailable(capability string, err error) error {
	return &UnavailableError{Capability: capability, Err: err}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsUnavailable reports whether err is, or wraps, an UnavailableError.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}
