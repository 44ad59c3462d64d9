package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates invalid caller input. No state was changed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the referenced task does not exist. No state was changed.
	ErrNotFound = errors.New("not found")
	// ErrIO indicates a persistent store read or write failed
	ErrIO = errors.New("storage unavailable")
)

// Validation returns an error wrapping ErrValidation with a formatted message
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound for the given task id
func NotFound(id int64) error {
	return fmt.Errorf("task %d: %w", id, ErrNotFound)
}

// IO wraps a storage failure so that both ErrIO and the cause match errors.Is
func IO(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a not found error
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsIO reports whether err is a storage error
func IsIO(err error) bool { return errors.Is(err, ErrIO) }
