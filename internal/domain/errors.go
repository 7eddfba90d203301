package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for structurally invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrIllegalTransition is returned when an entity's state forbids the operation.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersistence matches every PersistenceError.
	ErrPersistence = errors.New("persistence failed")
)

// PersistenceError reports a load or save that did not complete. The
// operation that triggered it was not durably committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Invalid wraps ErrValidation with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Illegal wraps ErrIllegalTransition with a formatted reason.
func Illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalTransition, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the entity kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
