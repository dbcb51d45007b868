package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrState indicates that an operation is not legal in the settlement's
// current lifecycle state (e.g. the settlement is finalized or cancelled).
var ErrState = errors.New("operation not allowed in current settlement state")

// ErrConflict indicates that a concurrent writer modified the settlement
// between read and write (optimistic version check failed).
var ErrConflict = errors.New("settlement was modified concurrently")

// InvalidTransitionError is returned when a settlement status transition is
// requested that the state machine does not permit. It names both states and
// unwraps to ErrState so callers can treat it as a state error.
type InvalidTransitionError struct {
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid settlement status transition from %s to %s", e.Current, e.Requested)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrState
}

// NewInvalidTransitionError builds an InvalidTransitionError from the current
// and requested status values.
func NewInvalidTransitionError(current, requested string) *InvalidTransitionError {
	return &InvalidTransitionError{Current: current, Requested: requested}
}
