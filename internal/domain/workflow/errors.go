package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a status does not accept a trigger
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState is returned for statuses outside the lifecycle
	ErrInvalidState = errors.New("invalid status")
)

// TransitionError names the rejected move. It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From    State
	Trigger Trigger
	Allowed []Trigger
}

func (e *TransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s: %s is not accepted from %q", ErrInvalidTransition, e.Trigger, e.From)
	}
	return fmt.Sprintf("%s: %s is not accepted from %q (allowed: %v)", ErrInvalidTransition, e.Trigger, e.From, e.Allowed)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
