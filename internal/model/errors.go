package model

import (
	"errors"
	"fmt"
)

// Error taxonomy. Specific errors wrap one of these, so callers match with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrPermission             = errors.New("permission denied")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

var (
	ErrSlotNotFound    = fmt.Errorf("slot %w", ErrNotFound)
	ErrLessonNotFound  = fmt.Errorf("lesson %w", ErrNotFound)
	ErrCourseNotFound  = fmt.Errorf("course %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("meeting session %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrSlotAlreadyBound = fmt.Errorf("slot already bound: %w", ErrConflict)
	ErrVersionConflict  = fmt.Errorf("stale version: %w", ErrConflict)

	ErrSlotInactive   = errors.New("slot is not active")
	ErrCourseMismatch = errors.New("slot belongs to another course")
	ErrInvalidInput   = errors.New("invalid input")

	ErrConfirmTimeout = errors.New("conference room confirmation timed out")
)

// TransitionError describes a rejected state machine transition.
type TransitionError struct {
	Op   string
	From MeetingState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed from state %q", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// CapacityError carries the limit that was hit.
type CapacityError struct {
	Max int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("meeting is full (%d participants max)", e.Max)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
