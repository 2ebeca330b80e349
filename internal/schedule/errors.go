package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInterval is returned when a booking window has start >= end.
	ErrInvalidInterval = errors.New("interval start must be before end")

	// ErrBookingNotFound is returned when a booking id is unknown.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrPatientNotFound is returned when the referenced patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrProfessionalNotFound is returned when the referenced professional does not exist.
	ErrProfessionalNotFound = errors.New("professional not found")

	// ErrLocationNotFound is returned when the referenced location does not exist.
	ErrLocationNotFound = errors.New("location not found")

	// ErrSchedulingConflict is returned when the professional already has a
	// non-cancelled booking overlapping the requested window.
	ErrSchedulingConflict = errors.New("professional already has a booking in that window")

	// ErrInvalidTransition is returned on an illegal lifecycle move.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrStorageUnavailable marks persistence-layer faults. It is the only
	// error kind callers may retry.
	ErrStorageUnavailable = errors.New("booking storage unavailable")
)

// StorageError wraps a persistence fault, keeping the cause while matching
// errors.Is(err, ErrStorageUnavailable).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("schedule: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
