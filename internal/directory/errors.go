package directory

import "errors"

var (
	// ErrInvalidName is returned when the name is missing.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidSpecialty is returned when a professional has no specialty.
	ErrInvalidSpecialty = errors.New("specialty is required")

	// ErrInvalidAddress is returned when a location has no address.
	ErrInvalidAddress = errors.New("address is required")

	// ErrMissingContact is returned when both email and phone are missing.
	ErrMissingContact = errors.New("either email or phone is required")

	// ErrPatientNotFound is returned when a patient is not found.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrProfessionalNotFound is returned when a professional is not found.
	ErrProfessionalNotFound = errors.New("professional not found")

	// ErrLocationNotFound is returned when a location is not found.
	ErrLocationNotFound = errors.New("location not found")

	// ErrEntityInUse is returned when a delete is blocked by existing bookings.
	ErrEntityInUse = errors.New("entity has bookings and cannot be removed")
)
