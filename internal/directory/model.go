package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient is a person who books appointments.
type Patient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Professional is a provider patients book time with.
type Professional struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	CreatedAt time.Time `json:"created_at"`
}

// Location is a place where appointments happen. Professionals attend at one
// or more locations.
type Location struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePatientRequest is the request body for registering a patient.
type CreatePatientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate checks required patient fields.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

// CreateProfessionalRequest is the request body for registering a professional.
type CreateProfessionalRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Validate checks required professional fields.
func (r *CreateProfessionalRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Specialty) == "" {
		return ErrInvalidSpecialty
	}
	return nil
}

// CreateLocationRequest is the request body for registering a location.
type CreateLocationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Validate checks required location fields.
func (r *CreateLocationRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Address) == "" {
		return ErrInvalidAddress
	}
	return nil
}
