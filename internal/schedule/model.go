package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Booking is an appointment of a patient with a professional at a location.
// The core never deletes bookings; cancelled rows stay but drop out of
// conflict and occupancy checks.
type Booking struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	ProfessionalID uuid.UUID  `json:"professional_id"`
	LocationID     uuid.UUID  `json:"location_id"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         time.Time  `json:"ends_at"`
	Status         Status     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Interval returns the booking window as a half-open interval.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartsAt, End: b.EndsAt}
}

// Cancel moves the booking to CANCELLED. Allowed at any time while SCHEDULED.
func (b *Booking) Cancel(now time.Time) error {
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// Complete moves the booking to COMPLETED. A booking whose window has not
// ended yet cannot be completed.
func (b *Booking) Complete(now time.Time) error {
	if !b.Status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidTransition
	}
	if b.EndsAt.After(now) {
		return ErrInvalidTransition
	}
	b.Status = StatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now
	return nil
}

func (b *Booking) clone() *Booking {
	cp := *b
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		cp.CancelledAt = &t
	}
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// CreateBookingRequest carries a candidate booking. Referenced entities are
// verified against the directory before any conflict check runs.
type CreateBookingRequest struct {
	PatientID      uuid.UUID `json:"patient_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	LocationID     uuid.UUID `json:"location_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Notes          string    `json:"notes"`
}

// Validate checks references and the candidate window.
func (r *CreateBookingRequest) Validate() error {
	if r.PatientID == uuid.Nil {
		return ErrPatientNotFound
	}
	if r.ProfessionalID == uuid.Nil {
		return ErrProfessionalNotFound
	}
	if r.LocationID == uuid.Nil {
		return ErrLocationNotFound
	}
	_, err := NewInterval(r.StartsAt, r.EndsAt)
	return err
}
