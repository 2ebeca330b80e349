package events

import (
	"time"

	"github.com/google/uuid"
)

// BookingScheduledV1 is emitted after a booking is reserved.
type BookingScheduledV1 struct {
	BookingID      uuid.UUID `json:"booking_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	LocationID     uuid.UUID `json:"location_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// BookingCancelledV1 is emitted after a booking is cancelled.
type BookingCancelledV1 struct {
	BookingID      uuid.UUID `json:"booking_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	OccurredAt     time.Time `json:"occurred_at"`
}
