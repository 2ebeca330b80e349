package notify

import (
	"context"
	"time"

	"github.com/medconsulta/agenda/internal/events"
	"github.com/medconsulta/agenda/internal/schedule"
	"github.com/medconsulta/agenda/pkg/logging"
)

// Publisher enqueues booking lifecycle events for the notification worker.
// Publishing is best-effort: a queue failure is logged, never returned, so a
// booking outcome does not depend on the notification pipeline.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a publisher over the queue.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// BookingScheduled enqueues a booking_scheduled.v1 event.
func (p *Publisher) BookingScheduled(ctx context.Context, b *schedule.Booking) {
	payload := queuePayload{
		Kind: kindBookingScheduled,
		Scheduled: &events.BookingScheduledV1{
			BookingID:      b.ID,
			PatientID:      b.PatientID,
			ProfessionalID: b.ProfessionalID,
			LocationID:     b.LocationID,
			StartsAt:       b.StartsAt,
			EndsAt:         b.EndsAt,
			OccurredAt:     time.Now().UTC(),
		},
	}
	p.publish(ctx, payload)
}

// BookingCancelled enqueues a booking_cancelled.v1 event.
func (p *Publisher) BookingCancelled(ctx context.Context, b *schedule.Booking) {
	payload := queuePayload{
		Kind: kindBookingCancelled,
		Cancelled: &events.BookingCancelledV1{
			BookingID:      b.ID,
			PatientID:      b.PatientID,
			ProfessionalID: b.ProfessionalID,
			StartsAt:       b.StartsAt,
			EndsAt:         b.EndsAt,
			OccurredAt:     time.Now().UTC(),
		},
	}
	p.publish(ctx, payload)
}

func (p *Publisher) publish(ctx context.Context, payload queuePayload) {
	payload, body, err := encodePayload(payload)
	if err != nil {
		p.logger.Error("failed to encode notification payload", "kind", payload.Kind, "error", err)
		return
	}
	if err := p.queue.Send(ctx, body); err != nil {
		p.logger.Error("failed to enqueue notification", "kind", payload.Kind, "id", payload.ID, "error", err)
		return
	}
	p.logger.Debug("notification enqueued", "kind", payload.Kind, "id", payload.ID)
}
