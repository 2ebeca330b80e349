package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/medconsulta/agenda/internal/events"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type eventKind string

const (
	kindBookingScheduled eventKind = "booking_scheduled.v1"
	kindBookingCancelled eventKind = "booking_cancelled.v1"
)

type queuePayload struct {
	ID        string                     `json:"id"`
	Kind      eventKind                  `json:"kind"`
	Scheduled *events.BookingScheduledV1 `json:"scheduled,omitempty"`
	Cancelled *events.BookingCancelledV1 `json:"cancelled,omitempty"`
}

func encodePayload(payload queuePayload) (queuePayload, string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("notify: failed to encode payload: %w", err)
	}
	return payload, string(body), nil
}
