package notify

import (
	"context"
	"testing"
	"time"

	"github.com/medconsulta/agenda/internal/schedule"
)

func waitForEmails(t *testing.T, sender *capturingSender, want int) []EmailMessage {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		if msgs := sender.messages(); len(msgs) >= want {
			return msgs
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d emails, got %d", want, len(sender.messages()))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPublisherAndWorkerRoundTrip(t *testing.T) {
	f := newFixtures(t)
	sender := &capturingSender{}
	queue := NewMemoryQueue(8)
	publisher := NewPublisher(queue, nil)
	worker := NewWorker(NewService(sender, f.repo, nil), queue, nil, WithWorkerCount(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	booking := &schedule.Booking{
		PatientID:      f.patient.ID,
		ProfessionalID: f.professional.ID,
		LocationID:     f.location.ID,
		StartsAt:       time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC),
	}
	publisher.BookingScheduled(context.Background(), booking)
	publisher.BookingCancelled(context.Background(), booking)

	msgs := waitForEmails(t, sender, 2)
	subjects := map[string]bool{}
	for _, m := range msgs {
		subjects[m.Subject] = true
	}
	if !subjects["Appointment confirmed"] || !subjects["Appointment cancelled"] {
		t.Fatalf("unexpected subjects: %v", subjects)
	}

	cancel()
	worker.Wait()
}

func TestWorkerDropsMalformedMessages(t *testing.T) {
	f := newFixtures(t)
	sender := &capturingSender{}
	queue := NewMemoryQueue(8)
	worker := NewWorker(NewService(sender, f.repo, nil), queue, nil, WithWorkerCount(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	if err := queue.Send(context.Background(), "{not json"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := queue.Send(context.Background(), `{"id":"x","kind":"unknown.v1"}`); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Then a valid event should still get through.
	publisher := NewPublisher(queue, nil)
	publisher.BookingScheduled(context.Background(), &schedule.Booking{
		PatientID:      f.patient.ID,
		ProfessionalID: f.professional.ID,
		LocationID:     f.location.ID,
		StartsAt:       time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC),
	})

	msgs := waitForEmails(t, sender, 1)
	if msgs[0].Subject != "Appointment confirmed" {
		t.Fatalf("unexpected email: %+v", msgs[0])
	}

	cancel()
	worker.Wait()
}

func TestMemoryQueueSendReceive(t *testing.T) {
	queue := NewMemoryQueue(2)

	if err := queue.Send(context.Background(), "a"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := queue.Send(context.Background(), "b"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := queue.Receive(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Body != "a" || msgs[1].Body != "b" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if err := queue.Delete(context.Background(), msgs[0].ReceiptHandle); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// An empty queue with a wait times out with no messages.
	msgs, err = queue.Receive(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty receive, got %+v", msgs)
	}
}
