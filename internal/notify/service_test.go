package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medconsulta/agenda/internal/directory"
	"github.com/medconsulta/agenda/internal/events"
)

type capturingSender struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (s *capturingSender) Send(ctx context.Context, msg EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *capturingSender) messages() []EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EmailMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

type fixtures struct {
	repo         *directory.InMemoryRepository
	patient      *directory.Patient
	professional *directory.Professional
	location     *directory.Location
}

func newFixtures(t *testing.T) fixtures {
	t.Helper()
	repo := directory.NewInMemoryRepository()
	patient, err := repo.CreatePatient(context.Background(), &directory.CreatePatientRequest{Name: "Ana Souza", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	professional, err := repo.CreateProfessional(context.Background(), &directory.CreateProfessionalRequest{Name: "Dr. Lima", Specialty: "cardiology"})
	if err != nil {
		t.Fatalf("seed professional: %v", err)
	}
	location, err := repo.CreateLocation(context.Background(), &directory.CreateLocationRequest{Name: "Unidade Centro", Address: "Rua A, 100"})
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return fixtures{repo: repo, patient: patient, professional: professional, location: location}
}

func scheduledEvent(f fixtures) *events.BookingScheduledV1 {
	starts := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	return &events.BookingScheduledV1{
		BookingID:      uuid.New(),
		PatientID:      f.patient.ID,
		ProfessionalID: f.professional.ID,
		LocationID:     f.location.ID,
		StartsAt:       starts,
		EndsAt:         starts.Add(30 * time.Minute),
		OccurredAt:     time.Now().UTC(),
	}
}

func TestNotifyBookingScheduled(t *testing.T) {
	f := newFixtures(t)
	sender := &capturingSender{}
	svc := NewService(sender, f.repo, nil)

	if err := svc.NotifyBookingScheduled(context.Background(), scheduledEvent(f)); err != nil {
		t.Fatalf("notify: %v", err)
	}

	sent := sender.messages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sent))
	}
	msg := sent[0]
	if msg.To != "ana@example.com" {
		t.Errorf("unexpected recipient: %s", msg.To)
	}
	if msg.Subject != "Appointment confirmed" {
		t.Errorf("unexpected subject: %s", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Dr. Lima") || !strings.Contains(msg.Body, "Unidade Centro") {
		t.Errorf("body missing details: %q", msg.Body)
	}
}

func TestNotifyBookingScheduledNoEmail(t *testing.T) {
	f := newFixtures(t)
	patient, err := f.repo.CreatePatient(context.Background(), &directory.CreatePatientRequest{Name: "Bruno", Phone: "+5511999999999"})
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	sender := &capturingSender{}
	svc := NewService(sender, f.repo, nil)

	evt := scheduledEvent(f)
	evt.PatientID = patient.ID
	if err := svc.NotifyBookingScheduled(context.Background(), evt); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.messages()) != 0 {
		t.Fatal("expected no email for a patient without an address")
	}
}

func TestNotifyBookingScheduledUnknownPatient(t *testing.T) {
	f := newFixtures(t)
	svc := NewService(&capturingSender{}, f.repo, nil)

	evt := scheduledEvent(f)
	evt.PatientID = uuid.New()
	if err := svc.NotifyBookingScheduled(context.Background(), evt); !errors.Is(err, directory.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestNotifyBookingCancelled(t *testing.T) {
	f := newFixtures(t)
	sender := &capturingSender{}
	svc := NewService(sender, f.repo, nil)

	evt := &events.BookingCancelledV1{
		BookingID:      uuid.New(),
		PatientID:      f.patient.ID,
		ProfessionalID: f.professional.ID,
		StartsAt:       time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC),
		OccurredAt:     time.Now().UTC(),
	}
	if err := svc.NotifyBookingCancelled(context.Background(), evt); err != nil {
		t.Fatalf("notify: %v", err)
	}

	sent := sender.messages()
	if len(sent) != 1 || sent[0].Subject != "Appointment cancelled" {
		t.Fatalf("unexpected emails: %+v", sent)
	}
}
