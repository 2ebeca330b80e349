package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medconsulta/agenda/internal/directory"
	"github.com/medconsulta/agenda/internal/events"
	"github.com/medconsulta/agenda/pkg/logging"
)

// DirectoryReader resolves name and contact details for the people an email
// is about.
type DirectoryReader interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
	GetProfessional(ctx context.Context, id uuid.UUID) (*directory.Professional, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*directory.Location, error)
}

// Service renders and sends booking notifications.
type Service struct {
	email  EmailSender
	dir    DirectoryReader
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, dir DirectoryReader, logger *logging.Logger) *Service {
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if dir == nil {
		panic("notify: directory reader required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, dir: dir, logger: logger}
}

// NotifyBookingScheduled emails the patient a confirmation.
func (s *Service) NotifyBookingScheduled(ctx context.Context, evt *events.BookingScheduledV1) error {
	patient, err := s.dir.GetPatient(ctx, evt.PatientID)
	if err != nil {
		return fmt.Errorf("notify: resolve patient: %w", err)
	}
	if patient.Email == "" {
		s.logger.Info("patient has no email, skipping confirmation", "patient_id", patient.ID)
		return nil
	}

	professionalName := "your professional"
	if professional, err := s.dir.GetProfessional(ctx, evt.ProfessionalID); err == nil {
		professionalName = professional.Name
	}
	locationLine := ""
	if location, err := s.dir.GetLocation(ctx, evt.LocationID); err == nil {
		locationLine = fmt.Sprintf("\nWhere: %s, %s", location.Name, location.Address)
	}

	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: "Appointment confirmed",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour appointment with %s is confirmed.\nWhen: %s to %s%s\n",
			patient.Name,
			professionalName,
			evt.StartsAt.Format("Mon, 02 Jan 2006 15:04"),
			evt.EndsAt.Format("15:04"),
			locationLine,
		),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send confirmation: %w", err)
	}
	return nil
}

// NotifyBookingCancelled emails the patient a cancellation notice.
func (s *Service) NotifyBookingCancelled(ctx context.Context, evt *events.BookingCancelledV1) error {
	patient, err := s.dir.GetPatient(ctx, evt.PatientID)
	if err != nil {
		return fmt.Errorf("notify: resolve patient: %w", err)
	}
	if patient.Email == "" {
		s.logger.Info("patient has no email, skipping cancellation notice", "patient_id", patient.ID)
		return nil
	}

	professionalName := "your professional"
	if professional, err := s.dir.GetProfessional(ctx, evt.ProfessionalID); err == nil {
		professionalName = professional.Name
	}

	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: "Appointment cancelled",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour appointment with %s on %s was cancelled.\n",
			patient.Name,
			professionalName,
			evt.StartsAt.Format("Mon, 02 Jan 2006 15:04"),
		),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send cancellation notice: %w", err)
	}
	return nil
}
