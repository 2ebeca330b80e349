package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/medconsulta/agenda/internal/observability/metrics"
	"github.com/medconsulta/agenda/pkg/logging"
)

var schedulerTracer = otel.Tracer("agenda.internal.schedule")

// Scheduler is the appointment scheduling engine: it guards professionals
// against double-booking, computes availability, and drives the booking
// lifecycle.
type Scheduler struct {
	repo    Repository
	dir     DirectoryChecker
	slots   SlotConfig
	locks   *professionalLocks
	clock   Clock
	cache   *AvailabilityCache
	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
}

// SchedulerOption customizes scheduler construction.
type SchedulerOption func(*Scheduler)

// WithClock injects a time source; defaults to the system clock.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCache enables the Redis availability cache.
func WithCache(c *AvailabilityCache) SchedulerOption {
	return func(s *Scheduler) { s.cache = c }
}

// WithMetrics attaches scheduling metrics.
func WithMetrics(m *metrics.SchedulingMetrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *logging.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler constructs the engine. Repository and directory checker are
// required; slots is the default grid used when a query carries no override.
func NewScheduler(repo Repository, dir DirectoryChecker, slots SlotConfig, opts ...SchedulerOption) *Scheduler {
	if repo == nil {
		panic("schedule: repository required")
	}
	if dir == nil {
		panic("schedule: directory checker required")
	}
	s := &Scheduler{
		repo:   repo,
		dir:    dir,
		slots:  slots,
		locks:  newProfessionalLocks(),
		clock:  systemClock{},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAndReserve validates the candidate window, verifies the referenced
// records exist, and creates a SCHEDULED booking unless the professional
// already has a non-cancelled booking overlapping the window. The check and
// the create run as one unit per professional.
func (s *Scheduler) CheckAndReserve(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	ctx, span := schedulerTracer.Start(ctx, "schedule.check_and_reserve", trace.WithAttributes(
		attribute.String("agenda.professional_id", req.ProfessionalID.String()),
		attribute.String("agenda.patient_id", req.PatientID.String()),
	))
	defer span.End()

	interval, err := NewInterval(req.StartsAt, req.EndsAt)
	if err != nil {
		s.metrics.ObserveReserve("invalid_interval")
		return nil, err
	}

	if err := s.checkReferences(ctx, req); err != nil {
		s.metrics.ObserveReserve("not_found")
		return nil, err
	}

	unlock := s.locks.lock(req.ProfessionalID)
	defer unlock()

	existing, err := s.repo.ListByProfessional(ctx, req.ProfessionalID, nil, StatusCancelled)
	if err != nil {
		s.metrics.ObserveReserve("storage_error")
		span.RecordError(err)
		return nil, err
	}
	for _, b := range existing {
		if b.Interval().Overlaps(interval) {
			s.metrics.ObserveReserve("conflict")
			s.logger.Info("reservation rejected on conflict",
				"professional_id", req.ProfessionalID,
				"starts_at", req.StartsAt,
				"conflicting_booking_id", b.ID,
			)
			return nil, ErrSchedulingConflict
		}
	}

	now := s.clock.Now()
	booking := &Booking{
		ID:             uuid.New(),
		PatientID:      req.PatientID,
		ProfessionalID: req.ProfessionalID,
		LocationID:     req.LocationID,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		Status:         StatusScheduled,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		s.metrics.ObserveReserve("storage_error")
		span.RecordError(err)
		return nil, err
	}

	s.cache.Invalidate(ctx, booking.ProfessionalID, booking.StartsAt)
	s.metrics.ObserveReserve("created")
	s.logger.Info("booking created",
		"booking_id", booking.ID,
		"professional_id", booking.ProfessionalID,
		"starts_at", booking.StartsAt,
	)
	return booking, nil
}

func (s *Scheduler) checkReferences(ctx context.Context, req CreateBookingRequest) error {
	checks := []struct {
		kind    EntityKind
		id      uuid.UUID
		missing error
	}{
		{EntityPatient, req.PatientID, ErrPatientNotFound},
		{EntityProfessional, req.ProfessionalID, ErrProfessionalNotFound},
		{EntityLocation, req.LocationID, ErrLocationNotFound},
	}
	for _, c := range checks {
		if c.id == uuid.Nil {
			return c.missing
		}
		exists, err := s.dir.EntityExists(ctx, c.kind, c.id)
		if err != nil {
			return err
		}
		if !exists {
			return c.missing
		}
	}
	return nil
}

// AvailableSlots computes the bookable start times for a professional on a
// calendar day, in ascending order. A nil cfg uses the scheduler's default
// grid. The read path shares the overlap predicate with CheckAndReserve so
// every offered slot is accepted when booked immediately.
func (s *Scheduler) AvailableSlots(ctx context.Context, professionalID uuid.UUID, day time.Time, cfg *SlotConfig) ([]string, error) {
	ctx, span := schedulerTracer.Start(ctx, "schedule.available_slots", trace.WithAttributes(
		attribute.String("agenda.professional_id", professionalID.String()),
		attribute.String("agenda.day", day.Format("2006-01-02")),
	))
	defer span.End()

	exists, err := s.dir.EntityExists(ctx, EntityProfessional, professionalID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProfessionalNotFound
	}

	grid := s.slots
	cacheable := cfg == nil
	if cfg != nil {
		grid = *cfg
	}

	started := s.clock.Now()
	if cacheable {
		if slots, ok := s.cache.Get(ctx, professionalID, day); ok {
			s.metrics.ObserveAvailabilityLatency("hit", time.Since(started).Seconds())
			return slots, nil
		}
	}

	booked, err := s.repo.ListByProfessional(ctx, professionalID, &day, StatusCancelled)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	occupied := make([]Interval, 0, len(booked))
	for _, b := range booked {
		occupied = append(occupied, b.Interval())
	}

	slots := make([]string, 0)
	for _, candidate := range grid.grid(day) {
		if overlapsAny(candidate, occupied) {
			continue
		}
		slots = append(slots, candidate.Start.Format("15:04"))
	}

	if cacheable {
		s.cache.Set(ctx, professionalID, day, slots)
	}
	s.metrics.ObserveAvailabilityLatency("miss", time.Since(started).Seconds())
	return slots, nil
}

// Complete moves a booking to COMPLETED once its window has ended.
func (s *Scheduler) Complete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	ctx, span := schedulerTracer.Start(ctx, "schedule.complete")
	defer span.End()
	span.SetAttributes(attribute.String("agenda.booking_id", id.String()))

	booking, err := s.transition(ctx, id, func(b *Booking) error {
		return b.Complete(s.clock.Now())
	})
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.ObserveTransition(string(StatusCompleted), outcome)
	return booking, err
}

// Cancel moves a booking to CANCELLED and releases its window immediately.
func (s *Scheduler) Cancel(ctx context.Context, id uuid.UUID) (*Booking, error) {
	ctx, span := schedulerTracer.Start(ctx, "schedule.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("agenda.booking_id", id.String()))

	booking, err := s.transition(ctx, id, func(b *Booking) error {
		return b.Cancel(s.clock.Now())
	})
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.ObserveTransition(string(StatusCancelled), outcome)
	if err == nil {
		s.cache.Invalidate(ctx, booking.ProfessionalID, booking.StartsAt)
		s.logger.Info("booking cancelled", "booking_id", booking.ID, "professional_id", booking.ProfessionalID)
	}
	return booking, err
}

func (s *Scheduler) transition(ctx context.Context, id uuid.UUID, move func(*Booking) error) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := booking.Status
	if err := move(booking); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, booking, from); err != nil {
		return nil, err
	}
	return booking, nil
}

// GetBooking returns a single booking.
func (s *Scheduler) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// ListBookings returns all bookings, optionally filtered by professional and day.
func (s *Scheduler) ListBookings(ctx context.Context, professionalID uuid.UUID, day *time.Time) ([]*Booking, error) {
	if professionalID == uuid.Nil {
		return s.repo.List(ctx, day)
	}
	// The zero Status filters nothing out: every stored status is non-zero.
	return s.repo.ListByProfessional(ctx, professionalID, day, Status(""))
}
