package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations the scheduling engine
// consumes. The engine never accesses storage directly.
type Repository interface {
	// Create persists a new booking. Implementations backed by storage with
	// an overlap constraint may return ErrSchedulingConflict here.
	Create(ctx context.Context, b *Booking) error

	// GetByID returns the booking or ErrBookingNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ListByProfessional returns a professional's bookings in ascending
	// start order, excluding the given status. A non-nil day restricts the
	// result to bookings starting on that calendar day.
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, day *time.Time, excludeStatus Status) ([]*Booking, error)

	// List returns all bookings in ascending start order. A non-nil day
	// restricts the result to bookings starting on that calendar day.
	List(ctx context.Context, day *time.Time) ([]*Booking, error)

	// UpdateStatus persists the transition recorded on b. The stored row
	// must still be in the from status, otherwise ErrInvalidTransition.
	UpdateStatus(ctx context.Context, b *Booking, from Status) error
}

// EntityKind names the directory records the engine checks before booking.
type EntityKind string

const (
	EntityPatient      EntityKind = "patient"
	EntityProfessional EntityKind = "professional"
	EntityLocation     EntityKind = "location"
)

// DirectoryChecker verifies that referenced directory records exist. It is
// the boundary to the patient/professional/location collaborator.
type DirectoryChecker interface {
	EntityExists(ctx context.Context, kind EntityKind, id uuid.UUID) (bool, error)
}

// InMemoryRepository stores bookings in a map. It backs tests and the
// development mode without Postgres.
type InMemoryRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*Booking
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{bookings: make(map[uuid.UUID]*Booking)}
}

// Create stores a copy of the booking.
func (r *InMemoryRepository) Create(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = b.clone()
	return nil
}

// GetByID returns a copy of the booking.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b.clone(), nil
}

// ListByProfessional filters by professional, optional day, and status.
func (r *InMemoryRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, day *time.Time, excludeStatus Status) ([]*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Booking, 0)
	for _, b := range r.bookings {
		if b.ProfessionalID != professionalID || b.Status == excludeStatus {
			continue
		}
		if day != nil && !sameDay(b.StartsAt, *day) {
			continue
		}
		out = append(out, b.clone())
	}
	sortByStart(out)
	return out, nil
}

// List returns every stored booking, optionally restricted to one day.
func (r *InMemoryRepository) List(ctx context.Context, day *time.Time) ([]*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		if day != nil && !sameDay(b.StartsAt, *day) {
			continue
		}
		out = append(out, b.clone())
	}
	sortByStart(out)
	return out, nil
}

// UpdateStatus replaces the stored booking when its status still matches from.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, b *Booking, from Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[b.ID]
	if !ok {
		return ErrBookingNotFound
	}
	if stored.Status != from {
		return ErrInvalidTransition
	}
	r.bookings[b.ID] = b.clone()
	return nil
}

func sortByStart(bookings []*Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartsAt.Before(bookings[j].StartsAt)
	})
}

// sameDay compares calendar days in the booking's own zone; the engine runs
// in a single implicit timezone.
func sameDay(t, day time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
