package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// allowAllDirectory reports every entity as existing, except ids listed in
// missing.
type allowAllDirectory struct {
	missing map[uuid.UUID]bool
}

func (d *allowAllDirectory) EntityExists(ctx context.Context, kind EntityKind, id uuid.UUID) (bool, error) {
	if d.missing[id] {
		return false, nil
	}
	return true, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: day().Add(7 * time.Hour)} // 07:00 on the test day
	s := NewScheduler(
		NewInMemoryRepository(),
		&allowAllDirectory{},
		DefaultSlotConfig(),
		WithClock(clock),
	)
	return s, clock
}

func request(start, end time.Time) CreateBookingRequest {
	return CreateBookingRequest{
		PatientID:      uuid.New(),
		ProfessionalID: uuid.New(),
		LocationID:     uuid.New(),
		StartsAt:       start,
		EndsAt:         end,
	}
}

func TestListBookingsDateOnlyFilter(t *testing.T) {
	s, _ := newTestScheduler(t)

	if _, err := s.CheckAndReserve(context.Background(), request(at(9, 0), at(9, 30))); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}
	next := request(at(9, 0).AddDate(0, 0, 1), at(9, 30).AddDate(0, 0, 1))
	if _, err := s.CheckAndReserve(context.Background(), next); err != nil {
		t.Fatalf("seed next-day booking failed: %v", err)
	}

	// Date filter with no professional filter still restricts the result.
	d := day()
	got, err := s.ListBookings(context.Background(), uuid.Nil, &d)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 booking on the filtered day, got %d", len(got))
	}
	if !sameDay(got[0].StartsAt, d) {
		t.Errorf("booking outside the filtered day: %v", got[0].StartsAt)
	}

	all, err := s.ListBookings(context.Background(), uuid.Nil, nil)
	if err != nil {
		t.Fatalf("ListBookings without filters: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 bookings without filters, got %d", len(all))
	}
}

func TestCheckAndReserveCreatesScheduledBooking(t *testing.T) {
	s, _ := newTestScheduler(t)

	req := request(at(9, 0), at(9, 30))
	req.Notes = "first visit"
	booking, err := s.CheckAndReserve(context.Background(), req)
	if err != nil {
		t.Fatalf("CheckAndReserve returned error: %v", err)
	}
	if booking.Status != StatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", booking.Status)
	}
	if booking.ID == uuid.Nil {
		t.Error("expected a booking id")
	}
	if booking.Notes != "first visit" {
		t.Errorf("notes not carried: %q", booking.Notes)
	}
}

func TestCheckAndReserveRejectsInvalidInterval(t *testing.T) {
	s, _ := newTestScheduler(t)

	_, err := s.CheckAndReserve(context.Background(), request(at(10, 0), at(9, 0)))
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestCheckAndReserveRejectsMissingReferences(t *testing.T) {
	missing := uuid.New()
	dir := &allowAllDirectory{missing: map[uuid.UUID]bool{missing: true}}
	s := NewScheduler(NewInMemoryRepository(), dir, DefaultSlotConfig())

	base := request(at(9, 0), at(9, 30))

	req := base
	req.PatientID = missing
	if _, err := s.CheckAndReserve(context.Background(), req); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}

	req = base
	req.ProfessionalID = missing
	if _, err := s.CheckAndReserve(context.Background(), req); !errors.Is(err, ErrProfessionalNotFound) {
		t.Errorf("expected ErrProfessionalNotFound, got %v", err)
	}

	req = base
	req.LocationID = missing
	if _, err := s.CheckAndReserve(context.Background(), req); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestCheckAndReserveConflictAndTouchingWindows(t *testing.T) {
	s, _ := newTestScheduler(t)
	professional := uuid.New()

	first := request(at(9, 0), at(9, 30))
	first.ProfessionalID = professional
	if _, err := s.CheckAndReserve(context.Background(), first); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	overlapping := request(at(9, 15), at(9, 45))
	overlapping.ProfessionalID = professional
	if _, err := s.CheckAndReserve(context.Background(), overlapping); !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("expected ErrSchedulingConflict, got %v", err)
	}

	// Touching endpoints do not overlap.
	touching := request(at(9, 30), at(10, 0))
	touching.ProfessionalID = professional
	if _, err := s.CheckAndReserve(context.Background(), touching); err != nil {
		t.Fatalf("touching window should be accepted, got %v", err)
	}
}

func TestConflictIgnoresOtherProfessionals(t *testing.T) {
	s, _ := newTestScheduler(t)

	a := request(at(9, 0), at(9, 30))
	if _, err := s.CheckAndReserve(context.Background(), a); err != nil {
		t.Fatalf("booking for professional A failed: %v", err)
	}

	b := request(at(9, 0), at(9, 30)) // different professional, same window
	if _, err := s.CheckAndReserve(context.Background(), b); err != nil {
		t.Fatalf("same window with another professional should succeed, got %v", err)
	}
}

func TestCancelledBookingFreesWindow(t *testing.T) {
	s, _ := newTestScheduler(t)
	professional := uuid.New()

	first := request(at(9, 0), at(9, 30))
	first.ProfessionalID = professional
	booked, err := s.CheckAndReserve(context.Background(), first)
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	if _, err := s.Cancel(context.Background(), booked.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	again := request(at(9, 0), at(9, 30))
	again.ProfessionalID = professional
	if _, err := s.CheckAndReserve(context.Background(), again); err != nil {
		t.Fatalf("window should be free after cancel, got %v", err)
	}
}

func TestAvailableSlotsDefaultDay(t *testing.T) {
	s, _ := newTestScheduler(t)
	professional := uuid.New()

	slots, err := s.AvailableSlots(context.Background(), professional, day(), nil)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 default slots, got %d: %v", len(slots), slots)
	}
	if slots[0] != "08:00" || slots[7] != "11:30" || slots[8] != "14:00" || slots[15] != "17:30" {
		t.Fatalf("unexpected default grid: %v", slots)
	}
}

func TestAvailableSlotsExcludesBookedAndRestoresOnCancel(t *testing.T) {
	s, _ := newTestScheduler(t)
	professional := uuid.New()

	req := request(at(9, 0), at(9, 30))
	req.ProfessionalID = professional
	booked, err := s.CheckAndReserve(context.Background(), req)
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	slots, err := s.AvailableSlots(context.Background(), professional, day(), nil)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots after one booking, got %d", len(slots))
	}
	for _, slot := range slots {
		if slot == "09:00" {
			t.Fatal("booked 09:00 slot still offered")
		}
	}

	if _, err := s.Cancel(context.Background(), booked.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	slots, err = s.AvailableSlots(context.Background(), professional, day(), nil)
	if err != nil {
		t.Fatalf("AvailableSlots after cancel: %v", err)
	}
	found := false
	for _, slot := range slots {
		if slot == "09:00" {
			found = true
		}
	}
	if !found {
		t.Fatal("09:00 should be offered again after cancellation")
	}
}

func TestAvailableSlotsUnknownProfessional(t *testing.T) {
	missing := uuid.New()
	dir := &allowAllDirectory{missing: map[uuid.UUID]bool{missing: true}}
	s := NewScheduler(NewInMemoryRepository(), dir, DefaultSlotConfig())

	if _, err := s.AvailableSlots(context.Background(), missing, day(), nil); !errors.Is(err, ErrProfessionalNotFound) {
		t.Fatalf("expected ErrProfessionalNotFound, got %v", err)
	}
}

// Every offered slot must be accepted when immediately reserved: the read and
// write paths share one overlap predicate.
func TestOfferedSlotsAreReservable(t *testing.T) {
	s, _ := newTestScheduler(t)
	professional := uuid.New()

	seed := request(at(10, 0), at(10, 30))
	seed.ProfessionalID = professional
	if _, err := s.CheckAndReserve(context.Background(), seed); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	slots, err := s.AvailableSlots(context.Background(), professional, day(), nil)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	for _, slot := range slots {
		start, err := time.Parse("15:04", slot)
		if err != nil {
			t.Fatalf("malformed slot %q: %v", slot, err)
		}
		startsAt := time.Date(2026, time.March, 10, start.Hour(), start.Minute(), 0, 0, time.UTC)
		req := request(startsAt, startsAt.Add(30*time.Minute))
		req.ProfessionalID = professional
		if _, err := s.CheckAndReserve(context.Background(), req); err != nil {
			t.Fatalf("offered slot %s rejected: %v", slot, err)
		}
	}
}

func TestCompleteLifecycle(t *testing.T) {
	s, clock := newTestScheduler(t)

	req := request(at(9, 0), at(9, 30))
	booked, err := s.CheckAndReserve(context.Background(), req)
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	// 07:00 — the window has not ended yet.
	if _, err := s.Complete(context.Background(), booked.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for a future booking, got %v", err)
	}

	clock.Advance(3 * time.Hour) // 10:00, past the 09:30 end
	completed, err := s.Complete(context.Background(), booked.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != StatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected COMPLETED with timestamp, got %+v", completed)
	}

	// Terminal states are immutable.
	if _, err := s.Complete(context.Background(), booked.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second complete should fail, got %v", err)
	}
	if _, err := s.Cancel(context.Background(), booked.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel after complete should fail, got %v", err)
	}
}

func TestCancelTwiceFails(t *testing.T) {
	s, _ := newTestScheduler(t)

	booked, err := s.CheckAndReserve(context.Background(), request(at(9, 0), at(9, 30)))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	if _, err := s.Cancel(context.Background(), booked.ID); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if _, err := s.Cancel(context.Background(), booked.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel should fail with ErrInvalidTransition, got %v", err)
	}

	got, err := s.GetBooking(context.Background(), booked.ID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("state changed by failed transition: %s", got.Status)
	}
}

func TestLifecycleUnknownBooking(t *testing.T) {
	s, _ := newTestScheduler(t)

	if _, err := s.Complete(context.Background(), uuid.New()); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
	if _, err := s.Cancel(context.Background(), uuid.New()); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}

// Concurrent overlapping requests for one professional must produce exactly
// one booking.
func TestConcurrentReservationsSerialized(t *testing.T) {
	s, _ := newTestScheduler(t)
	professional := uuid.New()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := request(at(9, 0), at(9, 30))
			req.ProfessionalID = professional
			_, errs[i] = s.CheckAndReserve(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var created, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrSchedulingConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly 1 successful reservation, got %d", created)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

// After any sequence of successful operations no two non-cancelled bookings
// of one professional overlap.
func TestNoOverlapInvariantHolds(t *testing.T) {
	s, _ := newTestScheduler(t)
	professional := uuid.New()

	windows := []struct{ sh, sm, eh, em int }{
		{9, 0, 9, 30}, {9, 15, 9, 45}, {9, 30, 10, 0}, {10, 0, 11, 0},
		{10, 30, 11, 30}, {14, 0, 14, 30}, {13, 45, 14, 15},
	}
	for _, w := range windows {
		req := request(at(w.sh, w.sm), at(w.eh, w.em))
		req.ProfessionalID = professional
		_, err := s.CheckAndReserve(context.Background(), req)
		if err != nil && !errors.Is(err, ErrSchedulingConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	active, err := s.repo.ListByProfessional(context.Background(), professional, nil, StatusCancelled)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			if active[i].Interval().Overlaps(active[j].Interval()) {
				t.Fatalf("overlapping bookings persisted: %v and %v", active[i], active[j])
			}
		}
	}
}
