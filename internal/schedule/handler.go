package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconsulta/agenda/pkg/logging"
)

// Publisher receives booking lifecycle events for asynchronous fan-out
// (confirmation emails and the like). Publishing is fire-and-forget: a
// notification failure never fails the booking.
type Publisher interface {
	BookingScheduled(ctx context.Context, b *Booking)
	BookingCancelled(ctx context.Context, b *Booking)
}

// Handler handles HTTP requests for bookings and availability.
type Handler struct {
	scheduler *Scheduler
	events    Publisher
	logger    *logging.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(scheduler *Scheduler, events Publisher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{scheduler: scheduler, events: events, logger: logger}
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeSchedulingError(w, err)
		return
	}

	booking, err := h.scheduler.CheckAndReserve(r.Context(), req)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}

	if h.events != nil {
		h.events.BookingScheduled(r.Context(), booking)
	}

	writeJSON(w, http.StatusCreated, booking)
}

// GetBooking handles GET /bookings/{bookingID}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	booking, err := h.scheduler.GetBooking(r.Context(), id)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// ListBookingsResponse is the response for listing bookings.
type ListBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
	Count    int        `json:"count"`
}

// ListBookings handles GET /bookings with optional professional_id and date filters.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	var professionalID uuid.UUID
	if raw := r.URL.Query().Get("professional_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid professional_id")
			return
		}
		professionalID = id
	}

	var day *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		day = &d
	}

	bookings, err := h.scheduler.ListBookings(r.Context(), professionalID, day)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListBookingsResponse{Bookings: bookings, Count: len(bookings)})
}

// CancelBooking handles POST /bookings/{bookingID}/cancel.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	booking, err := h.scheduler.Cancel(r.Context(), id)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}
	if h.events != nil {
		h.events.BookingCancelled(r.Context(), booking)
	}
	writeJSON(w, http.StatusOK, booking)
}

// CompleteBooking handles POST /bookings/{bookingID}/complete.
func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	booking, err := h.scheduler.Complete(r.Context(), id)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// SlotsResponse is the response for an availability query.
type SlotsResponse struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	Date           string    `json:"date"`
	Slots          []string  `json:"slots"`
}

// AvailableSlots handles GET /professionals/{professionalID}/slots?date=YYYY-MM-DD.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	professionalID, err := uuid.Parse(chi.URLParam(r, "professionalID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid professional id")
		return
	}

	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	slots, err := h.scheduler.AvailableSlots(r.Context(), professionalID, day, nil)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SlotsResponse{
		ProfessionalID: professionalID,
		Date:           raw,
		Slots:          slots,
	})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInterval), errors.Is(err, ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrProfessionalNotFound),
		errors.Is(err, ErrLocationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSchedulingConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrStorageUnavailable):
		h.logger.Error("storage unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, retry later")
	default:
		h.logger.Error("unexpected scheduling error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
