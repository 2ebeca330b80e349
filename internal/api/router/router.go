package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medconsulta/agenda/internal/directory"
	httpmiddleware "github.com/medconsulta/agenda/internal/http/middleware"
	"github.com/medconsulta/agenda/internal/schedule"
	"github.com/medconsulta/agenda/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *schedule.Handler
	DirectoryHandler   *directory.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitPerSecond enables per-IP rate limiting when > 0.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.BookingHandler != nil {
		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", cfg.BookingHandler.CreateBooking)
			r.Get("/", cfg.BookingHandler.ListBookings)
			r.Get("/{bookingID}", cfg.BookingHandler.GetBooking)
			r.Post("/{bookingID}/cancel", cfg.BookingHandler.CancelBooking)
			r.Post("/{bookingID}/complete", cfg.BookingHandler.CompleteBooking)
		})
	}

	if cfg.DirectoryHandler != nil {
		r.Route("/patients", func(r chi.Router) {
			r.Post("/", cfg.DirectoryHandler.CreatePatient)
			r.Get("/", cfg.DirectoryHandler.ListPatients)
			r.Get("/{patientID}", cfg.DirectoryHandler.GetPatient)
			r.Put("/{patientID}", cfg.DirectoryHandler.UpdatePatient)
			r.Delete("/{patientID}", cfg.DirectoryHandler.DeletePatient)
		})
		r.Route("/professionals", func(r chi.Router) {
			r.Post("/", cfg.DirectoryHandler.CreateProfessional)
			r.Get("/", cfg.DirectoryHandler.ListProfessionals)
			r.Get("/{professionalID}", cfg.DirectoryHandler.GetProfessional)
			r.Put("/{professionalID}", cfg.DirectoryHandler.UpdateProfessional)
			r.Delete("/{professionalID}", cfg.DirectoryHandler.DeleteProfessional)
			r.Put("/{professionalID}/locations/{locationID}", cfg.DirectoryHandler.LinkProfessional)
			if cfg.BookingHandler != nil {
				r.Get("/{professionalID}/slots", cfg.BookingHandler.AvailableSlots)
			}
		})
		r.Route("/locations", func(r chi.Router) {
			r.Post("/", cfg.DirectoryHandler.CreateLocation)
			r.Get("/", cfg.DirectoryHandler.ListLocations)
			r.Get("/{locationID}", cfg.DirectoryHandler.GetLocation)
			r.Put("/{locationID}", cfg.DirectoryHandler.UpdateLocation)
			r.Delete("/{locationID}", cfg.DirectoryHandler.DeleteLocation)
			r.Get("/{locationID}/professionals", cfg.DirectoryHandler.ProfessionalsAtLocation)
		})
	}

	return r
}
