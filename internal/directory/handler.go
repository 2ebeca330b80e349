package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconsulta/agenda/pkg/logging"
)

// Handler handles HTTP requests for the patient, professional, and location
// registries.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a directory handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreatePatient handles POST /patients.
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patient, err := h.repo.CreatePatient(r.Context(), &req)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	h.logger.Info("patient registered", "id", patient.ID, "name", patient.Name)
	writeJSON(w, http.StatusCreated, patient)
}

// GetPatient handles GET /patients/{patientID}.
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "patientID")
	if !ok {
		return
	}
	patient, err := h.repo.GetPatient(r.Context(), id)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// ListPatients handles GET /patients.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.repo.ListPatients(r.Context())
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// UpdatePatient handles PUT /patients/{patientID}.
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "patientID")
	if !ok {
		return
	}
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patient, err := h.repo.UpdatePatient(r.Context(), id, &req)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// DeletePatient handles DELETE /patients/{patientID}.
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "patientID")
	if !ok {
		return
	}
	if err := h.repo.DeletePatient(r.Context(), id); err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateProfessional handles POST /professionals.
func (h *Handler) CreateProfessional(w http.ResponseWriter, r *http.Request) {
	var req CreateProfessionalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	professional, err := h.repo.CreateProfessional(r.Context(), &req)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	h.logger.Info("professional registered", "id", professional.ID, "name", professional.Name)
	writeJSON(w, http.StatusCreated, professional)
}

// GetProfessional handles GET /professionals/{professionalID}.
func (h *Handler) GetProfessional(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "professionalID")
	if !ok {
		return
	}
	professional, err := h.repo.GetProfessional(r.Context(), id)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, professional)
}

// ListProfessionals handles GET /professionals.
func (h *Handler) ListProfessionals(w http.ResponseWriter, r *http.Request) {
	professionals, err := h.repo.ListProfessionals(r.Context())
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, professionals)
}

// UpdateProfessional handles PUT /professionals/{professionalID}.
func (h *Handler) UpdateProfessional(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "professionalID")
	if !ok {
		return
	}
	var req CreateProfessionalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	professional, err := h.repo.UpdateProfessional(r.Context(), id, &req)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, professional)
}

// DeleteProfessional handles DELETE /professionals/{professionalID}.
func (h *Handler) DeleteProfessional(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "professionalID")
	if !ok {
		return
	}
	if err := h.repo.DeleteProfessional(r.Context(), id); err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateLocation handles POST /locations.
func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	location, err := h.repo.CreateLocation(r.Context(), &req)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	h.logger.Info("location registered", "id", location.ID, "name", location.Name)
	writeJSON(w, http.StatusCreated, location)
}

// GetLocation handles GET /locations/{locationID}.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "locationID")
	if !ok {
		return
	}
	location, err := h.repo.GetLocation(r.Context(), id)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// ListLocations handles GET /locations.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.repo.ListLocations(r.Context())
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

// UpdateLocation handles PUT /locations/{locationID}.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "locationID")
	if !ok {
		return
	}
	var req CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	location, err := h.repo.UpdateLocation(r.Context(), id, &req)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// DeleteLocation handles DELETE /locations/{locationID}.
func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseParam(w, r, "locationID")
	if !ok {
		return
	}
	if err := h.repo.DeleteLocation(r.Context(), id); err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkProfessional handles PUT /professionals/{professionalID}/locations/{locationID}.
func (h *Handler) LinkProfessional(w http.ResponseWriter, r *http.Request) {
	professionalID, ok := parseParam(w, r, "professionalID")
	if !ok {
		return
	}
	locationID, ok := parseParam(w, r, "locationID")
	if !ok {
		return
	}
	if err := h.repo.LinkProfessional(r.Context(), professionalID, locationID); err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProfessionalsAtLocation handles GET /locations/{locationID}/professionals.
func (h *Handler) ProfessionalsAtLocation(w http.ResponseWriter, r *http.Request) {
	locationID, ok := parseParam(w, r, "locationID")
	if !ok {
		return
	}
	professionals, err := h.repo.ProfessionalsAtLocation(r.Context(), locationID)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, professionals)
}

func parseParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeDirectoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrProfessionalNotFound),
		errors.Is(err, ErrLocationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidSpecialty),
		errors.Is(err, ErrInvalidAddress),
		errors.Is(err, ErrMissingContact):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrEntityInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("directory storage error", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, retry later")
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
