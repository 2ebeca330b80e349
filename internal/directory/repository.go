package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines storage for the patient, professional, and location
// registries.
type Repository interface {
	CreatePatient(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context) ([]*Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, req *CreatePatientRequest) (*Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error

	CreateProfessional(ctx context.Context, req *CreateProfessionalRequest) (*Professional, error)
	GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error)
	ListProfessionals(ctx context.Context) ([]*Professional, error)
	UpdateProfessional(ctx context.Context, id uuid.UUID, req *CreateProfessionalRequest) (*Professional, error)
	DeleteProfessional(ctx context.Context, id uuid.UUID) error

	CreateLocation(ctx context.Context, req *CreateLocationRequest) (*Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*Location, error)
	ListLocations(ctx context.Context) ([]*Location, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, req *CreateLocationRequest) (*Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error

	// LinkProfessional records that a professional attends at a location.
	// Linking twice is a no-op.
	LinkProfessional(ctx context.Context, professionalID, locationID uuid.UUID) error

	// ProfessionalsAtLocation lists professionals attending at a location.
	ProfessionalsAtLocation(ctx context.Context, locationID uuid.UUID) ([]*Professional, error)
}

// InMemoryRepository backs tests and the development mode without Postgres.
type InMemoryRepository struct {
	mu            sync.RWMutex
	patients      map[uuid.UUID]*Patient
	professionals map[uuid.UUID]*Professional
	locations     map[uuid.UUID]*Location
	attendances   map[uuid.UUID]map[uuid.UUID]bool // locationID -> professionalID
}

// NewInMemoryRepository creates an empty in-memory registry.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patients:      make(map[uuid.UUID]*Patient),
		professionals: make(map[uuid.UUID]*Professional),
		locations:     make(map[uuid.UUID]*Location),
		attendances:   make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// CreatePatient registers a patient.
func (r *InMemoryRepository) CreatePatient(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &Patient{
		ID:        uuid.New(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.patients[p.ID] = p
	r.mu.Unlock()
	return p, nil
}

// GetPatient retrieves a patient by id.
func (r *InMemoryRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

// ListPatients lists patients sorted by name.
func (r *InMemoryRepository) ListPatients(ctx context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdatePatient replaces a patient's details, keeping id and created_at.
func (r *InMemoryRepository) UpdatePatient(ctx context.Context, id uuid.UUID, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	p := &Patient{
		ID:        id,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: existing.CreatedAt,
	}
	r.patients[id] = p
	return p, nil
}

// DeletePatient removes a patient from the registry.
func (r *InMemoryRepository) DeletePatient(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return ErrPatientNotFound
	}
	delete(r.patients, id)
	return nil
}

// CreateProfessional registers a professional.
func (r *InMemoryRepository) CreateProfessional(ctx context.Context, req *CreateProfessionalRequest) (*Professional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &Professional{
		ID:        uuid.New(),
		Name:      req.Name,
		Specialty: req.Specialty,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.professionals[p.ID] = p
	r.mu.Unlock()
	return p, nil
}

// GetProfessional retrieves a professional by id.
func (r *InMemoryRepository) GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.professionals[id]
	if !ok {
		return nil, ErrProfessionalNotFound
	}
	return p, nil
}

// ListProfessionals lists professionals sorted by name.
func (r *InMemoryRepository) ListProfessionals(ctx context.Context) ([]*Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Professional, 0, len(r.professionals))
	for _, p := range r.professionals {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateProfessional replaces a professional's details.
func (r *InMemoryRepository) UpdateProfessional(ctx context.Context, id uuid.UUID, req *CreateProfessionalRequest) (*Professional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.professionals[id]
	if !ok {
		return nil, ErrProfessionalNotFound
	}
	p := &Professional{
		ID:        id,
		Name:      req.Name,
		Specialty: req.Specialty,
		CreatedAt: existing.CreatedAt,
	}
	r.professionals[id] = p
	return p, nil
}

// DeleteProfessional removes a professional and its attendance links.
func (r *InMemoryRepository) DeleteProfessional(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.professionals[id]; !ok {
		return ErrProfessionalNotFound
	}
	delete(r.professionals, id)
	for _, atLocation := range r.attendances {
		delete(atLocation, id)
	}
	return nil
}

// CreateLocation registers a location.
func (r *InMemoryRepository) CreateLocation(ctx context.Context, req *CreateLocationRequest) (*Location, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	l := &Location{
		ID:        uuid.New(),
		Name:      req.Name,
		Address:   req.Address,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.locations[l.ID] = l
	r.mu.Unlock()
	return l, nil
}

// GetLocation retrieves a location by id.
func (r *InMemoryRepository) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[id]
	if !ok {
		return nil, ErrLocationNotFound
	}
	return l, nil
}

// ListLocations lists locations sorted by name.
func (r *InMemoryRepository) ListLocations(ctx context.Context) ([]*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Location, 0, len(r.locations))
	for _, l := range r.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateLocation replaces a location's details.
func (r *InMemoryRepository) UpdateLocation(ctx context.Context, id uuid.UUID, req *CreateLocationRequest) (*Location, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.locations[id]
	if !ok {
		return nil, ErrLocationNotFound
	}
	l := &Location{
		ID:        id,
		Name:      req.Name,
		Address:   req.Address,
		CreatedAt: existing.CreatedAt,
	}
	r.locations[id] = l
	return l, nil
}

// DeleteLocation removes a location and its attendance links.
func (r *InMemoryRepository) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[id]; !ok {
		return ErrLocationNotFound
	}
	delete(r.locations, id)
	delete(r.attendances, id)
	return nil
}

// LinkProfessional records attendance of a professional at a location.
func (r *InMemoryRepository) LinkProfessional(ctx context.Context, professionalID, locationID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.professionals[professionalID]; !ok {
		return ErrProfessionalNotFound
	}
	if _, ok := r.locations[locationID]; !ok {
		return ErrLocationNotFound
	}
	if r.attendances[locationID] == nil {
		r.attendances[locationID] = make(map[uuid.UUID]bool)
	}
	r.attendances[locationID][professionalID] = true
	return nil
}

// ProfessionalsAtLocation lists linked professionals sorted by name.
func (r *InMemoryRepository) ProfessionalsAtLocation(ctx context.Context, locationID uuid.UUID) ([]*Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.locations[locationID]; !ok {
		return nil, ErrLocationNotFound
	}
	out := make([]*Professional, 0)
	for professionalID := range r.attendances[locationID] {
		if p, ok := r.professionals[professionalID]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
