package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// foreign_key_violation, raised when a delete is still referenced by bookings.
const pgForeignKeyViolation = "23503"

// Querier is the subset of pgxpool.Pool the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores the registries in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithQuerier allows injecting mocks for tests.
func NewPostgresRepositoryWithQuerier(q Querier) *PostgresRepository {
	return &PostgresRepository{db: q}
}

// CreatePatient inserts a patient row.
func (r *PostgresRepository) CreatePatient(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	query := `
		INSERT INTO patients (id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Email, req.Phone).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("directory: insert patient: %w", err)
	}
	return &Patient{ID: id, Name: req.Name, Email: req.Email, Phone: req.Phone, CreatedAt: createdAt}, nil
}

// GetPatient fetches a patient by id.
func (r *PostgresRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query := `SELECT id, name, email, phone, created_at FROM patients WHERE id = $1`
	var p Patient
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("directory: select patient: %w", err)
	}
	return &p, nil
}

// ListPatients fetches all patients sorted by name.
func (r *PostgresRepository) ListPatients(ctx context.Context) ([]*Patient, error) {
	query := `SELECT id, name, email, phone, created_at FROM patients ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("directory: list patients: %w", err)
	}
	defer rows.Close()

	out := make([]*Patient, 0)
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("directory: scan patient: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: iterate patients: %w", err)
	}
	return out, nil
}

// UpdatePatient replaces a patient row's details.
func (r *PostgresRepository) UpdatePatient(ctx context.Context, id uuid.UUID, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := `
		UPDATE patients SET name = $2, email = $3, phone = $4
		WHERE id = $1
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Email, req.Phone).Scan(&createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("directory: update patient: %w", err)
	}
	return &Patient{ID: id, Name: req.Name, Email: req.Email, Phone: req.Phone, CreatedAt: createdAt}, nil
}

// DeletePatient removes a patient row.
func (r *PostgresRepository) DeletePatient(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return deleteError("patient", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// CreateProfessional inserts a professional row.
func (r *PostgresRepository) CreateProfessional(ctx context.Context, req *CreateProfessionalRequest) (*Professional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	query := `
		INSERT INTO professionals (id, name, specialty)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Specialty).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("directory: insert professional: %w", err)
	}
	return &Professional{ID: id, Name: req.Name, Specialty: req.Specialty, CreatedAt: createdAt}, nil
}

// GetProfessional fetches a professional by id.
func (r *PostgresRepository) GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	query := `SELECT id, name, specialty, created_at FROM professionals WHERE id = $1`
	var p Professional
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Specialty, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, fmt.Errorf("directory: select professional: %w", err)
	}
	return &p, nil
}

// ListProfessionals fetches all professionals sorted by name.
func (r *PostgresRepository) ListProfessionals(ctx context.Context) ([]*Professional, error) {
	query := `SELECT id, name, specialty, created_at FROM professionals ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("directory: list professionals: %w", err)
	}
	defer rows.Close()
	return collectProfessionals(rows)
}

// UpdateProfessional replaces a professional row's details.
func (r *PostgresRepository) UpdateProfessional(ctx context.Context, id uuid.UUID, req *CreateProfessionalRequest) (*Professional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := `
		UPDATE professionals SET name = $2, specialty = $3
		WHERE id = $1
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Specialty).Scan(&createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, fmt.Errorf("directory: update professional: %w", err)
	}
	return &Professional{ID: id, Name: req.Name, Specialty: req.Specialty, CreatedAt: createdAt}, nil
}

// DeleteProfessional removes a professional and its attendance links. The
// delete fails with ErrEntityInUse while bookings still reference the row.
func (r *PostgresRepository) DeleteProfessional(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM professional_locations WHERE professional_id = $1`, id); err != nil {
		return fmt.Errorf("directory: unlink professional: %w", err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM professionals WHERE id = $1`, id)
	if err != nil {
		return deleteError("professional", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfessionalNotFound
	}
	return nil
}

// CreateLocation inserts a location row.
func (r *PostgresRepository) CreateLocation(ctx context.Context, req *CreateLocationRequest) (*Location, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	query := `
		INSERT INTO locations (id, name, address)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Address).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("directory: insert location: %w", err)
	}
	return &Location{ID: id, Name: req.Name, Address: req.Address, CreatedAt: createdAt}, nil
}

// GetLocation fetches a location by id.
func (r *PostgresRepository) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	query := `SELECT id, name, address, created_at FROM locations WHERE id = $1`
	var l Location
	err := r.db.QueryRow(ctx, query, id).Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("directory: select location: %w", err)
	}
	return &l, nil
}

// ListLocations fetches all locations sorted by name.
func (r *PostgresRepository) ListLocations(ctx context.Context) ([]*Location, error) {
	query := `SELECT id, name, address, created_at FROM locations ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("directory: list locations: %w", err)
	}
	defer rows.Close()

	out := make([]*Location, 0)
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("directory: scan location: %w", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: iterate locations: %w", err)
	}
	return out, nil
}

// UpdateLocation replaces a location row's details.
func (r *PostgresRepository) UpdateLocation(ctx context.Context, id uuid.UUID, req *CreateLocationRequest) (*Location, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := `
		UPDATE locations SET name = $2, address = $3
		WHERE id = $1
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Address).Scan(&createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("directory: update location: %w", err)
	}
	return &Location{ID: id, Name: req.Name, Address: req.Address, CreatedAt: createdAt}, nil
}

// DeleteLocation removes a location and its attendance links.
func (r *PostgresRepository) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM professional_locations WHERE location_id = $1`, id); err != nil {
		return fmt.Errorf("directory: unlink location: %w", err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return deleteError("location", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}

func deleteError(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrEntityInUse
	}
	return fmt.Errorf("directory: delete %s: %w", entity, err)
}

// LinkProfessional upserts an attendance row.
func (r *PostgresRepository) LinkProfessional(ctx context.Context, professionalID, locationID uuid.UUID) error {
	if _, err := r.GetProfessional(ctx, professionalID); err != nil {
		return err
	}
	if _, err := r.GetLocation(ctx, locationID); err != nil {
		return err
	}
	query := `
		INSERT INTO professional_locations (professional_id, location_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, professionalID, locationID); err != nil {
		return fmt.Errorf("directory: link professional: %w", err)
	}
	return nil
}

// ProfessionalsAtLocation fetches professionals linked to a location.
func (r *PostgresRepository) ProfessionalsAtLocation(ctx context.Context, locationID uuid.UUID) ([]*Professional, error) {
	if _, err := r.GetLocation(ctx, locationID); err != nil {
		return nil, err
	}
	query := `
		SELECT p.id, p.name, p.specialty, p.created_at
		FROM professionals p
		JOIN professional_locations pl ON pl.professional_id = p.id
		WHERE pl.location_id = $1
		ORDER BY p.name
	`
	rows, err := r.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("directory: list professionals at location: %w", err)
	}
	defer rows.Close()
	return collectProfessionals(rows)
}

func collectProfessionals(rows pgx.Rows) ([]*Professional, error) {
	out := make([]*Professional, 0)
	for rows.Next() {
		var p Professional
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialty, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("directory: scan professional: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: iterate professionals: %w", err)
	}
	return out, nil
}
