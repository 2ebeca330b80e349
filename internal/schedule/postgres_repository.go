package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres raises exclusion_violation when the bookings overlap constraint
// rejects an insert.
const pgExclusionViolation = "23P01"

// Querier is the subset of pgxpool.Pool the repository uses. It allows
// injecting pgxmock in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in the relational database. The bookings
// table carries a btree_gist exclusion constraint over
// (professional_id, tstzrange(starts_at, ends_at)) filtered on
// status <> 'CANCELLED', so overlap rejection also holds across processes.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithQuerier allows injecting mocks for tests.
func NewPostgresRepositoryWithQuerier(q Querier) *PostgresRepository {
	return &PostgresRepository{db: q}
}

const bookingColumns = `id, patient_id, professional_id, location_id, starts_at, ends_at, status, notes, cancelled_at, completed_at, created_at, updated_at`

// Create inserts a new booking row.
func (r *PostgresRepository) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (id, patient_id, professional_id, location_id, starts_at, ends_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.PatientID,
		b.ProfessionalID,
		b.LocationID,
		b.StartsAt,
		b.EndsAt,
		b.Status,
		b.Notes,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
			return ErrSchedulingConflict
		}
		return storageErr("insert booking", err)
	}
	return nil
}

// GetByID fetches a booking by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, storageErr("load booking", err)
	}
	return b, nil
}

// ListByProfessional returns a professional's bookings ordered by start time.
func (r *PostgresRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, day *time.Time, excludeStatus Status) ([]*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE professional_id = $1 AND status <> $2
	`
	args := []any{professionalID, excludeStatus}
	if day != nil {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		query += ` AND starts_at >= $3 AND starts_at < $4`
		args = append(args, dayStart, dayStart.AddDate(0, 0, 1))
	}
	query += ` ORDER BY starts_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// List returns all bookings ordered by start time, optionally restricted to
// one day.
func (r *PostgresRepository) List(ctx context.Context, day *time.Time) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	args := []any{}
	if day != nil {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		query += ` WHERE starts_at >= $1 AND starts_at < $2`
		args = append(args, dayStart, dayStart.AddDate(0, 0, 1))
	}
	query += ` ORDER BY starts_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// UpdateStatus persists a lifecycle transition guarded on the previous status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, b *Booking, from Status) error {
	query := `
		UPDATE bookings
		SET status = $2, cancelled_at = $3, completed_at = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`
	tag, err := r.db.Exec(ctx, query, b.ID, b.Status, b.CancelledAt, b.CompletedAt, b.UpdatedAt, from)
	if err != nil {
		return storageErr("update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the id is unknown or the row moved past the expected status.
		if _, err := r.GetByID(ctx, b.ID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.PatientID,
		&b.ProfessionalID,
		&b.LocationID,
		&b.StartsAt,
		&b.EndsAt,
		&b.Status,
		&b.Notes,
		&b.CancelledAt,
		&b.CompletedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*Booking, error) {
	out := make([]*Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storageErr("scan booking", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate bookings", err)
	}
	return out, nil
}
