package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newPgMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepositoryWithQuerier(mock)
}

func testBooking() *Booking {
	now := at(8, 0)
	return &Booking{
		ID:             uuid.New(),
		PatientID:      uuid.New(),
		ProfessionalID: uuid.New(),
		LocationID:     uuid.New(),
		StartsAt:       at(9, 0),
		EndsAt:         at(9, 30),
		Status:         StatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func bookingRows(bookings ...*Booking) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "patient_id", "professional_id", "location_id",
		"starts_at", "ends_at", "status", "notes",
		"cancelled_at", "completed_at", "created_at", "updated_at",
	})
	for _, b := range bookings {
		rows.AddRow(b.ID, b.PatientID, b.ProfessionalID, b.LocationID,
			b.StartsAt, b.EndsAt, b.Status, b.Notes,
			b.CancelledAt, b.CompletedAt, b.CreatedAt, b.UpdatedAt)
	}
	return rows
}

func TestPostgresCreate(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(b.ID, b.PatientID, b.ProfessionalID, b.LocationID, b.StartsAt, b.EndsAt, b.Status, b.Notes, b.CreatedAt, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCreateExclusionViolation(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(b.ID, b.PatientID, b.ProfessionalID, b.LocationID, b.StartsAt, b.EndsAt, b.Status, b.Notes, b.CreatedAt, b.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: pgExclusionViolation})

	if err := repo.Create(context.Background(), b); !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("expected ErrSchedulingConflict, got %v", err)
	}
}

func TestPostgresCreateStorageUnavailable(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(b.ID, b.PatientID, b.ProfessionalID, b.LocationID, b.StartsAt, b.EndsAt, b.Status, b.Notes, b.CreatedAt, b.UpdatedAt).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), b)
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(b.ID).
		WillReturnRows(bookingRows(b))

	got, err := repo.GetByID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != b.ID || got.ProfessionalID != b.ProfessionalID {
		t.Fatalf("unexpected booking: %+v", got)
	}
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	mock, repo := newPgMock(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestPostgresListByProfessionalWithDay(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()
	d := day()
	dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(b.ProfessionalID, StatusCancelled, dayStart, dayStart.AddDate(0, 0, 1)).
		WillReturnRows(bookingRows(b))

	got, err := repo.ListByProfessional(context.Background(), b.ProfessionalID, &d, StatusCancelled)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("unexpected bookings: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresListWithDay(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()
	d := day()
	dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE starts_at").
		WithArgs(dayStart, dayStart.AddDate(0, 0, 1)).
		WillReturnRows(bookingRows(b))

	got, err := repo.List(context.Background(), &d)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("unexpected bookings: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresListByProfessionalStorageError(t *testing.T) {
	mock, repo := newPgMock(t)
	professional := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(professional, StatusCancelled).
		WillReturnError(errors.New("server closed the connection"))

	if _, err := repo.ListByProfessional(context.Background(), professional, nil, StatusCancelled); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestPostgresUpdateStatus(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()
	if err := b.Cancel(at(8, 30)); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	mock.ExpectExec("UPDATE bookings").
		WithArgs(b.ID, b.Status, b.CancelledAt, b.CompletedAt, b.UpdatedAt, StatusScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateStatus(context.Background(), b, StatusScheduled); err != nil {
		t.Fatalf("update failed: %v", err)
	}
}

func TestPostgresUpdateStatusStaleRow(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()
	if err := b.Cancel(at(8, 30)); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// Zero rows touched but the booking exists: the row already left
	// SCHEDULED.
	mock.ExpectExec("UPDATE bookings").
		WithArgs(b.ID, b.Status, b.CancelledAt, b.CompletedAt, b.UpdatedAt, StatusScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(b.ID).
		WillReturnRows(bookingRows(b))

	if err := repo.UpdateStatus(context.Background(), b, StatusScheduled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPostgresUpdateStatusUnknownBooking(t *testing.T) {
	mock, repo := newPgMock(t)
	b := testBooking()
	if err := b.Cancel(at(8, 30)); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	mock.ExpectExec("UPDATE bookings").
		WithArgs(b.ID, b.Status, b.CancelledAt, b.CompletedAt, b.UpdatedAt, StatusScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(b.ID).
		WillReturnError(pgx.ErrNoRows)

	if err := repo.UpdateStatus(context.Background(), b, StatusScheduled); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}
