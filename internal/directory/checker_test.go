package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/medconsulta/agenda/internal/schedule"
)

func TestCheckerEntityExists(t *testing.T) {
	repo := NewInMemoryRepository()
	checker := NewChecker(repo)

	patient, err := repo.CreatePatient(context.Background(), &CreatePatientRequest{Name: "Ana", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	professional := seedProfessional(t, repo, "Dr. Lima", "cardiology")
	location := seedLocation(t, repo, "Unidade Centro", "Rua A, 100")

	tests := []struct {
		name string
		kind schedule.EntityKind
		id   uuid.UUID
		want bool
	}{
		{"patient exists", schedule.EntityPatient, patient.ID, true},
		{"patient missing", schedule.EntityPatient, uuid.New(), false},
		{"professional exists", schedule.EntityProfessional, professional.ID, true},
		{"professional missing", schedule.EntityProfessional, uuid.New(), false},
		{"location exists", schedule.EntityLocation, location.ID, true},
		{"location missing", schedule.EntityLocation, uuid.New(), false},
		{"unknown kind", schedule.EntityKind("room"), location.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.EntityExists(context.Background(), tt.kind, tt.id)
			if err != nil {
				t.Fatalf("EntityExists: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
