package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medconsulta/agenda/internal/schedule"
)

// Checker adapts the directory repository to the scheduling engine's
// reference checks.
type Checker struct {
	repo Repository
}

// NewChecker creates a checker over the registry.
func NewChecker(repo Repository) *Checker {
	if repo == nil {
		panic("directory: repository required")
	}
	return &Checker{repo: repo}
}

// EntityExists reports whether the referenced directory record exists.
func (c *Checker) EntityExists(ctx context.Context, kind schedule.EntityKind, id uuid.UUID) (bool, error) {
	var err error
	switch kind {
	case schedule.EntityPatient:
		_, err = c.repo.GetPatient(ctx, id)
	case schedule.EntityProfessional:
		_, err = c.repo.GetProfessional(ctx, id)
	case schedule.EntityLocation:
		_, err = c.repo.GetLocation(ctx, id)
	default:
		return false, nil
	}
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrProfessionalNotFound),
		errors.Is(err, ErrLocationNotFound):
		return false, nil
	default:
		return false, err
	}
}
