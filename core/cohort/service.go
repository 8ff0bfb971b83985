package cohort

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
)

var (
	// errors
	ErrNotFound     = errors.New("cohort not found")
	ErrCohortExists = errors.New("a cohort with this name already exists for this program")
	ErrHasStudents  = errors.New("cohort still has enrolled students")
)

type (
	Repository interface {
		CheckCohortUniqueness(ctx context.Context, name, program string, excluded ...Cohort) error
		CreateCohort(ctx context.Context, c Cohort) (Cohort, error)
		GetCohortByID(ctx context.Context, id string) (Cohort, error)
		QueryCohorts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Cohort, error)
		UpdateCohort(ctx context.Context, c Cohort) (Cohort, error)
		CountCohortStudents(ctx context.Context, id string) (int, error)
		DeleteCohortsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(name, program string, excluded ...Cohort) error {
	if err := svc.repo.CheckCohortUniqueness(context.Background(), name, program, excluded...); err != nil {
		if errors.Cause(err) == ErrCohortExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCohort) (Cohort, error) {
	now := time.Now().UTC()
	c := Cohort{
		Name:      nc.Name,
		Program:   nc.Program,
		StartsOn:  nc.StartsOn,
		EndsOn:    nc.EndsOn,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateCohort(ctx, c)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Cohort, error) {
	return svc.repo.GetCohortByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Cohort, error) {
	return svc.repo.QueryCohorts(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCohort) (Cohort, error) {
	c := Cohort{
		ID:        id,
		Name:      uc.Name,
		Program:   uc.Program,
		StartsOn:  uc.StartsOn,
		EndsOn:    uc.EndsOn,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateCohort(ctx, c)
}

// Delete removes cohorts; a cohort with enrolled students is rejected.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		count, err := svc.repo.CountCohortStudents(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return core.NewValidationError(ErrHasStudents)
		}
	}
	return svc.repo.DeleteCohortsByID(ctx, ids...)
}
