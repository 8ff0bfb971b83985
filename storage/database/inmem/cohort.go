package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/cohort"
)

type cohortRepository struct {
	db *DB
}

var _ cohort.Repository = (*cohortRepository)(nil) // interface compliance check

func NewCohortRepository(db *DB) *cohortRepository {
	return &cohortRepository{db: db}
}

func (repo cohortRepository) CheckCohortUniqueness(ctx context.Context, name, program string, excluded ...cohort.Cohort) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excludedIDs := make(map[string]bool, len(excluded))
	for _, c := range excluded {
		excludedIDs[c.ID] = true
	}
	for _, c := range repo.db.cohorts {
		if excludedIDs[c.ID] {
			continue
		}
		if strings.EqualFold(c.Name, name) && c.Program == program {
			return cohort.ErrCohortExists
		}
	}
	return nil
}

func (repo cohortRepository) CreateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = uuid.New().String()
	repo.db.cohorts[c.ID] = &c
	return c, nil
}

func (repo cohortRepository) GetCohortByID(ctx context.Context, id string) (cohort.Cohort, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.cohorts[id]; ok {
		return *c, nil
	}
	return cohort.Cohort{}, cohort.ErrNotFound
}

func (repo cohortRepository) QueryCohorts(ctx context.Context, filter *cohort.QueryFilter, ordering []core.DBOrdering) ([]cohort.Cohort, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cohorts := make([]cohort.Cohort, 0, len(repo.db.cohorts))
	for _, c := range repo.db.cohorts {
		if filter != nil {
			if filter.Search != "" && !containsFold(c.Name, filter.Search) {
				continue
			}
			if filter.Program != "" && c.Program != filter.Program {
				continue
			}
		}
		cohorts = append(cohorts, *c)
	}
	sort.Slice(cohorts, func(i, j int) bool {
		if !cohorts[i].StartsOn.Equal(cohorts[j].StartsOn) {
			return cohorts[i].StartsOn.Before(cohorts[j].StartsOn)
		}
		return cohorts[i].Name < cohorts[j].Name
	})
	return cohorts, nil
}

func (repo cohortRepository) UpdateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.cohorts[c.ID]
	if !ok {
		return cohort.Cohort{}, cohort.ErrNotFound
	}
	c.CreatedAt = orig.CreatedAt
	repo.db.cohorts[c.ID] = &c
	return c, nil
}

func (repo cohortRepository) CountCohortStudents(ctx context.Context, id string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, s := range repo.db.students {
		if s.CohortID == id {
			count++
		}
	}
	return count, nil
}

func (repo cohortRepository) DeleteCohortsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.cohorts, id)
	}
	return nil
}
