package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/preceptor"
)

type preceptorRepository struct {
	db *DB
}

var _ preceptor.Repository = (*preceptorRepository)(nil) // interface compliance check

func NewPreceptorRepository(db *DB) *preceptorRepository {
	return &preceptorRepository{db: db}
}

func (repo preceptorRepository) CreatePreceptor(ctx context.Context, p preceptor.Preceptor) (preceptor.Preceptor, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.New().String()
	repo.db.preceptors[p.ID] = &p
	return p, nil
}

func (repo preceptorRepository) GetPreceptorByID(ctx context.Context, id string) (preceptor.Preceptor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.preceptors[id]; ok {
		return *p, nil
	}
	return preceptor.Preceptor{}, preceptor.ErrNotFound
}

func (repo preceptorRepository) QueryPreceptors(ctx context.Context, filter *preceptor.QueryFilter, ordering []core.DBOrdering) ([]preceptor.Preceptor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	preceptors := make([]preceptor.Preceptor, 0, len(repo.db.preceptors))
	for _, p := range repo.db.preceptors {
		if filter != nil {
			if filter.Search != "" && !containsFold(p.Name, filter.Search) && !containsFold(p.Email, filter.Search) {
				continue
			}
			if filter.Agency != "" && !containsFold(p.Agency, filter.Agency) {
				continue
			}
			if filter.IsActive != nil && (p.IsActive == nil || *p.IsActive != *filter.IsActive) {
				continue
			}
		}
		preceptors = append(preceptors, *p)
	}
	sort.Slice(preceptors, func(i, j int) bool {
		if preceptors[i].Name != preceptors[j].Name {
			return preceptors[i].Name < preceptors[j].Name
		}
		return preceptors[i].ID < preceptors[j].ID
	})
	return preceptors, nil
}

func (repo preceptorRepository) UpdatePreceptor(ctx context.Context, p preceptor.Preceptor) (preceptor.Preceptor, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.preceptors[p.ID]
	if !ok {
		return preceptor.Preceptor{}, preceptor.ErrNotFound
	}
	p.CreatedAt = orig.CreatedAt
	repo.db.preceptors[p.ID] = &p
	return p, nil
}

func (repo preceptorRepository) DeletePreceptorsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.preceptors, id)
	}
	return nil
}
