package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/audit"
)

type auditRepository struct {
	db *DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo auditRepository) CreateEntry(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e.ID = uuid.New().String()
	repo.db.auditEntries = append(repo.db.auditEntries, e)
	return e, nil
}

func (repo auditRepository) QueryEntries(ctx context.Context, filter *audit.QueryFilter, ordering []core.DBOrdering) ([]audit.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]audit.Entry, 0, len(repo.db.auditEntries))
	for _, e := range repo.db.auditEntries {
		if filter != nil {
			if filter.ActorID != "" && e.ActorID != filter.ActorID {
				continue
			}
			if filter.ObjectType != "" && e.ObjectType != filter.ObjectType {
				continue
			}
			if !filter.CreatedFrom.IsZero() && e.CreatedAt.Before(filter.CreatedFrom) {
				continue
			}
			if !filter.CreatedTo.IsZero() && e.CreatedAt.After(filter.CreatedTo) {
				continue
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
