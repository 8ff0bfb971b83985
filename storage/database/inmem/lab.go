package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/lab"
)

var errRegistrationNotFound = errors.New("registration not found")

type labRepository struct {
	db *DB
}

var _ lab.Repository = (*labRepository)(nil) // interface compliance check

func NewLabRepository(db *DB) *labRepository {
	return &labRepository{db: db}
}

func (repo labRepository) CreateSession(ctx context.Context, s lab.Session) (lab.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.New().String()
	repo.db.labSessions[s.ID] = &s
	return s, nil
}

func (repo labRepository) GetSessionByID(ctx context.Context, id string) (lab.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.labSessions[id]; ok {
		return *s, nil
	}
	return lab.Session{}, lab.ErrNotFound
}

func (repo labRepository) QuerySessions(ctx context.Context, filter *lab.QueryFilter, ordering []core.DBOrdering) ([]lab.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sessions := make([]lab.Session, 0, len(repo.db.labSessions))
	for _, s := range repo.db.labSessions {
		if filter != nil {
			if filter.Search != "" && !containsFold(s.Title, filter.Search) && !containsFold(s.Topic, filter.Search) {
				continue
			}
			if !filter.From.IsZero() && s.StartsAt.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && s.StartsAt.After(filter.To) {
				continue
			}
			if filter.Upcoming && s.StartsAt.Before(time.Now().UTC()) {
				continue
			}
		}
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartsAt.Equal(sessions[j].StartsAt) {
			return sessions[i].StartsAt.Before(sessions[j].StartsAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

func (repo labRepository) UpdateSession(ctx context.Context, s lab.Session) (lab.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.labSessions[s.ID]
	if !ok {
		return lab.Session{}, lab.ErrNotFound
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.labSessions[s.ID] = &s
	return s, nil
}

func (repo labRepository) DeleteSessionsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.labSessions, id)
		for regID, reg := range repo.db.labRegs {
			if reg.SessionID == id {
				delete(repo.db.labRegs, regID)
			}
		}
	}
	return nil
}

func (repo labRepository) CreateRegistration(ctx context.Context, r lab.Registration) (lab.Registration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.ID = uuid.New().String()
	repo.db.labRegs[r.ID] = &r
	return r, nil
}

func (repo labRepository) GetRegistration(ctx context.Context, sessionID, studentID string) (lab.Registration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, reg := range repo.db.labRegs {
		if reg.SessionID == sessionID && reg.StudentID == studentID {
			return *reg, nil
		}
	}
	return lab.Registration{}, errRegistrationNotFound
}

func (repo labRepository) CountRegistrations(ctx context.Context, sessionID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, reg := range repo.db.labRegs {
		if reg.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

func (repo labRepository) QueryRegistrations(ctx context.Context, sessionID string) ([]lab.Registration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var regs []lab.Registration
	for _, reg := range repo.db.labRegs {
		if reg.SessionID == sessionID {
			regs = append(regs, *reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].CreatedAt.Before(regs[j].CreatedAt)
		}
		return regs[i].ID < regs[j].ID
	})
	return regs, nil
}

func (repo labRepository) DeleteRegistration(ctx context.Context, sessionID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for regID, reg := range repo.db.labRegs {
		if reg.SessionID == sessionID && reg.StudentID == studentID {
			delete(repo.db.labRegs, regID)
			return nil
		}
	}
	return nil
}
