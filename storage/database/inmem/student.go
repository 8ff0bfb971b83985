package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) CheckStudentUniqueness(ctx context.Context, email string, excluded ...student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excludedIDs := make(map[string]bool, len(excluded))
	for _, s := range excluded {
		excludedIDs[s.ID] = true
	}
	for _, s := range repo.db.students {
		if excludedIDs[s.ID] {
			continue
		}
		if strings.EqualFold(s.Email, email) {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.New().String()
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		if filter != nil {
			if filter.Search != "" && !containsFold(s.Name, filter.Search) && !containsFold(s.Email, filter.Search) {
				continue
			}
			if filter.CohortID != "" && s.CohortID != filter.CohortID {
				continue
			}
			if filter.Status != "" && s.Status != filter.Status {
				continue
			}
			if filter.UserID != "" && s.UserID != filter.UserID {
				continue
			}
		}
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.students, id)
	}
	return nil
}
