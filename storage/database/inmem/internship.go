package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/internship"
)

type internshipRepository struct {
	db *DB
}

var _ internship.Repository = (*internshipRepository)(nil) // interface compliance check

func NewInternshipRepository(db *DB) *internshipRepository {
	return &internshipRepository{db: db}
}

func (repo internshipRepository) CreateInternship(ctx context.Context, i internship.Internship) (internship.Internship, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	i.ID = uuid.New().String()
	repo.db.internships[i.ID] = &i
	return i, nil
}

func (repo internshipRepository) GetInternshipByID(ctx context.Context, id string) (internship.Internship, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if i, ok := repo.db.internships[id]; ok {
		return *i, nil
	}
	return internship.Internship{}, internship.ErrNotFound
}

func (repo internshipRepository) QueryInternships(ctx context.Context, filter *internship.QueryFilter, ordering []core.DBOrdering) ([]internship.Internship, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	internships := make([]internship.Internship, 0, len(repo.db.internships))
	for _, i := range repo.db.internships {
		if filter != nil {
			if filter.StudentID != "" && i.StudentID != filter.StudentID {
				continue
			}
			if filter.PreceptorID != "" && i.PreceptorID != filter.PreceptorID {
				continue
			}
			if filter.Status != "" && i.Status != filter.Status {
				continue
			}
		}
		internships = append(internships, *i)
	}
	sortInternships(internships)
	return internships, nil
}

func sortInternships(internships []internship.Internship) {
	sort.Slice(internships, func(i, j int) bool {
		if !internships[i].StartsOn.Equal(internships[j].StartsOn) {
			return internships[i].StartsOn.Before(internships[j].StartsOn)
		}
		return internships[i].ID < internships[j].ID
	})
}

func (repo internshipRepository) UpdateInternship(ctx context.Context, i internship.Internship) (internship.Internship, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.internships[i.ID]
	if !ok {
		return internship.Internship{}, internship.ErrNotFound
	}
	// student_id is fixed at creation; preceptor_id only changes
	// through SetInternshipPreceptor.
	i.StudentID = orig.StudentID
	i.PreceptorID = orig.PreceptorID
	i.CreatedAt = orig.CreatedAt
	repo.db.internships[i.ID] = &i
	return i, nil
}

func (repo internshipRepository) SetInternshipPreceptor(ctx context.Context, id string, preceptorID *string) (internship.Internship, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	i, ok := repo.db.internships[id]
	if !ok {
		return internship.Internship{}, internship.ErrNotFound
	}
	if preceptorID == nil {
		i.PreceptorID = ""
	} else {
		i.PreceptorID = *preceptorID
	}
	i.UpdatedAt = time.Now().UTC()
	return *i, nil
}

func (repo internshipRepository) DeleteInternshipsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.internships, id)
		for itemID, item := range repo.db.checklistItems {
			if item.InternshipID == id {
				delete(repo.db.checklistItems, itemID)
			}
		}
	}
	return nil
}

func (repo internshipRepository) QueryOverdueInternships(ctx context.Context, asOf time.Time) ([]internship.Internship, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var overdue []internship.Internship
	for _, i := range repo.db.internships {
		if i.Overdue(asOf) {
			overdue = append(overdue, *i)
		}
	}
	sortInternships(overdue)
	return overdue, nil
}

func (repo internshipRepository) CreateChecklistItems(ctx context.Context, items []internship.ChecklistItem) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, item := range items {
		item.ID = uuid.New().String()
		itemCopy := item
		repo.db.checklistItems[item.ID] = &itemCopy
	}
	return nil
}

func (repo internshipRepository) GetChecklistItems(ctx context.Context, internshipID string) ([]internship.ChecklistItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var items []internship.ChecklistItem
	for _, item := range repo.db.checklistItems {
		if item.InternshipID == internshipID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return items, nil
}

func (repo internshipRepository) GetChecklistItem(ctx context.Context, internshipID, itemID string) (internship.ChecklistItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if item, ok := repo.db.checklistItems[itemID]; ok && item.InternshipID == internshipID {
		return *item, nil
	}
	return internship.ChecklistItem{}, internship.ErrItemNotFound
}

func (repo internshipRepository) UpdateChecklistItem(ctx context.Context, item internship.ChecklistItem) (internship.ChecklistItem, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.checklistItems[item.ID]; !ok {
		return internship.ChecklistItem{}, internship.ErrItemNotFound
	}
	repo.db.checklistItems[item.ID] = &item
	return item, nil
}
