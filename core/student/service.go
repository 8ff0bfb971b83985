package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
)

var (
	// errors
	ErrNotFound    = errors.New("student not found")
	ErrEmailExists = errors.New("a student with this email already exists")
)

type (
	Repository interface {
		CheckStudentUniqueness(ctx context.Context, email string, excluded ...Student) error
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Student.Name or Student.Email.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(email string, excluded ...Student) error {
	if err := svc.repo.CheckStudentUniqueness(context.Background(), email, excluded...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	s := Student{
		UserID:    ns.UserID,
		CohortID:  ns.CohortID,
		Name:      ns.Name,
		Email:     ns.Email,
		Phone:     ns.Phone,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

// GetByUserID returns the student record linked to an auth user, if any.
func (svc *Service) GetByUserID(ctx context.Context, userID string) (Student, error) {
	students, err := svc.repo.QueryStudents(ctx, &QueryFilter{UserID: userID}, nil)
	if err != nil {
		return Student{}, err
	}
	if len(students) == 0 {
		return Student{}, ErrNotFound
	}
	return students[0], nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s := Student{
		ID:        id,
		UserID:    us.UserID,
		CohortID:  us.CohortID,
		Name:      us.Name,
		Email:     us.Email,
		Phone:     us.Phone,
		Status:    us.Status,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}
