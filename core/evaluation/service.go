package evaluation

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/student"
)

var ErrNotFound = errors.New("evaluation not found")

type (
	Repository interface {
		CreateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error)
		GetEvaluationByID(ctx context.Context, id string) (Evaluation, error)
		QueryEvaluations(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Evaluation, error)
		UpdateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error)
		DeleteEvaluationsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo   Repository
		stuSvc *student.Service
	}
)

func NewService(repo Repository, stuSvc *student.Service) *Service {
	return &Service{repo: repo, stuSvc: stuSvc}
}

// Create records a summative evaluation; the evaluator is the acting user.
func (svc *Service) Create(ctx context.Context, evaluatorID string, ne NewEvaluation) (Evaluation, error) {
	if _, err := svc.stuSvc.GetByID(ctx, ne.StudentID); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Evaluation{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Evaluation{}, err
	}

	now := time.Now().UTC()
	takenAt := ne.TakenAt
	if takenAt.IsZero() {
		takenAt = now
	}
	e := Evaluation{
		StudentID:       ne.StudentID,
		EvaluatorID:     evaluatorID,
		Scenario:        ne.Scenario,
		TakenAt:         takenAt.UTC(),
		Scores:          ne.Scores,
		CriticalFailure: ne.CriticalFailure,
		Notes:           ne.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e, err := svc.repo.CreateEvaluation(ctx, e)
	if err != nil {
		return Evaluation{}, err
	}
	e.Grade()
	return e, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Evaluation, error) {
	e, err := svc.repo.GetEvaluationByID(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	e.Grade()
	return e, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Evaluation, error) {
	evals, err := svc.repo.QueryEvaluations(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	for idx := range evals {
		evals[idx].Grade()
	}
	return evals, nil
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateEvaluation) (Evaluation, error) {
	e := Evaluation{
		ID:              id,
		Scenario:        ue.Scenario,
		TakenAt:         ue.TakenAt.UTC(),
		Scores:          ue.Scores,
		CriticalFailure: *ue.CriticalFailure,
		Notes:           ue.Notes,
		UpdatedAt:       time.Now().UTC(),
	}
	e, err := svc.repo.UpdateEvaluation(ctx, e)
	if err != nil {
		return Evaluation{}, err
	}
	e.Grade()
	return e, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteEvaluationsByID(ctx, ids...)
}
