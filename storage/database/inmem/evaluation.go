package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/evaluation"
)

type evaluationRepository struct {
	db *DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func (repo evaluationRepository) CreateEvaluation(ctx context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e.ID = uuid.New().String()
	repo.db.evaluations[e.ID] = &e
	return e, nil
}

func (repo evaluationRepository) GetEvaluationByID(ctx context.Context, id string) (evaluation.Evaluation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.evaluations[id]; ok {
		return *e, nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo evaluationRepository) QueryEvaluations(ctx context.Context, filter *evaluation.QueryFilter, ordering []core.DBOrdering) ([]evaluation.Evaluation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	evals := make([]evaluation.Evaluation, 0, len(repo.db.evaluations))
	for _, e := range repo.db.evaluations {
		if filter != nil {
			if filter.StudentID != "" && e.StudentID != filter.StudentID {
				continue
			}
			if filter.Passed != nil {
				graded := *e
				graded.Grade()
				if graded.Passed != *filter.Passed {
					continue
				}
			}
		}
		evals = append(evals, *e)
	}
	sort.Slice(evals, func(i, j int) bool {
		if !evals[i].TakenAt.Equal(evals[j].TakenAt) {
			return evals[i].TakenAt.Before(evals[j].TakenAt)
		}
		return evals[i].ID < evals[j].ID
	})
	return evals, nil
}

func (repo evaluationRepository) UpdateEvaluation(ctx context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.evaluations[e.ID]
	if !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	// student_id and evaluator_id are never part of the UPDATE column set.
	e.StudentID = orig.StudentID
	e.EvaluatorID = orig.EvaluatorID
	e.CreatedAt = orig.CreatedAt
	repo.db.evaluations[e.ID] = &e
	return e, nil
}

func (repo evaluationRepository) DeleteEvaluationsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.evaluations, id)
	}
	return nil
}
