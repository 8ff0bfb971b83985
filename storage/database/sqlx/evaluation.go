package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/evaluation"
)

type evaluationRow struct {
	ID                string      `db:"id"`
	StudentID         string      `db:"student_id"`
	EvaluatorID       null.String `db:"evaluator_id"`
	Scenario          string      `db:"scenario"`
	TakenAt           null.Time   `db:"taken_at"`
	SceneManagement   int         `db:"scene_management"`
	PatientAssessment int         `db:"patient_assessment"`
	PatientManagement int         `db:"patient_management"`
	Interpersonal     int         `db:"interpersonal"`
	Integration       int         `db:"integration"`
	CriticalFailure   bool        `db:"critical_failure"`
	Notes             null.String `db:"notes"`
	CreatedAt         null.Time   `db:"created_at"`
	UpdatedAt         null.Time   `db:"updated_at"`
}

func (r evaluationRow) unpack() evaluation.Evaluation {
	return evaluation.Evaluation{
		ID:          r.ID,
		StudentID:   r.StudentID,
		EvaluatorID: r.EvaluatorID.String,
		Scenario:    r.Scenario,
		TakenAt:     r.TakenAt.Time,
		Scores: evaluation.Scores{
			SceneManagement:   r.SceneManagement,
			PatientAssessment: r.PatientAssessment,
			PatientManagement: r.PatientManagement,
			Interpersonal:     r.Interpersonal,
			Integration:       r.Integration,
		},
		CriticalFailure: r.CriticalFailure,
		Notes:           r.Notes.String,
		CreatedAt:       r.CreatedAt.Time,
		UpdatedAt:       r.UpdatedAt.Time,
	}
}

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *sqlx.DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func (repo evaluationRepository) CreateEvaluation(ctx context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	e.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO evaluation (id, student_id, evaluator_id, scenario, taken_at,
		   scene_management, patient_assessment, patient_management, interpersonal, integration,
		   critical_failure, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.StudentID, null.NewString(e.EvaluatorID, e.EvaluatorID != ""), e.Scenario,
		null.NewTime(e.TakenAt, !e.TakenAt.IsZero()),
		e.SceneManagement, e.PatientAssessment, e.PatientManagement, e.Interpersonal, e.Integration,
		e.CriticalFailure, null.NewString(e.Notes, e.Notes != ""), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "inserting evaluation")
	}
	return e, nil
}

func (repo evaluationRepository) GetEvaluationByID(ctx context.Context, id string) (evaluation.Evaluation, error) {
	var row evaluationRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT * FROM evaluation WHERE id = ?`), id); err != nil {
		return evaluation.Evaluation{}, trapNoRowsErr(err, evaluation.ErrNotFound, "getting evaluation")
	}
	return row.unpack(), nil
}

var evaluationOrderings = map[string]bool{
	"taken_at": true, "created_at": true,
}

// passedExpr mirrors Evaluation.Grade in SQL so the "passed" filter can
// be pushed to the database.
var passedExpr = fmt.Sprintf(
	"(NOT critical_failure AND (scene_management + patient_assessment + patient_management + interpersonal + integration) >= %d)",
	evaluation.PassingScore,
)

func (repo evaluationRepository) QueryEvaluations(ctx context.Context, filter *evaluation.QueryFilter, ordering []core.DBOrdering) ([]evaluation.Evaluation, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.StudentID != "" {
			conds, args = append(conds, "student_id = ?"), append(args, filter.StudentID)
		}
		if filter.Passed != nil {
			if *filter.Passed {
				conds = append(conds, passedExpr)
			} else {
				conds = append(conds, "NOT "+passedExpr)
			}
		}
	}

	q := `SELECT * FROM evaluation` + where(conds) + orderBy(ordering, evaluationOrderings, "taken_at DESC")
	var rows []evaluationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}

	evals := make([]evaluation.Evaluation, 0, len(rows))
	for _, row := range rows {
		evals = append(evals, row.unpack())
	}
	return evals, nil
}

func (repo evaluationRepository) UpdateEvaluation(ctx context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE evaluation SET scenario = ?, taken_at = ?,
		   scene_management = ?, patient_assessment = ?, patient_management = ?, interpersonal = ?, integration = ?,
		   critical_failure = ?, notes = ?, updated_at = ?
		 WHERE id = ?`),
		e.Scenario, null.NewTime(e.TakenAt, !e.TakenAt.IsZero()),
		e.SceneManagement, e.PatientAssessment, e.PatientManagement, e.Interpersonal, e.Integration,
		e.CriticalFailure, null.NewString(e.Notes, e.Notes != ""), e.UpdatedAt, e.ID,
	)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "updating evaluation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	return repo.GetEvaluationByID(ctx, e.ID)
}

func (repo evaluationRepository) DeleteEvaluationsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM evaluation WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting evaluations")
	}
	return nil
}
