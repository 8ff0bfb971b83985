package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/cohort"
)

type cohortRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Program   string      `db:"program"`
	StartsOn  null.Time   `db:"starts_on"`
	EndsOn    null.Time   `db:"ends_on"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (r cohortRow) unpack() cohort.Cohort {
	return cohort.Cohort{
		ID:        r.ID,
		Name:      r.Name,
		Program:   r.Program,
		StartsOn:  r.StartsOn.Time,
		EndsOn:    r.EndsOn.Time,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

type cohortRepository struct {
	db *sqlx.DB
}

var _ cohort.Repository = (*cohortRepository)(nil) // interface compliance check

func NewCohortRepository(db *sqlx.DB) *cohortRepository {
	return &cohortRepository{db: db}
}

func (repo cohortRepository) CheckCohortUniqueness(ctx context.Context, name, program string, excluded ...cohort.Cohort) error {
	ids := make([]string, 0, len(excluded))
	for _, c := range excluded {
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		ids = append(ids, uuid.Nil.String())
	}

	q, args, err := sqlx.In(
		`SELECT EXISTS (SELECT 1 FROM cohort WHERE LOWER(name) = LOWER(?) AND program = ? AND id NOT IN (?))`,
		name, program, ids,
	)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking cohort uniqueness")
	}
	if exists {
		return cohort.ErrCohortExists
	}
	return nil
}

func (repo cohortRepository) CreateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	c.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO cohort (id, name, program, starts_on, ends_on, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Program, null.NewTime(c.StartsOn, !c.StartsOn.IsZero()),
		null.NewTime(c.EndsOn, !c.EndsOn.IsZero()), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return cohort.Cohort{}, errors.Wrap(err, "inserting cohort")
	}
	return c, nil
}

func (repo cohortRepository) GetCohortByID(ctx context.Context, id string) (cohort.Cohort, error) {
	var row cohortRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT * FROM cohort WHERE id = ?`), id); err != nil {
		return cohort.Cohort{}, trapNoRowsErr(err, cohort.ErrNotFound, "getting cohort")
	}
	return row.unpack(), nil
}

var cohortOrderings = map[string]bool{
	"name": true, "program": true, "starts_on": true, "created_at": true,
}

func (repo cohortRepository) QueryCohorts(ctx context.Context, filter *cohort.QueryFilter, ordering []core.DBOrdering) ([]cohort.Cohort, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds, args = append(conds, "name ILIKE ?"), append(args, "%"+filter.Search+"%")
		}
		if filter.Program != "" {
			conds, args = append(conds, "program = ?"), append(args, filter.Program)
		}
	}

	q := `SELECT * FROM cohort` + where(conds) + orderBy(ordering, cohortOrderings, "starts_on DESC")
	var rows []cohortRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying cohorts")
	}

	cohorts := make([]cohort.Cohort, 0, len(rows))
	for _, row := range rows {
		cohorts = append(cohorts, row.unpack())
	}
	return cohorts, nil
}

func (repo cohortRepository) UpdateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE cohort SET name = ?, program = ?, starts_on = ?, ends_on = ?, updated_at = ? WHERE id = ?`),
		c.Name, c.Program, null.NewTime(c.StartsOn, !c.StartsOn.IsZero()),
		null.NewTime(c.EndsOn, !c.EndsOn.IsZero()), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return cohort.Cohort{}, errors.Wrap(err, "updating cohort")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cohort.Cohort{}, cohort.ErrNotFound
	}
	return repo.GetCohortByID(ctx, c.ID)
}

func (repo cohortRepository) CountCohortStudents(ctx context.Context, id string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, repo.db.Rebind(`SELECT COUNT(*) FROM student WHERE cohort_id = ?`), id)
	return count, errors.Wrap(err, "counting cohort students")
}

func (repo cohortRepository) DeleteCohortsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM cohort WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting cohorts")
	}
	return nil
}
