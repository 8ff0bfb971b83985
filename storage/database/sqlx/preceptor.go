package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/preceptor"
)

type preceptorRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Email      null.String `db:"email"`
	Agency     null.String `db:"agency"`
	Credential null.String `db:"credential"`
	IsActive   null.Bool   `db:"is_active"`
	CreatedAt  null.Time   `db:"created_at"`
	UpdatedAt  null.Time   `db:"updated_at"`
}

func (r preceptorRow) unpack() preceptor.Preceptor {
	return preceptor.Preceptor{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email.String,
		Agency:     r.Agency.String,
		Credential: r.Credential.String,
		IsActive:   r.IsActive.Ptr(),
		CreatedAt:  r.CreatedAt.Time,
		UpdatedAt:  r.UpdatedAt.Time,
	}
}

type preceptorRepository struct {
	db *sqlx.DB
}

var _ preceptor.Repository = (*preceptorRepository)(nil) // interface compliance check

func NewPreceptorRepository(db *sqlx.DB) *preceptorRepository {
	return &preceptorRepository{db: db}
}

func (repo preceptorRepository) CreatePreceptor(ctx context.Context, p preceptor.Preceptor) (preceptor.Preceptor, error) {
	p.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO preceptor (id, name, email, agency, credential, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, null.NewString(p.Email, p.Email != ""), null.NewString(p.Agency, p.Agency != ""),
		null.NewString(p.Credential, p.Credential != ""), null.BoolFromPtr(p.IsActive), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return preceptor.Preceptor{}, errors.Wrap(err, "inserting preceptor")
	}
	return p, nil
}

func (repo preceptorRepository) GetPreceptorByID(ctx context.Context, id string) (preceptor.Preceptor, error) {
	var row preceptorRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT * FROM preceptor WHERE id = ?`), id); err != nil {
		return preceptor.Preceptor{}, trapNoRowsErr(err, preceptor.ErrNotFound, "getting preceptor")
	}
	return row.unpack(), nil
}

var preceptorOrderings = map[string]bool{
	"name": true, "agency": true, "created_at": true,
}

func (repo preceptorRepository) QueryPreceptors(ctx context.Context, filter *preceptor.QueryFilter, ordering []core.DBOrdering) ([]preceptor.Preceptor, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, "(name ILIKE ? OR email ILIKE ?)")
			val := "%" + filter.Search + "%"
			args = append(args, val, val)
		}
		if filter.Agency != "" {
			conds, args = append(conds, "agency ILIKE ?"), append(args, filter.Agency)
		}
		if filter.IsActive != nil {
			conds, args = append(conds, "is_active = ?"), append(args, *filter.IsActive)
		}
	}

	q := `SELECT * FROM preceptor` + where(conds) + orderBy(ordering, preceptorOrderings, "name ASC")
	var rows []preceptorRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying preceptors")
	}

	preceptors := make([]preceptor.Preceptor, 0, len(rows))
	for _, row := range rows {
		preceptors = append(preceptors, row.unpack())
	}
	return preceptors, nil
}

func (repo preceptorRepository) UpdatePreceptor(ctx context.Context, p preceptor.Preceptor) (preceptor.Preceptor, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE preceptor SET name = ?, email = ?, agency = ?, credential = ?,
		 is_active = COALESCE(?, is_active), updated_at = ? WHERE id = ?`),
		p.Name, null.NewString(p.Email, p.Email != ""), null.NewString(p.Agency, p.Agency != ""),
		null.NewString(p.Credential, p.Credential != ""), null.BoolFromPtr(p.IsActive), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return preceptor.Preceptor{}, errors.Wrap(err, "updating preceptor")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return preceptor.Preceptor{}, preceptor.ErrNotFound
	}
	return repo.GetPreceptorByID(ctx, p.ID)
}

func (repo preceptorRepository) DeletePreceptorsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM preceptor WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting preceptors")
	}
	return nil
}
