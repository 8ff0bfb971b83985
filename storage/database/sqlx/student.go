package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/student"
)

type studentRow struct {
	ID        string      `db:"id"`
	UserID    null.String `db:"user_id"`
	CohortID  string      `db:"cohort_id"`
	Name      string      `db:"name"`
	Email     string      `db:"email"`
	Phone     null.String `db:"phone"`
	Status    string      `db:"status"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (r studentRow) unpack() student.Student {
	return student.Student{
		ID:        r.ID,
		UserID:    r.UserID.String,
		CohortID:  r.CohortID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone.String,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) CheckStudentUniqueness(ctx context.Context, email string, excluded ...student.Student) error {
	ids := make([]string, 0, len(excluded))
	for _, s := range excluded {
		ids = append(ids, s.ID)
	}
	if len(ids) == 0 {
		ids = append(ids, uuid.Nil.String())
	}

	q, args, err := sqlx.In(
		`SELECT EXISTS (SELECT 1 FROM student WHERE LOWER(email) = LOWER(?) AND id NOT IN (?))`,
		email, ids,
	)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if exists {
		return student.ErrEmailExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO student (id, user_id, cohort_id, name, email, phone, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, null.NewString(s.UserID, s.UserID != ""), s.CohortID, s.Name, s.Email,
		null.NewString(s.Phone, s.Phone != ""), s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT * FROM student WHERE id = ?`), id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return row.unpack(), nil
}

var studentOrderings = map[string]bool{
	"name": true, "email": true, "status": true, "created_at": true,
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, "(name ILIKE ? OR email ILIKE ?)")
			val := "%" + filter.Search + "%"
			args = append(args, val, val)
		}
		if filter.CohortID != "" {
			conds, args = append(conds, "cohort_id = ?"), append(args, filter.CohortID)
		}
		if filter.Status != "" {
			conds, args = append(conds, "status = ?"), append(args, filter.Status)
		}
		if filter.UserID != "" {
			conds, args = append(conds, "user_id = ?"), append(args, filter.UserID)
		}
	}

	q := `SELECT * FROM student` + where(conds) + orderBy(ordering, studentOrderings, "name ASC")
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.unpack())
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE student SET user_id = ?, cohort_id = ?, name = ?, email = ?, phone = ?, status = ?, updated_at = ?
		 WHERE id = ?`),
		null.NewString(s.UserID, s.UserID != ""), s.CohortID, s.Name, s.Email,
		null.NewString(s.Phone, s.Phone != ""), s.Status, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, s.ID)
}

func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM student WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}
