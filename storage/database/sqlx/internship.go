package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/internship"
)

type internshipRow struct {
	ID          string      `db:"id"`
	StudentID   string      `db:"student_id"`
	PreceptorID null.String `db:"preceptor_id"`
	Site        null.String `db:"site"`
	StartsOn    null.Time   `db:"starts_on"`
	EndsOn      null.Time   `db:"ends_on"`
	Status      string      `db:"status"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

func (r internshipRow) unpack() internship.Internship {
	return internship.Internship{
		ID:          r.ID,
		StudentID:   r.StudentID,
		PreceptorID: r.PreceptorID.String,
		Site:        r.Site.String,
		StartsOn:    r.StartsOn.Time,
		EndsOn:      r.EndsOn.Time,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

type checklistItemRow struct {
	ID           string    `db:"id"`
	InternshipID string    `db:"internship_id"`
	Code         string    `db:"code"`
	Label        string    `db:"label"`
	Required     bool      `db:"required"`
	Completed    bool      `db:"completed"`
	CompletedAt  null.Time `db:"completed_at"`
}

func (r checklistItemRow) unpack() internship.ChecklistItem {
	return internship.ChecklistItem{
		ID:           r.ID,
		InternshipID: r.InternshipID,
		Code:         r.Code,
		Label:        r.Label,
		Required:     r.Required,
		Completed:    r.Completed,
		CompletedAt:  r.CompletedAt.Time,
	}
}

type internshipRepository struct {
	db *sqlx.DB
}

var _ internship.Repository = (*internshipRepository)(nil) // interface compliance check

func NewInternshipRepository(db *sqlx.DB) *internshipRepository {
	return &internshipRepository{db: db}
}

func (repo internshipRepository) CreateInternship(ctx context.Context, i internship.Internship) (internship.Internship, error) {
	i.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO internship (id, student_id, preceptor_id, site, starts_on, ends_on, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		i.ID, i.StudentID, null.NewString(i.PreceptorID, i.PreceptorID != ""),
		null.NewString(i.Site, i.Site != ""), null.NewTime(i.StartsOn, !i.StartsOn.IsZero()),
		null.NewTime(i.EndsOn, !i.EndsOn.IsZero()), i.Status, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return internship.Internship{}, errors.Wrap(err, "inserting internship")
	}
	return i, nil
}

func (repo internshipRepository) GetInternshipByID(ctx context.Context, id string) (internship.Internship, error) {
	var row internshipRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT * FROM internship WHERE id = ?`), id); err != nil {
		return internship.Internship{}, trapNoRowsErr(err, internship.ErrNotFound, "getting internship")
	}
	return row.unpack(), nil
}

var internshipOrderings = map[string]bool{
	"starts_on": true, "ends_on": true, "status": true, "created_at": true,
}

func (repo internshipRepository) QueryInternships(ctx context.Context, filter *internship.QueryFilter, ordering []core.DBOrdering) ([]internship.Internship, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.StudentID != "" {
			conds, args = append(conds, "student_id = ?"), append(args, filter.StudentID)
		}
		if filter.PreceptorID != "" {
			conds, args = append(conds, "preceptor_id = ?"), append(args, filter.PreceptorID)
		}
		if filter.Status != "" {
			conds, args = append(conds, "status = ?"), append(args, filter.Status)
		}
	}

	q := `SELECT * FROM internship` + where(conds) + orderBy(ordering, internshipOrderings, "starts_on DESC")
	var rows []internshipRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying internships")
	}

	internships := make([]internship.Internship, 0, len(rows))
	for _, row := range rows {
		internships = append(internships, row.unpack())
	}
	return internships, nil
}

func (repo internshipRepository) UpdateInternship(ctx context.Context, i internship.Internship) (internship.Internship, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE internship SET site = ?, starts_on = ?, ends_on = ?, status = ?, updated_at = ? WHERE id = ?`),
		null.NewString(i.Site, i.Site != ""), null.NewTime(i.StartsOn, !i.StartsOn.IsZero()),
		null.NewTime(i.EndsOn, !i.EndsOn.IsZero()), i.Status, i.UpdatedAt, i.ID,
	)
	if err != nil {
		return internship.Internship{}, errors.Wrap(err, "updating internship")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internship.Internship{}, internship.ErrNotFound
	}
	return repo.GetInternshipByID(ctx, i.ID)
}

func (repo internshipRepository) SetInternshipPreceptor(ctx context.Context, id string, preceptorID *string) (internship.Internship, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE internship SET preceptor_id = ?, updated_at = ? WHERE id = ?`),
		null.StringFromPtr(preceptorID), time.Now().UTC(), id,
	)
	if err != nil {
		return internship.Internship{}, errors.Wrap(err, "setting internship preceptor")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internship.Internship{}, internship.ErrNotFound
	}
	return repo.GetInternshipByID(ctx, id)
}

func (repo internshipRepository) DeleteInternshipsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM internship WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting internships")
	}
	return nil
}

func (repo internshipRepository) QueryOverdueInternships(ctx context.Context, asOf time.Time) ([]internship.Internship, error) {
	q := `SELECT * FROM internship WHERE status <> ? AND ends_on IS NOT NULL AND ends_on < ? ORDER BY ends_on ASC`
	var rows []internshipRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), internship.StatusCompleted, asOf); err != nil {
		return nil, errors.Wrap(err, "querying overdue internships")
	}

	internships := make([]internship.Internship, 0, len(rows))
	for _, row := range rows {
		internships = append(internships, row.unpack())
	}
	return internships, nil
}

// Checklist items

func (repo internshipRepository) CreateChecklistItems(ctx context.Context, items []internship.ChecklistItem) error {
	for _, item := range items {
		item.ID = uuid.New().String()
		_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
			`INSERT INTO checklist_item (id, internship_id, code, label, required, completed, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			item.ID, item.InternshipID, item.Code, item.Label, item.Required, item.Completed,
			null.NewTime(item.CompletedAt, !item.CompletedAt.IsZero()),
		)
		if err != nil {
			return errors.Wrap(err, "inserting checklist item")
		}
	}
	return nil
}

func (repo internshipRepository) GetChecklistItems(ctx context.Context, internshipID string) ([]internship.ChecklistItem, error) {
	var rows []checklistItemRow
	q := `SELECT * FROM checklist_item WHERE internship_id = ? ORDER BY code ASC`
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), internshipID); err != nil {
		return nil, errors.Wrap(err, "querying checklist items")
	}

	items := make([]internship.ChecklistItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.unpack())
	}
	return items, nil
}

func (repo internshipRepository) GetChecklistItem(ctx context.Context, internshipID, itemID string) (internship.ChecklistItem, error) {
	var row checklistItemRow
	q := `SELECT * FROM checklist_item WHERE internship_id = ? AND id = ?`
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), internshipID, itemID); err != nil {
		return internship.ChecklistItem{}, trapNoRowsErr(err, internship.ErrItemNotFound, "getting checklist item")
	}
	return row.unpack(), nil
}

func (repo internshipRepository) UpdateChecklistItem(ctx context.Context, item internship.ChecklistItem) (internship.ChecklistItem, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE checklist_item SET completed = ?, completed_at = ? WHERE id = ?`),
		item.Completed, null.NewTime(item.CompletedAt, !item.CompletedAt.IsZero()), item.ID,
	)
	if err != nil {
		return internship.ChecklistItem{}, errors.Wrap(err, "updating checklist item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internship.ChecklistItem{}, internship.ErrItemNotFound
	}
	return repo.GetChecklistItem(ctx, item.InternshipID, item.ID)
}
