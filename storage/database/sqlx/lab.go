package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/lab"
)

type labSessionRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Topic     null.String `db:"topic"`
	Location  null.String `db:"location"`
	StartsAt  null.Time   `db:"starts_at"`
	EndsAt    null.Time   `db:"ends_at"`
	Capacity  int         `db:"capacity"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (r labSessionRow) unpack() lab.Session {
	return lab.Session{
		ID:        r.ID,
		Title:     r.Title,
		Topic:     r.Topic.String,
		Location:  r.Location.String,
		StartsAt:  r.StartsAt.Time,
		EndsAt:    r.EndsAt.Time,
		Capacity:  r.Capacity,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

type labRegistrationRow struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	StudentID string    `db:"student_id"`
	CreatedAt null.Time `db:"created_at"`
}

func (r labRegistrationRow) unpack() lab.Registration {
	return lab.Registration{
		ID:        r.ID,
		SessionID: r.SessionID,
		StudentID: r.StudentID,
		CreatedAt: r.CreatedAt.Time,
	}
}

type labRepository struct {
	db *sqlx.DB
}

var _ lab.Repository = (*labRepository)(nil) // interface compliance check

func NewLabRepository(db *sqlx.DB) *labRepository {
	return &labRepository{db: db}
}

func (repo labRepository) CreateSession(ctx context.Context, s lab.Session) (lab.Session, error) {
	s.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO lab_session (id, title, topic, location, starts_at, ends_at, capacity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.Title, null.NewString(s.Topic, s.Topic != ""), null.NewString(s.Location, s.Location != ""),
		s.StartsAt, s.EndsAt, s.Capacity, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return lab.Session{}, errors.Wrap(err, "inserting lab session")
	}
	return s, nil
}

func (repo labRepository) GetSessionByID(ctx context.Context, id string) (lab.Session, error) {
	var row labSessionRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT * FROM lab_session WHERE id = ?`), id); err != nil {
		return lab.Session{}, trapNoRowsErr(err, lab.ErrNotFound, "getting lab session")
	}
	return row.unpack(), nil
}

var labOrderings = map[string]bool{
	"title": true, "starts_at": true, "created_at": true,
}

func (repo labRepository) QuerySessions(ctx context.Context, filter *lab.QueryFilter, ordering []core.DBOrdering) ([]lab.Session, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, "(title ILIKE ? OR topic ILIKE ?)")
			val := "%" + filter.Search + "%"
			args = append(args, val, val)
		}
		if !filter.From.IsZero() {
			conds, args = append(conds, "starts_at >= ?"), append(args, filter.From.UTC())
		}
		if !filter.To.IsZero() {
			conds, args = append(conds, "starts_at <= ?"), append(args, filter.To.UTC())
		}
		if filter.Upcoming {
			conds, args = append(conds, "starts_at >= ?"), append(args, time.Now().UTC())
		}
	}

	q := `SELECT * FROM lab_session` + where(conds) + orderBy(ordering, labOrderings, "starts_at ASC")
	var rows []labSessionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying lab sessions")
	}

	sessions := make([]lab.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.unpack())
	}
	return sessions, nil
}

func (repo labRepository) UpdateSession(ctx context.Context, s lab.Session) (lab.Session, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE lab_session SET title = ?, topic = ?, location = ?, starts_at = ?, ends_at = ?, capacity = ?, updated_at = ?
		 WHERE id = ?`),
		s.Title, null.NewString(s.Topic, s.Topic != ""), null.NewString(s.Location, s.Location != ""),
		s.StartsAt, s.EndsAt, s.Capacity, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return lab.Session{}, errors.Wrap(err, "updating lab session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lab.Session{}, lab.ErrNotFound
	}
	return repo.GetSessionByID(ctx, s.ID)
}

func (repo labRepository) DeleteSessionsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM lab_session WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting lab sessions")
	}
	return nil
}

// Registrations

func (repo labRepository) CreateRegistration(ctx context.Context, r lab.Registration) (lab.Registration, error) {
	r.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO lab_registration (id, session_id, student_id, created_at) VALUES (?, ?, ?, ?)`),
		r.ID, r.SessionID, r.StudentID, r.CreatedAt,
	)
	if err != nil {
		return lab.Registration{}, errors.Wrap(err, "inserting lab registration")
	}
	return r, nil
}

func (repo labRepository) GetRegistration(ctx context.Context, sessionID, studentID string) (lab.Registration, error) {
	var row labRegistrationRow
	q := `SELECT * FROM lab_registration WHERE session_id = ? AND student_id = ?`
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), sessionID, studentID); err != nil {
		return lab.Registration{}, trapNoRowsErr(err, lab.ErrNotFound, "getting lab registration")
	}
	return row.unpack(), nil
}

func (repo labRepository) CountRegistrations(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, repo.db.Rebind(`SELECT COUNT(*) FROM lab_registration WHERE session_id = ?`), sessionID)
	return count, errors.Wrap(err, "counting lab registrations")
}

func (repo labRepository) QueryRegistrations(ctx context.Context, sessionID string) ([]lab.Registration, error) {
	var rows []labRegistrationRow
	q := `SELECT * FROM lab_registration WHERE session_id = ? ORDER BY created_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), sessionID); err != nil {
		return nil, errors.Wrap(err, "querying lab registrations")
	}

	regs := make([]lab.Registration, 0, len(rows))
	for _, row := range rows {
		regs = append(regs, row.unpack())
	}
	return regs, nil
}

func (repo labRepository) DeleteRegistration(ctx context.Context, sessionID, studentID string) error {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`DELETE FROM lab_registration WHERE session_id = ? AND student_id = ?`), sessionID, studentID)
	return errors.Wrap(err, "deleting lab registration")
}
