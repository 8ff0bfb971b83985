package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/audit"
)

type auditRow struct {
	ID         string      `db:"id"`
	ActorID    null.String `db:"actor_id"`
	Action     string      `db:"action"`
	ObjectType string      `db:"object_type"`
	ObjectID   null.String `db:"object_id"`
	Metadata   null.JSON   `db:"metadata"`
	CreatedAt  null.Time   `db:"created_at"`
}

func (r auditRow) unpack() audit.Entry {
	e := audit.Entry{
		ID:         r.ID,
		ActorID:    r.ActorID.String,
		Action:     r.Action,
		ObjectType: r.ObjectType,
		ObjectID:   r.ObjectID.String,
		CreatedAt:  r.CreatedAt.Time,
	}
	if r.Metadata.Valid {
		_ = json.Unmarshal(r.Metadata.JSON, &e.Metadata)
	}
	return e
}

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo auditRepository) CreateEntry(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	e.ID = uuid.New().String()

	var metadata null.JSON
	if e.Metadata != nil {
		data, err := json.Marshal(e.Metadata)
		if err != nil {
			return audit.Entry{}, errors.Wrap(err, "marshalling audit metadata")
		}
		metadata = null.JSONFrom(data)
	}

	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO audit_log (id, actor_id, action, object_type, object_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, null.NewString(e.ActorID, e.ActorID != ""), e.Action, e.ObjectType,
		null.NewString(e.ObjectID, e.ObjectID != ""), metadata, e.CreatedAt,
	)
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "inserting audit entry")
	}
	return e, nil
}

var auditOrderings = map[string]bool{
	"created_at": true, "action": true, "object_type": true,
}

func (repo auditRepository) QueryEntries(ctx context.Context, filter *audit.QueryFilter, ordering []core.DBOrdering) ([]audit.Entry, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.ActorID != "" {
			conds, args = append(conds, "actor_id = ?"), append(args, filter.ActorID)
		}
		if filter.ObjectType != "" {
			conds, args = append(conds, "object_type = ?"), append(args, filter.ObjectType)
		}
		if !filter.CreatedFrom.IsZero() {
			conds, args = append(conds, "created_at >= ?"), append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			conds, args = append(conds, "created_at <= ?"), append(args, filter.CreatedTo.UTC())
		}
	}

	q := `SELECT * FROM audit_log` + where(conds) + orderBy(ordering, auditOrderings, "created_at DESC")
	var rows []auditRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying audit entries")
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.unpack())
	}
	return entries, nil
}
