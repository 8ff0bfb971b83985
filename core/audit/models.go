package audit

import (
	"time"
)

// Entry is one append-only audit record. Entries are written by the API
// layer on mutating requests and never updated or deleted.
type Entry struct {
	ID         string                 `json:"id"`
	ActorID    string                 `json:"actor_id,omitempty"`
	Action     string                 `json:"action"`      // e.g. "create", "update", "delete", "assign"
	ObjectType string                 `json:"object_type"` // e.g. "student", "internship"
	ObjectID   string                 `json:"object_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"` // UTC
}

type QueryFilter struct {
	ActorID     string    `query:"actor"`
	ObjectType  string    `query:"object_type"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ActorID == "" && qf.ObjectType == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}
