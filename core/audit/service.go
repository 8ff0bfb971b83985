package audit

import (
	"context"
	"time"

	"github.com/medtrackhq/medtrack/core"
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		QueryEntries(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Entry, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends an audit entry. Failures are logged and swallowed:
// auditing must never fail the request it describes.
func (svc *Service) Record(ctx context.Context, actorID, action, objectType, objectID string, metadata map[string]interface{}) {
	e := Entry{
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := svc.repo.CreateEntry(ctx, e); err != nil {
		svc.logger.Error("recording audit entry", err)
	}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, filter, ordering)
}
