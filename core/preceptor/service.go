package preceptor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
)

var ErrNotFound = errors.New("preceptor not found")

type (
	Repository interface {
		CreatePreceptor(ctx context.Context, p Preceptor) (Preceptor, error)
		GetPreceptorByID(ctx context.Context, id string) (Preceptor, error)
		QueryPreceptors(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Preceptor, error)
		UpdatePreceptor(ctx context.Context, p Preceptor) (Preceptor, error)
		DeletePreceptorsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, np NewPreceptor) (Preceptor, error) {
	now := time.Now().UTC()
	p := Preceptor{
		Name:       np.Name,
		Email:      np.Email,
		Agency:     np.Agency,
		Credential: np.Credential,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p.SetActive(true)
	return svc.repo.CreatePreceptor(ctx, p)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Preceptor, error) {
	return svc.repo.GetPreceptorByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Preceptor, error) {
	return svc.repo.QueryPreceptors(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePreceptor) (Preceptor, error) {
	p := Preceptor{
		ID:         id,
		Name:       up.Name,
		Email:      up.Email,
		Agency:     up.Agency,
		Credential: up.Credential,
		IsActive:   up.IsActive,
		UpdatedAt:  time.Now().UTC(),
	}
	return svc.repo.UpdatePreceptor(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePreceptorsByID(ctx, ids...)
}
