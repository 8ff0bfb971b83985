package preceptor

import (
	"time"

	"github.com/medtrackhq/medtrack/core"
)

// Preceptor is a field training officer supervising students on internship placements.
// Preceptors are directory records, not login accounts.
type Preceptor struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Agency     string    `json:"agency"`
	Credential string    `json:"credential"`
	IsActive   *bool     `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (p *Preceptor) SetActive(active bool) {
	p.IsActive = &active
}

type NewPreceptor struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Agency     string `json:"agency"`
	Credential string `json:"credential"`
}

func (np *NewPreceptor) Validate() error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Agency = core.CleanString(np.Agency)
	np.Credential = core.CleanString(np.Credential)
	return core.Validate.Struct(np)
}

type UpdatePreceptor struct {
	Name       string `json:"name"`
	Email      string `json:"email" validate:"omitempty,email"`
	Agency     string `json:"agency"`
	Credential string `json:"credential"`
	IsActive   *bool  `json:"is_active"`
}

func (up *UpdatePreceptor) Validate(orig Preceptor) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if email := core.CleanString(up.Email, true /* lower */); email != "" {
		up.Email = email
	} else {
		up.Email = orig.Email
	}
	up.Agency = core.CleanString(up.Agency)
	up.Credential = core.CleanString(up.Credential)
	return core.Validate.Struct(up)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Agency   string `query:"agency"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Agency == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Agency = core.CleanString(qf.Agency)
}
