package cohort

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/medtrackhq/medtrack/core"
)

// Programs
const (
	ProgramEMT       = "emt"
	ProgramAEMT      = "aemt"
	ProgramParamedic = "paramedic"
)

var (
	AllPrograms = []string{ProgramEMT, ProgramAEMT, ProgramParamedic}

	programTag  = "program"
	programText = "invalid program"
)

func init() {
	_ = core.Validate.RegisterValidation(programTag, programValidation)
	core.RegisterCustomTranslation(programTag, programText)
}

// programValidation checks that the provided program is one of AllPrograms.
func programValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, p := range AllPrograms {
		if val == p {
			return true
		}
	}
	return false
}

type Cohort struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Program   string    `json:"program"`
	StartsOn  time.Time `json:"starts_on"`
	EndsOn    time.Time `json:"ends_on"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewCohort contains information needed to create a new Cohort.
type NewCohort struct {
	Name     string    `json:"name" validate:"required"`
	Program  string    `json:"program" validate:"required,program"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
}

func (nc *NewCohort) Validate(svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Program = core.CleanString(nc.Program, true /* lower */)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.checkUniqueness(nc.Name, nc.Program)
}

// UpdateCohort defines what information may be provided to modify an existing Cohort.
type UpdateCohort struct {
	Name     string    `json:"name"`
	Program  string    `json:"program" validate:"omitempty,program"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
}

func (uc *UpdateCohort) Validate(orig Cohort, svc *Service) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if prog := core.CleanString(uc.Program, true /* lower */); prog != "" {
		uc.Program = prog
	} else {
		uc.Program = orig.Program
	}

	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	if uc.Name != orig.Name || uc.Program != orig.Program {
		return svc.checkUniqueness(uc.Name, uc.Program, orig)
	}
	return nil
}

type QueryFilter struct {
	Search  string `query:"search"`
	Program string `query:"program"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Program == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Program = core.CleanString(qf.Program, true /* lower */)
}
