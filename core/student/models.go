package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/medtrackhq/medtrack/core"
)

// Statuses
const (
	StatusActive    = "active"
	StatusGraduated = "graduated"
	StatusWithdrawn = "withdrawn"
)

var (
	AllStatuses = []string{StatusActive, StatusGraduated, StatusWithdrawn}

	statusTag  = "studentstatus"
	statusText = "invalid status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, s := range AllStatuses {
		if val == s {
			return true
		}
	}
	return false
}

type Student struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"` // optional linked auth account
	CohortID  string    `json:"cohort_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	CohortID string `json:"cohort_id" validate:"required,uuid4"`
	UserID   string `json:"user_id" validate:"omitempty,uuid4"`
}

func (ns *NewStudent) Validate(svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ns.Email)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	CohortID string `json:"cohort_id" validate:"omitempty,uuid4"`
	UserID   string `json:"user_id" validate:"omitempty,uuid4"`
	Status   string `json:"status" validate:"omitempty,studentstatus"`
}

func (us *UpdateStudent) Validate(orig Student, svc *Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	us.Phone = core.CleanString(us.Phone)
	if us.CohortID == "" {
		us.CohortID = orig.CohortID
	}
	if us.Status == "" {
		us.Status = orig.Status
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	if us.Email != orig.Email {
		return svc.checkUniqueness(us.Email, orig)
	}
	return nil
}

type QueryFilter struct {
	Search   string `query:"search"`
	CohortID string `query:"cohort"`
	Status   string `query:"status"`
	UserID   string `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CohortID == "" && qf.Status == "" && qf.UserID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
