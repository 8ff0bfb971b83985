package internship

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/medtrackhq/medtrack/core"
)

// Statuses
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var (
	AllStatuses = []string{StatusScheduled, StatusInProgress, StatusCompleted}

	statusTag  = "internshipstatus"
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

// DefaultChecklist is the checklist template applied to every new internship.
type ChecklistTemplateItem struct {
	Code     string
	Label    string
	Required bool
}

var DefaultChecklist = []ChecklistTemplateItem{
	{Code: "orientation", Label: "Agency orientation completed", Required: true},
	{Code: "preceptor_meeting", Label: "Initial preceptor meeting", Required: true},
	{Code: "team_leads", Label: "Minimum team leads documented", Required: true},
	{Code: "airway_mgmt", Label: "Airway management competency signed off", Required: true},
	{Code: "iv_access", Label: "IV access competency signed off", Required: true},
	{Code: "medication_admin", Label: "Medication administration competency signed off", Required: true},
	{Code: "cardiac_arrest", Label: "Cardiac arrest management observed", Required: true},
	{Code: "pediatric_contact", Label: "Pediatric patient contact", Required: false},
	{Code: "geriatric_contact", Label: "Geriatric patient contact", Required: false},
	{Code: "midterm_review", Label: "Midterm preceptor review", Required: true},
	{Code: "final_review", Label: "Final preceptor review", Required: true},
	{Code: "skills_portfolio", Label: "Skills portfolio submitted", Required: true},
}

type ChecklistItem struct {
	ID           string    `json:"id"`
	InternshipID string    `json:"internship_id"`
	Code         string    `json:"code"`
	Label        string    `json:"label"`
	Required     bool      `json:"required"`
	Completed    bool      `json:"completed"`
	CompletedAt  time.Time `json:"completed_at"` // UTC; zero when incomplete
}

type Internship struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	PreceptorID string    `json:"preceptor_id,omitempty"`
	Site        string    `json:"site"`
	StartsOn    time.Time `json:"starts_on"`
	EndsOn      time.Time `json:"ends_on"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Overdue reports whether the internship is past its end date without being completed.
func (i *Internship) Overdue(now time.Time) bool {
	return i.Status != StatusCompleted && !i.EndsOn.IsZero() && now.After(i.EndsOn)
}

// Progress summarizes checklist completion for an internship.
type Progress struct {
	TotalItems      int  `json:"total_items"`
	CompletedItems  int  `json:"completed_items"`
	Percent         int  `json:"progress"`
	ClearedForNREMT bool `json:"cleared_for_nremt"`
}

// ComputeProgress derives the completion summary from the checklist:
// percentage of completed items (rounded to nearest integer) and the
// NREMT clearance gate (every required item complete).
func ComputeProgress(items []ChecklistItem) Progress {
	p := Progress{TotalItems: len(items), ClearedForNREMT: true}
	for _, item := range items {
		if item.Completed {
			p.CompletedItems++
		} else if item.Required {
			p.ClearedForNREMT = false
		}
	}
	if p.TotalItems > 0 {
		p.Percent = int(math.Round(float64(p.CompletedItems) / float64(p.TotalItems) * 100))
	}
	return p
}

// NewInternship contains information needed to create a new Internship.
type NewInternship struct {
	StudentID   string    `json:"student_id" validate:"required,uuid4"`
	PreceptorID string    `json:"preceptor_id" validate:"omitempty,uuid4"`
	Site        string    `json:"site" validate:"required"`
	StartsOn    time.Time `json:"starts_on"`
	EndsOn      time.Time `json:"ends_on"`
}

func (ni *NewInternship) Validate() error {
	ni.Site = core.CleanString(ni.Site)
	if err := core.Validate.Struct(ni); err != nil {
		return err
	}
	if !ni.StartsOn.IsZero() && !ni.EndsOn.IsZero() && ni.EndsOn.Before(ni.StartsOn) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_on", Error: "end date must be after start date"})
	}
	return nil
}

// UpdateInternship defines what information may be provided to modify an existing Internship.
type UpdateInternship struct {
	Site     string    `json:"site"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
	Status   string    `json:"status" validate:"omitempty,internshipstatus"`
}

func (ui *UpdateInternship) Validate(orig Internship) error {
	if site := core.CleanString(ui.Site); site != "" {
		ui.Site = site
	} else {
		ui.Site = orig.Site
	}
	if ui.StartsOn.IsZero() {
		ui.StartsOn = orig.StartsOn
	}
	if ui.EndsOn.IsZero() {
		ui.EndsOn = orig.EndsOn
	}
	if ui.Status == "" {
		ui.Status = orig.Status
	}
	if err := core.Validate.Struct(ui); err != nil {
		return err
	}
	if !ui.StartsOn.IsZero() && !ui.EndsOn.IsZero() && ui.EndsOn.Before(ui.StartsOn) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_on", Error: "end date must be after start date"})
	}
	return nil
}

// ToggleChecklistItem sets an item's completion state.
type ToggleChecklistItem struct {
	Completed bool `json:"completed"`
}

type QueryFilter struct {
	StudentID   string `query:"student"`
	PreceptorID string `query:"preceptor"`
	Status      string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.PreceptorID == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
