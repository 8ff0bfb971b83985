package evaluation

import (
	"time"

	"github.com/medtrackhq/medtrack/core"
)

// Scoring rubric: five categories, each scored 0-3. An evaluation passes
// when no critical failure occurred and the total reaches PassingScore
// (80% of the 15 available points).
const (
	MaxCategoryScore = 3
	MaxTotalScore    = 5 * MaxCategoryScore
	PassingScore     = 12
)

type Scores struct {
	SceneManagement   int `json:"scene_management" validate:"gte=0,lte=3"`
	PatientAssessment int `json:"patient_assessment" validate:"gte=0,lte=3"`
	PatientManagement int `json:"patient_management" validate:"gte=0,lte=3"`
	Interpersonal     int `json:"interpersonal" validate:"gte=0,lte=3"`
	Integration       int `json:"integration" validate:"gte=0,lte=3"`
}

func (s Scores) Total() int {
	return s.SceneManagement + s.PatientAssessment + s.PatientManagement + s.Interpersonal + s.Integration
}

type Evaluation struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	EvaluatorID string    `json:"evaluator_id,omitempty"`
	Scenario    string    `json:"scenario"`
	TakenAt     time.Time `json:"taken_at"` // UTC
	Scores
	CriticalFailure bool      `json:"critical_failure"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC

	// computed; never accepted from clients
	TotalScore int  `json:"total_score"`
	Passed     bool `json:"passed"`
}

// Grade fills the computed TotalScore and Passed fields.
func (e *Evaluation) Grade() {
	e.TotalScore = e.Total()
	e.Passed = !e.CriticalFailure && e.TotalScore >= PassingScore
}

// NewEvaluation contains information needed to record a summative evaluation.
type NewEvaluation struct {
	StudentID string    `json:"student_id" validate:"required,uuid4"`
	Scenario  string    `json:"scenario" validate:"required"`
	TakenAt   time.Time `json:"taken_at"`
	Scores
	CriticalFailure bool   `json:"critical_failure"`
	Notes           string `json:"notes"`
}

func (ne *NewEvaluation) Validate() error {
	ne.Scenario = core.CleanString(ne.Scenario)
	ne.Notes = core.CleanString(ne.Notes)
	return core.Validate.Struct(ne)
}

// UpdateEvaluation defines what information may be provided to modify an
// existing Evaluation. Scores are re-submitted whole.
type UpdateEvaluation struct {
	Scenario string    `json:"scenario"`
	TakenAt  time.Time `json:"taken_at"`
	Scores
	CriticalFailure *bool  `json:"critical_failure"`
	Notes           string `json:"notes"`
}

func (ue *UpdateEvaluation) Validate(orig Evaluation) error {
	if scenario := core.CleanString(ue.Scenario); scenario != "" {
		ue.Scenario = scenario
	} else {
		ue.Scenario = orig.Scenario
	}
	ue.Notes = core.CleanString(ue.Notes)
	if ue.TakenAt.IsZero() {
		ue.TakenAt = orig.TakenAt
	}
	if ue.CriticalFailure == nil {
		ue.CriticalFailure = &orig.CriticalFailure
	}
	return core.Validate.Struct(ue)
}

type QueryFilter struct {
	StudentID string `query:"student"`
	Passed    *bool  `query:"passed"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Passed == nil
}
