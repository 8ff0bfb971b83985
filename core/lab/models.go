package lab

import (
	"time"

	"github.com/medtrackhq/medtrack/core"
)

type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	Location  string    `json:"location"`
	StartsAt  time.Time `json:"starts_at"` // UTC
	EndsAt    time.Time `json:"ends_at"`   // UTC
	Capacity  int       `json:"capacity"`  // 0 = unlimited
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Registration struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession contains information needed to create a new lab Session.
type NewSession struct {
	Title    string    `json:"title" validate:"required"`
	Topic    string    `json:"topic"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
	Capacity int       `json:"capacity" validate:"gte=0"`
}

func (ns *NewSession) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	ns.Topic = core.CleanString(ns.Topic)
	ns.Location = core.CleanString(ns.Location)
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	if !ns.EndsAt.After(ns.StartsAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_at", Error: "session must end after it starts"})
	}
	return nil
}

// UpdateSession defines what information may be provided to modify an existing Session.
type UpdateSession struct {
	Title    string    `json:"title"`
	Topic    string    `json:"topic"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Capacity *int      `json:"capacity" validate:"omitempty,gte=0"`
}

func (us *UpdateSession) Validate(orig Session) error {
	if title := core.CleanString(us.Title); title != "" {
		us.Title = title
	} else {
		us.Title = orig.Title
	}
	us.Topic = core.CleanString(us.Topic)
	us.Location = core.CleanString(us.Location)
	if us.StartsAt.IsZero() {
		us.StartsAt = orig.StartsAt
	}
	if us.EndsAt.IsZero() {
		us.EndsAt = orig.EndsAt
	}
	if us.Capacity == nil {
		us.Capacity = &orig.Capacity
	}
	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	if !us.EndsAt.After(us.StartsAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_at", Error: "session must end after it starts"})
	}
	return nil
}

// RegisterStudent is the payload for session registration.
type RegisterStudent struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
}

func (rs RegisterStudent) Validate() error { return core.Validate.Struct(rs) }

type QueryFilter struct {
	Search   string    `query:"search"`
	From     time.Time `query:"from"`
	To       time.Time `query:"to"`
	Upcoming bool      `query:"upcoming"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.From.IsZero() && qf.To.IsZero() && !qf.Upcoming
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
