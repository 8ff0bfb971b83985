package lab

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/student"
)

var (
	// errors
	ErrNotFound          = errors.New("lab session not found")
	ErrAlreadyRegistered = errors.New("student is already registered for this session")
	ErrSessionFull       = errors.New("session is full")
)

type (
	Repository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		QuerySessions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error)
		UpdateSession(ctx context.Context, s Session) (Session, error)
		DeleteSessionsByID(ctx context.Context, ids ...string) error

		CreateRegistration(ctx context.Context, r Registration) (Registration, error)
		GetRegistration(ctx context.Context, sessionID, studentID string) (Registration, error)
		CountRegistrations(ctx context.Context, sessionID string) (int, error)
		QueryRegistrations(ctx context.Context, sessionID string) ([]Registration, error)
		DeleteRegistration(ctx context.Context, sessionID, studentID string) error
	}

	Service struct {
		repo    Repository
		stuSvc  *student.Service
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, stuSvc *student.Service, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, stuSvc: stuSvc, mailSvc: mailSvc}
}

func (svc *Service) Create(ctx context.Context, ns NewSession) (Session, error) {
	now := time.Now().UTC()
	s := Session{
		Title:     ns.Title,
		Topic:     ns.Topic,
		Location:  ns.Location,
		StartsAt:  ns.StartsAt.UTC(),
		EndsAt:    ns.EndsAt.UTC(),
		Capacity:  ns.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSession(ctx, s)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSession) (Session, error) {
	s := Session{
		ID:        id,
		Title:     us.Title,
		Topic:     us.Topic,
		Location:  us.Location,
		StartsAt:  us.StartsAt.UTC(),
		EndsAt:    us.EndsAt.UTC(),
		Capacity:  *us.Capacity,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateSession(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSessionsByID(ctx, ids...)
}

// Register signs a student up for a session, enforcing capacity and
// rejecting duplicates.
func (svc *Service) Register(ctx context.Context, sessionID, studentID string) (Registration, error) {
	sess, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return Registration{}, err
	}
	if _, err := svc.stuSvc.GetByID(ctx, studentID); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Registration{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Registration{}, err
	}

	if _, err := svc.repo.GetRegistration(ctx, sessionID, studentID); err == nil {
		return Registration{}, core.NewValidationError(ErrAlreadyRegistered)
	}

	if sess.Capacity > 0 {
		count, err := svc.repo.CountRegistrations(ctx, sessionID)
		if err != nil {
			return Registration{}, err
		}
		if count >= sess.Capacity {
			return Registration{}, core.NewValidationError(ErrSessionFull)
		}
	}

	r := Registration{
		SessionID: sessionID,
		StudentID: studentID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateRegistration(ctx, r)
}

func (svc *Service) Unregister(ctx context.Context, sessionID, studentID string) error {
	return svc.repo.DeleteRegistration(ctx, sessionID, studentID)
}

// Roster returns the students registered for a session.
func (svc *Service) Roster(ctx context.Context, sessionID string) ([]student.Student, error) {
	if _, err := svc.repo.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	regs, err := svc.repo.QueryRegistrations(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	roster := make([]student.Student, 0, len(regs))
	for _, reg := range regs {
		stu, err := svc.stuSvc.GetByID(ctx, reg.StudentID)
		if err != nil {
			continue
		}
		roster = append(roster, stu)
	}
	return roster, nil
}

// SendReminders emails the roster of every session starting within the
// next 24 hours. Meant to be run daily by the scheduler.
func (svc *Service) SendReminders(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	sessions, err := svc.repo.QuerySessions(ctx, &QueryFilter{From: now, To: now.Add(24 * time.Hour)}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying upcoming sessions")
	}

	var sent int
	for _, sess := range sessions {
		roster, err := svc.Roster(ctx, sess.ID)
		if err != nil {
			continue
		}
		msgs := make([]*core.EmailMessage, 0, len(roster))
		for _, stu := range roster {
			msgs = append(msgs, &core.EmailMessage{
				To:           []mail.Address{{Name: stu.Name, Address: stu.Email}},
				Subject:      "Lab Session Reminder",
				TemplateName: "lab-reminder",
				TemplateData: struct {
					StudentName string
					Title       string
					StartsAt    string
					Location    string
				}{stu.Name, sess.Title, sess.StartsAt.Format(time.RFC1123), sess.Location},
			})
			sent++
		}
		svc.mailSvc.SendMessages(msgs...)
	}
	return sent, nil
}
