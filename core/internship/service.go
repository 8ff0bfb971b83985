package internship

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/preceptor"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("internship not found")
	ErrItemNotFound = errors.New("checklist item not found")
)

type (
	Repository interface {
		CreateInternship(ctx context.Context, i Internship) (Internship, error)
		GetInternshipByID(ctx context.Context, id string) (Internship, error)
		QueryInternships(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Internship, error)
		UpdateInternship(ctx context.Context, i Internship) (Internship, error)
		SetInternshipPreceptor(ctx context.Context, id string, preceptorID *string) (Internship, error)
		DeleteInternshipsByID(ctx context.Context, ids ...string) error
		// QueryOverdueInternships returns internships whose end date is before asOf
		// and whose status is not "completed".
		QueryOverdueInternships(ctx context.Context, asOf time.Time) ([]Internship, error)

		CreateChecklistItems(ctx context.Context, items []ChecklistItem) error
		GetChecklistItems(ctx context.Context, internshipID string) ([]ChecklistItem, error)
		GetChecklistItem(ctx context.Context, internshipID, itemID string) (ChecklistItem, error)
		UpdateChecklistItem(ctx context.Context, item ChecklistItem) (ChecklistItem, error)
	}

	Service struct {
		repo    Repository
		stuSvc  *student.Service
		precSvc *preceptor.Service
		usrSvc  *user.Service
		mailSvc core.EmailService
	}
)

func NewService(
	repo Repository,
	stuSvc *student.Service,
	precSvc *preceptor.Service,
	usrSvc *user.Service,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		repo:    repo,
		stuSvc:  stuSvc,
		precSvc: precSvc,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
	}
}

// Create creates the internship and seeds the default checklist.
func (svc *Service) Create(ctx context.Context, ni NewInternship) (Internship, error) {
	if _, err := svc.stuSvc.GetByID(ctx, ni.StudentID); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Internship{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Internship{}, err
	}

	now := time.Now().UTC()
	i := Internship{
		StudentID:   ni.StudentID,
		PreceptorID: ni.PreceptorID,
		Site:        ni.Site,
		StartsOn:    ni.StartsOn,
		EndsOn:      ni.EndsOn,
		Status:      StatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	i, err := svc.repo.CreateInternship(ctx, i)
	if err != nil {
		return Internship{}, err
	}

	items := make([]ChecklistItem, 0, len(DefaultChecklist))
	for _, tpl := range DefaultChecklist {
		items = append(items, ChecklistItem{
			InternshipID: i.ID,
			Code:         tpl.Code,
			Label:        tpl.Label,
			Required:     tpl.Required,
		})
	}
	if err := svc.repo.CreateChecklistItems(ctx, items); err != nil {
		return Internship{}, errors.Wrap(err, "seeding checklist")
	}
	return i, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Internship, error) {
	return svc.repo.GetInternshipByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Internship, error) {
	return svc.repo.QueryInternships(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, ui UpdateInternship) (Internship, error) {
	i := Internship{
		ID:        id,
		Site:      ui.Site,
		StartsOn:  ui.StartsOn,
		EndsOn:    ui.EndsOn,
		Status:    ui.Status,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateInternship(ctx, i)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteInternshipsByID(ctx, ids...)
}

// AssignPreceptor assigns (or, with an empty id, unassigns) a preceptor
// and notifies staff of the assignment.
func (svc *Service) AssignPreceptor(ctx context.Context, id, preceptorID string) (Internship, error) {
	if preceptorID == "" {
		return svc.repo.SetInternshipPreceptor(ctx, id, nil)
	}

	prec, err := svc.precSvc.GetByID(ctx, preceptorID)
	if err != nil {
		if errors.Cause(err) == preceptor.ErrNotFound {
			return Internship{}, core.NewValidationError(err, core.FieldError{Field: "preceptor_id", Error: err.Error()})
		}
		return Internship{}, err
	}

	i, err := svc.repo.SetInternshipPreceptor(ctx, id, &preceptorID)
	if err != nil {
		return Internship{}, err
	}

	svc.notifyAssignment(ctx, i, prec)
	return i, nil
}

func (svc *Service) notifyAssignment(ctx context.Context, i Internship, prec preceptor.Preceptor) {
	stu, err := svc.stuSvc.GetByID(ctx, i.StudentID)
	if err != nil {
		return
	}
	to := svc.staffAddresses(ctx)
	if len(to) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      "Preceptor Assigned",
		TemplateName: "preceptor-assigned",
		TemplateData: struct {
			PreceptorName string
			StudentName   string
			Site          string
			InternshipID  string
		}{prec.Name, stu.Name, i.Site, i.ID},
	})
}

// staffAddresses returns the email addresses of all active staff users,
// admins and instructors alike.
func (svc *Service) staffAddresses(ctx context.Context) []mail.Address {
	active := true
	staff, err := svc.usrSvc.Query(ctx, &user.QueryFilter{Roles: user.StaffRoles, IsActive: &active}, nil)
	if err != nil {
		return nil
	}
	addrs := make([]mail.Address, 0, len(staff))
	for _, usr := range staff {
		if usr.Email != "" {
			addrs = append(addrs, mail.Address{Name: usr.Name, Address: usr.Email})
		}
	}
	return addrs
}

func (svc *Service) Checklist(ctx context.Context, internshipID string) ([]ChecklistItem, error) {
	if _, err := svc.repo.GetInternshipByID(ctx, internshipID); err != nil {
		return nil, err
	}
	return svc.repo.GetChecklistItems(ctx, internshipID)
}

// ToggleItem sets a checklist item's completion state. Completing an item
// stamps CompletedAt; re-completing refreshes the stamp.
func (svc *Service) ToggleItem(ctx context.Context, internshipID, itemID string, completed bool) (ChecklistItem, error) {
	item, err := svc.repo.GetChecklistItem(ctx, internshipID, itemID)
	if err != nil {
		return ChecklistItem{}, err
	}
	item.Completed = completed
	if completed {
		item.CompletedAt = time.Now().UTC()
	} else {
		item.CompletedAt = time.Time{}
	}
	return svc.repo.UpdateChecklistItem(ctx, item)
}

// ProgressOf computes the checklist completion summary for an internship.
func (svc *Service) ProgressOf(ctx context.Context, internshipID string) (Progress, error) {
	items, err := svc.Checklist(ctx, internshipID)
	if err != nil {
		return Progress{}, err
	}
	return ComputeProgress(items), nil
}

// ScanOverdue finds internships past their end date and not completed,
// and emails the admin staff. Meant to be run daily by the scheduler.
func (svc *Service) ScanOverdue(ctx context.Context) (int, error) {
	overdue, err := svc.repo.QueryOverdueInternships(ctx, time.Now().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "querying overdue internships")
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	type line struct {
		StudentName string
		Site        string
		EndsOn      string
	}
	lines := make([]line, 0, len(overdue))
	for _, i := range overdue {
		stu, err := svc.stuSvc.GetByID(ctx, i.StudentID)
		if err != nil {
			continue
		}
		lines = append(lines, line{StudentName: stu.Name, Site: i.Site, EndsOn: i.EndsOn.Format("2006-01-02")})
	}

	to := svc.staffAddresses(ctx)
	if len(to) > 0 {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           to,
			Subject:      "Overdue Internships",
			TemplateName: "internship-overdue",
			TemplateData: struct{ Internships []line }{lines},
		})
	}
	return len(overdue), nil
}
