package echoapi

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core/audit"
	"github.com/medtrackhq/medtrack/core/internship"
	"github.com/medtrackhq/medtrack/core/student"
)

type internshipApi struct {
	svc      *internship.Service
	stuSvc   *student.Service
	auditSvc *audit.Service
}

func registerInternshipAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *internship.Service,
	stuSvc *student.Service,
	auditSvc *audit.Service,
) {
	api := internshipApi{svc: svc, stuSvc: stuSvc, auditSvc: auditSvc}

	ig := g.Group("/internships", jwt)
	ig.POST("", api.create, staffMiddleware())
	ig.GET("", api.query, staffMiddleware())
	ig.GET("/export", api.exportCSV, staffMiddleware())
	ig.GET("/:id", api.retrieve)
	ig.PUT("/:id", api.update, staffMiddleware())
	ig.DELETE("/:id", api.destroy, adminMiddleware())
	ig.PUT("/:id/preceptor", api.assignPreceptor, staffMiddleware())
	ig.GET("/:id/checklist", api.checklist)
	ig.PUT("/:id/checklist/:itemID", api.toggleItem, staffMiddleware())
	ig.GET("/:id/progress", api.progress)
}

func (api *internshipApi) create(ctx echo.Context) error {
	var data internship.NewInternship
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInternship")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	i, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating internship")
	}
	recordAudit(ctx, api.auditSvc, "create", "internship", i.ID, nil)
	return ctx.JSON(http.StatusCreated, i)
}

func (api *internshipApi) query(ctx echo.Context) error {
	filter := new(internship.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []internship.Internship{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	internships, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying internships")
	}
	if internships == nil {
		internships = []internship.Internship{}
	}
	return ctx.JSON(http.StatusOK, internships)
}

// getVisible fetches the internship and enforces read access: staff see
// all, a student only their own placement.
func (api *internshipApi) getVisible(ctx echo.Context) (internship.Internship, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return internship.Internship{}, errors.Wrap(err, "getting context claims")
	}

	i, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == internship.ErrNotFound {
			return internship.Internship{}, errHttpNotFound
		}
		return internship.Internship{}, errors.Wrap(err, "finding internship by ID")
	}

	if !claims.IsStaff() {
		s, err := api.stuSvc.GetByUserID(ctx.Request().Context(), claims.Subject)
		if err != nil || s.ID != i.StudentID {
			return internship.Internship{}, errHttpNotFound
		}
	}
	return i, nil
}

func (api *internshipApi) retrieve(ctx echo.Context) error {
	i, err := api.getVisible(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, i)
}

func (api *internshipApi) update(ctx echo.Context) error {
	var data internship.UpdateInternship
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInternship")
	}

	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == internship.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding internship by ID")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	i, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating internship")
	}
	recordAudit(ctx, api.auditSvc, "update", "internship", i.ID, nil)
	return ctx.JSON(http.StatusOK, i)
}

func (api *internshipApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting internship")
	}
	recordAudit(ctx, api.auditSvc, "delete", "internship", id, nil)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *internshipApi) assignPreceptor(ctx echo.Context) error {
	var data AssignPreceptorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignPreceptorRequest")
	}

	i, err := api.svc.AssignPreceptor(ctx.Request().Context(), ctx.Param("id"), data.PreceptorID)
	if err != nil {
		if errors.Cause(err) == internship.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "assigning preceptor")
	}

	action := "assign"
	if data.PreceptorID == "" {
		action = "unassign"
	}
	recordAudit(ctx, api.auditSvc, action, "internship", i.ID, map[string]interface{}{"preceptor_id": data.PreceptorID})
	return ctx.JSON(http.StatusOK, i)
}

func (api *internshipApi) checklist(ctx echo.Context) error {
	if _, err := api.getVisible(ctx); err != nil {
		return err
	}

	items, err := api.svc.Checklist(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing checklist")
	}
	if items == nil {
		items = []internship.ChecklistItem{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *internshipApi) toggleItem(ctx echo.Context) error {
	var data internship.ToggleChecklistItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleChecklistItem")
	}

	item, err := api.svc.ToggleItem(ctx.Request().Context(), ctx.Param("id"), ctx.Param("itemID"), data.Completed)
	if err != nil {
		cause := errors.Cause(err)
		if cause == internship.ErrNotFound || cause == internship.ErrItemNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "toggling checklist item")
	}
	recordAudit(ctx, api.auditSvc, "toggle", "checklist_item", item.ID, map[string]interface{}{
		"internship_id": item.InternshipID,
		"code":          item.Code,
		"completed":     item.Completed,
	})
	return ctx.JSON(http.StatusOK, item)
}

func (api *internshipApi) progress(ctx echo.Context) error {
	if _, err := api.getVisible(ctx); err != nil {
		return err
	}

	p, err := api.svc.ProgressOf(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing progress")
	}
	return ctx.JSON(http.StatusOK, p)
}

// exportCSV streams a progress report for all matching internships.
func (api *internshipApi) exportCSV(ctx echo.Context) error {
	filter := new(internship.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		filter = new(internship.QueryFilter)
	}
	filter.Clean()

	rctx := ctx.Request().Context()
	internships, err := api.svc.Query(rctx, filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying internships")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="internship-progress.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write([]string{"student", "site", "status", "starts_on", "ends_on", "progress", "cleared_for_nremt"}); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, i := range internships {
		name := i.StudentID
		if s, err := api.stuSvc.GetByID(rctx, i.StudentID); err == nil {
			name = s.Name
		}
		p, err := api.svc.ProgressOf(rctx, i.ID)
		if err != nil {
			return errors.Wrap(err, "computing progress")
		}
		record := []string{
			name,
			i.Site,
			i.Status,
			i.StartsOn.Format("2006-01-02"),
			i.EndsOn.Format("2006-01-02"),
			strconv.Itoa(p.Percent),
			strconv.FormatBool(p.ClearedForNREMT),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}
	w.Flush()
	return w.Error()
}

type AssignPreceptorRequest struct {
	PreceptorID string `json:"preceptor_id"`
}
