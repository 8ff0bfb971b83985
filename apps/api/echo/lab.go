package echoapi

import (
	"encoding/csv"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core/audit"
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/student"
)

type labApi struct {
	svc      *lab.Service
	stuSvc   *student.Service
	auditSvc *audit.Service
}

func registerLabAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *lab.Service, stuSvc *student.Service, auditSvc *audit.Service) {
	api := labApi{svc: svc, stuSvc: stuSvc, auditSvc: auditSvc}

	lg := g.Group("/labs", jwt)
	lg.POST("", api.create, staffMiddleware())
	lg.GET("", api.query)
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.update, staffMiddleware())
	lg.DELETE("/:id", api.destroy, adminMiddleware())
	lg.POST("/:id/register", api.register)
	lg.DELETE("/:id/register/:studentID", api.unregister)
	lg.GET("/:id/roster", api.roster, staffMiddleware())
	lg.GET("/:id/roster/export", api.exportRosterCSV, staffMiddleware())
}

func (api *labApi) create(ctx echo.Context) error {
	var data lab.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lab session")
	}
	recordAudit(ctx, api.auditSvc, "create", "lab_session", s.ID, nil)
	return ctx.JSON(http.StatusCreated, s)
}

func (api *labApi) query(ctx echo.Context) error {
	filter := new(lab.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []lab.Session{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sessions, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying lab sessions")
	}
	if sessions == nil {
		sessions = []lab.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *labApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == lab.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lab session by ID")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *labApi) update(ctx echo.Context) error {
	var data lab.UpdateSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSession")
	}

	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == lab.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lab session by ID")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating lab session")
	}
	recordAudit(ctx, api.auditSvc, "update", "lab_session", s.ID, nil)
	return ctx.JSON(http.StatusOK, s)
}

func (api *labApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting lab session")
	}
	recordAudit(ctx, api.auditSvc, "delete", "lab_session", id, nil)
	return ctx.NoContent(http.StatusNoContent)
}

// register signs a student up. Staff can register anyone; a student can
// only register themselves.
func (api *labApi) register(ctx echo.Context) error {
	var data lab.RegisterStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterStudent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.checkStudentAccess(ctx, data.StudentID); err != nil {
		return err
	}

	r, err := api.svc.Register(ctx.Request().Context(), ctx.Param("id"), data.StudentID)
	if err != nil {
		if errors.Cause(err) == lab.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	recordAudit(ctx, api.auditSvc, "register", "lab_session", r.SessionID, map[string]interface{}{"student_id": r.StudentID})
	return ctx.JSON(http.StatusCreated, r)
}

func (api *labApi) unregister(ctx echo.Context) error {
	sessionID, studentID := ctx.Param("id"), ctx.Param("studentID")

	if err := api.checkStudentAccess(ctx, studentID); err != nil {
		return err
	}

	if err := api.svc.Unregister(ctx.Request().Context(), sessionID, studentID); err != nil {
		return errors.Wrap(err, "unregistering student")
	}
	recordAudit(ctx, api.auditSvc, "unregister", "lab_session", sessionID, map[string]interface{}{"student_id": studentID})
	return ctx.NoContent(http.StatusNoContent)
}

// checkStudentAccess lets staff act on any student and a student act on
// themselves only.
func (api *labApi) checkStudentAccess(ctx echo.Context, studentID string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsStaff() {
		return nil
	}
	s, err := api.stuSvc.GetByUserID(ctx.Request().Context(), claims.Subject)
	if err != nil || s.ID != studentID {
		return errHttpForbidden
	}
	return nil
}

func (api *labApi) roster(ctx echo.Context) error {
	students, err := api.svc.Roster(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == lab.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "listing roster")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *labApi) exportRosterCSV(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	sess, err := api.svc.GetByID(rctx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == lab.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lab session by ID")
	}
	students, err := api.svc.Roster(rctx, sess.ID)
	if err != nil {
		return errors.Wrap(err, "listing roster")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="lab-roster.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write([]string{"name", "email", "phone", "status"}); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, s := range students {
		if err := w.Write([]string{s.Name, s.Email, s.Phone, s.Status}); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}
	w.Flush()
	return w.Error()
}
