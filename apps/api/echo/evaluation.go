package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core/audit"
	"github.com/medtrackhq/medtrack/core/evaluation"
	"github.com/medtrackhq/medtrack/core/student"
)

type evaluationApi struct {
	svc      *evaluation.Service
	stuSvc   *student.Service
	auditSvc *audit.Service
}

func registerEvaluationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *evaluation.Service,
	stuSvc *student.Service,
	auditSvc *audit.Service,
) {
	api := evaluationApi{svc: svc, stuSvc: stuSvc, auditSvc: auditSvc}

	eg := g.Group("/evaluations", jwt)
	eg.POST("", api.create, staffMiddleware())
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update, staffMiddleware())
	eg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *evaluationApi) create(ctx echo.Context) error {
	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	e, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating evaluation")
	}
	recordAudit(ctx, api.auditSvc, "create", "evaluation", e.ID, map[string]interface{}{
		"student_id": e.StudentID,
		"passed":     e.Passed,
	})
	return ctx.JSON(http.StatusCreated, e)
}

// query returns all evaluations for staff; students are restricted to
// their own.
func (api *evaluationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(evaluation.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []evaluation.Evaluation{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	if !claims.IsStaff() {
		s, err := api.stuSvc.GetByUserID(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return ctx.JSON(http.StatusOK, []evaluation.Evaluation{})
		}
		filter.StudentID = s.ID
	}

	evals, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == evaluation.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding evaluation by ID")
	}

	if !claims.IsStaff() {
		s, err := api.stuSvc.GetByUserID(ctx.Request().Context(), claims.Subject)
		if err != nil || s.ID != e.StudentID {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *evaluationApi) update(ctx echo.Context) error {
	var data evaluation.UpdateEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvaluation")
	}

	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == evaluation.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding evaluation by ID")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating evaluation")
	}
	recordAudit(ctx, api.auditSvc, "update", "evaluation", e.ID, map[string]interface{}{"passed": e.Passed})
	return ctx.JSON(http.StatusOK, e)
}

func (api *evaluationApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting evaluation")
	}
	recordAudit(ctx, api.auditSvc, "delete", "evaluation", id, nil)
	return ctx.NoContent(http.StatusNoContent)
}
