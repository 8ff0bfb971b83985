package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core/audit"
	"github.com/medtrackhq/medtrack/core/preceptor"
)

type preceptorApi struct {
	svc      *preceptor.Service
	auditSvc *audit.Service
}

func registerPreceptorAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *preceptor.Service, auditSvc *audit.Service) {
	api := preceptorApi{svc: svc, auditSvc: auditSvc}

	pg := g.Group("/preceptors", jwt)
	pg.POST("", api.create, adminMiddleware())
	pg.GET("", api.query, staffMiddleware())
	pg.GET("/:id", api.retrieve, staffMiddleware())
	pg.PUT("/:id", api.update, adminMiddleware())
	pg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *preceptorApi) create(ctx echo.Context) error {
	var data preceptor.NewPreceptor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPreceptor")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating preceptor")
	}
	recordAudit(ctx, api.auditSvc, "create", "preceptor", p.ID, nil)
	return ctx.JSON(http.StatusCreated, p)
}

func (api *preceptorApi) query(ctx echo.Context) error {
	filter := new(preceptor.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []preceptor.Preceptor{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	preceptors, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying preceptors")
	}
	if preceptors == nil {
		preceptors = []preceptor.Preceptor{}
	}
	return ctx.JSON(http.StatusOK, preceptors)
}

func (api *preceptorApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == preceptor.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding preceptor by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *preceptorApi) update(ctx echo.Context) error {
	var data preceptor.UpdatePreceptor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePreceptor")
	}

	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == preceptor.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding preceptor by ID")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating preceptor")
	}
	recordAudit(ctx, api.auditSvc, "update", "preceptor", p.ID, nil)
	return ctx.JSON(http.StatusOK, p)
}

func (api *preceptorApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting preceptor")
	}
	recordAudit(ctx, api.auditSvc, "delete", "preceptor", id, nil)
	return ctx.NoContent(http.StatusNoContent)
}
