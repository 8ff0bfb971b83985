package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core/audit"
)

type auditApi struct {
	svc *audit.Service
}

func registerAuditAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *audit.Service) {
	api := auditApi{svc: svc}

	ag := g.Group("/audit", jwt)
	ag.GET("", api.query, adminMiddleware())
}

func (api *auditApi) query(ctx echo.Context) error {
	filter := new(audit.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []audit.Entry{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying audit entries")
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
