package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/audit"
	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/evaluation"
	"github.com/medtrackhq/medtrack/core/internship"
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/preceptor"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc       *user.Service
		CohortSvc     *cohort.Service
		StudentSvc    *student.Service
		PreceptorSvc  *preceptor.Service
		InternshipSvc *internship.Service
		LabSvc        *lab.Service
		EvaluationSvc *evaluation.Service
		AuditSvc      *audit.Service

		Logger core.Logger

		// SignalShutdown is called when an unrecoverable error is caught
		// by the error handler; main uses it to trigger a graceful stop.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if core.Conf.Server.MetricsEnabled {
		s.app.Use(metricsMiddleware())
		s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc, s.opts.AuditSvc)
	registerCohortAPI(v1, jwt, s.opts.CohortSvc, s.opts.AuditSvc)
	registerStudentAPI(v1, jwt, s.opts.StudentSvc, s.opts.AuditSvc)
	registerPreceptorAPI(v1, jwt, s.opts.PreceptorSvc, s.opts.AuditSvc)
	registerInternshipAPI(v1, jwt, s.opts.InternshipSvc, s.opts.StudentSvc, s.opts.AuditSvc)
	registerLabAPI(v1, jwt, s.opts.LabSvc, s.opts.StudentSvc, s.opts.AuditSvc)
	registerEvaluationAPI(v1, jwt, s.opts.EvaluationSvc, s.opts.StudentSvc, s.opts.AuditSvc)
	registerAuditAPI(v1, jwt, s.opts.AuditSvc)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Medtrack API!")
}

// recordAudit writes an audit entry for a mutating request; the actor is
// taken from the JWT claims when present.
func recordAudit(ctx echo.Context, svc *audit.Service, action, objectType, objectID string, metadata map[string]interface{}) {
	var actorID string
	if claims, err := getContextClaims(ctx); err == nil {
		actorID = claims.Subject
	}
	svc.Record(ctx.Request().Context(), actorID, action, objectType, objectID, metadata)
}
