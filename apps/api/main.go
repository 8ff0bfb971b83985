package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/medtrackhq/medtrack/apps/api/echo"
	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/audit"
	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/evaluation"
	"github.com/medtrackhq/medtrack/core/internship"
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/preceptor"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
	"github.com/medtrackhq/medtrack/scheduler"
	"github.com/medtrackhq/medtrack/services/email"
	"github.com/medtrackhq/medtrack/services/logger"
	"github.com/medtrackhq/medtrack/storage/database"
	"github.com/medtrackhq/medtrack/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up logging
	var appLogger core.Logger
	if core.Conf.Debug {
		appLogger = logsvc.NewStdLogger(std)
	} else {
		appLogger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	errAndDie(std, database.CreateIfNotExist(core.Conf))
	db, err := database.Open(core.Conf)
	errAndDie(std, err)
	defer func() { _ = db.Close() }()
	errAndDie(std, database.Migrate(db))

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(appLogger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	cohSvc := cohort.NewService(sqlxrepos.NewCohortRepository(db))
	stuSvc := student.NewService(sqlxrepos.NewStudentRepository(db))
	precSvc := preceptor.NewService(sqlxrepos.NewPreceptorRepository(db))
	intSvc := internship.NewService(sqlxrepos.NewInternshipRepository(db), stuSvc, precSvc, usrSvc, mailSvc)
	labSvc := lab.NewService(sqlxrepos.NewLabRepository(db), stuSvc, mailSvc)
	evalSvc := evaluation.NewService(sqlxrepos.NewEvaluationRepository(db), stuSvc)
	auditSvc := audit.NewService(sqlxrepos.NewAuditRepository(db), appLogger)

	// set up background jobs
	sched, err := scheduler.New(intSvc, labSvc, appLogger)
	errAndDie(std, err)
	errAndDie(std, sched.Start(context.Background()))
	defer func() { _ = sched.Stop() }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Address(),
			UserSvc:       usrSvc,
			CohortSvc:     cohSvc,
			StudentSvc:    stuSvc,
			PreceptorSvc:  precSvc,
			InternshipSvc: intSvc,
			LabSvc:        labSvc,
			EvaluationSvc: evalSvc,
			AuditSvc:      auditSvc,
			Logger:        appLogger,
			SignalShutdown: func() {
				shutdown <- syscall.SIGTERM
			},
		},
	)

	serverErrs := make(chan error, 1)
	go func() {
		std.Printf("server listening on %s", core.Conf.Server.Address())
		serverErrs <- app.Start()
	}()

	select {
	case err := <-serverErrs:
		errAndDie(std, err)
	case sig := <-shutdown:
		std.Printf("%v: shutting down...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			std.Fatalf("graceful shutdown failed: %v", err)
		}
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
