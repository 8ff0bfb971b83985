// Package scheduler runs the periodic background jobs: the daily scan
// for overdue internships and the lab session reminder pass.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/internship"
	"github.com/medtrackhq/medtrack/core/lab"
)

type Scheduler struct {
	scheduler gocron.Scheduler
	intSvc    *internship.Service
	labSvc    *lab.Service
	logger    core.Logger
}

func New(intSvc *internship.Service, labSvc *lab.Service, logger core.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, errors.Wrap(err, "creating gocron scheduler")
	}
	return &Scheduler{
		scheduler: s,
		intSvc:    intSvc,
		labSvc:    labSvc,
		logger:    logger,
	}, nil
}

// Start registers the jobs and launches the scheduler.
// Overdue internships are scanned once a day; lab reminders go out daily
// for sessions starting within the next 24 hours.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(6, 0, 0))),
		gocron.NewTask(s.scanOverdue, ctx),
		gocron.WithName("internship-overdue-scan"),
	); err != nil {
		return errors.Wrap(err, "scheduling overdue scan")
	}

	if _, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(7, 0, 0))),
		gocron.NewTask(s.sendLabReminders, ctx),
		gocron.WithName("lab-session-reminders"),
	); err != nil {
		return errors.Wrap(err, "scheduling lab reminders")
	}

	s.scheduler.Start()
	s.logger.Info("scheduler started")
	return nil
}

func (s *Scheduler) Stop() error {
	s.logger.Info("stopping scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) scanOverdue(ctx context.Context) {
	count, err := s.intSvc.ScanOverdue(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("overdue internship scan failed: %v", err), err)
		return
	}
	s.logger.Info(fmt.Sprintf("overdue internship scan done; %d overdue", count))
}

func (s *Scheduler) sendLabReminders(ctx context.Context) {
	count, err := s.labSvc.SendReminders(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("lab reminder pass failed: %v", err), err)
		return
	}
	if count > 0 {
		s.logger.Info(fmt.Sprintf("sent lab reminders for %d sessions", count))
	}
}
