package main

import (
	"context"
	"fmt"
	"time"

	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/student"
)

// seed loads a small demo data set for local development. It is a no-op
// when the demo cohort already exists.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	now := time.Now().UTC()

	if err := cli.cohRepo.CheckCohortUniqueness(ctx, "Demo Cohort", cohort.ProgramParamedic); err != nil {
		fmt.Println("demo data already loaded; nothing to do")
		return nil
	}

	coh, err := cli.cohRepo.CreateCohort(ctx, cohort.Cohort{
		Name:      "Demo Cohort",
		Program:   cohort.ProgramParamedic,
		StartsOn:  now.AddDate(0, -3, 0),
		EndsOn:    now.AddDate(0, 9, 0),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}

	students := []student.Student{
		{Name: "Pat Murphy", Email: "pat.murphy@example.org", Phone: "555-0101"},
		{Name: "Lee Jones", Email: "lee.jones@example.org", Phone: "555-0102"},
		{Name: "Sam Okafor", Email: "sam.okafor@example.org", Phone: "555-0103"},
	}
	for _, s := range students {
		s.CohortID = coh.ID
		s.Status = student.StatusActive
		s.CreatedAt, s.UpdatedAt = now, now
		if _, err := cli.stuRepo.CreateStudent(ctx, s); err != nil {
			return err
		}
	}

	starts := now.AddDate(0, 0, 7)
	if _, err := cli.labRepo.CreateSession(ctx, lab.Session{
		Title:     "Airway Management Lab",
		Topic:     "Supraglottic airways and intubation",
		Location:  "Skills Lab B",
		StartsAt:  starts,
		EndsAt:    starts.Add(3 * time.Hour),
		Capacity:  12,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return err
	}

	fmt.Printf("seeded cohort %q with %d students and 1 lab session\n", coh.Name, len(students))
	return nil
}
