package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/internship"
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/preceptor"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCohort(t *testing.T, repo cohort.Repository, name, program string, startsOn, endsOn time.Time) cohort.Cohort {
	t.Helper()

	now := time.Now().UTC()
	c := cohort.Cohort{
		Name:      name,
		Program:   program,
		StartsOn:  startsOn,
		EndsOn:    endsOn,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c, err := repo.CreateCohort(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCohort() failed: %v", err)
	}
	return c
}

func CreateStudent(t *testing.T, repo student.Repository, name, email, cohortID, userID string) student.Student {
	t.Helper()

	now := time.Now().UTC()
	s := student.Student{
		Name:      name,
		Email:     email,
		CohortID:  cohortID,
		UserID:    userID,
		Status:    student.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreatePreceptor(t *testing.T, repo preceptor.Repository, name, email, agency string) preceptor.Preceptor {
	t.Helper()

	now := time.Now().UTC()
	p := preceptor.Preceptor{
		Name:      name,
		Email:     email,
		Agency:    agency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.SetActive(true)
	p, err := repo.CreatePreceptor(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePreceptor() failed: %v", err)
	}
	return p
}

func CreateInternship(t *testing.T, repo internship.Repository, studentID, site string, startsOn, endsOn time.Time) internship.Internship {
	t.Helper()

	now := time.Now().UTC()
	i := internship.Internship{
		StudentID: studentID,
		Site:      site,
		StartsOn:  startsOn,
		EndsOn:    endsOn,
		Status:    internship.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	i, err := repo.CreateInternship(context.Background(), i)
	if err != nil {
		t.Fatalf("CreateInternship() failed: %v", err)
	}
	return i
}

func CreateLabSession(t *testing.T, repo lab.Repository, title string, startsAt, endsAt time.Time, capacity int) lab.Session {
	t.Helper()

	now := time.Now().UTC()
	s := lab.Session{
		Title:     title,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s, err := repo.CreateSession(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateLabSession() failed: %v", err)
	}
	return s
}
