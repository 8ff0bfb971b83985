// Package inmemdb provides mutex-guarded in-memory implementations of
// every domain Repository. It backs unit and handler tests so they need
// neither a database nor a driver.
package inmemdb

import (
	"strings"
	"sync"

	"github.com/medtrackhq/medtrack/core/audit"
	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/evaluation"
	"github.com/medtrackhq/medtrack/core/internship"
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/preceptor"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users          map[string]*user.User
	cohorts        map[string]*cohort.Cohort
	students       map[string]*student.Student
	preceptors     map[string]*preceptor.Preceptor
	internships    map[string]*internship.Internship
	checklistItems map[string]*internship.ChecklistItem
	labSessions    map[string]*lab.Session
	labRegs        map[string]*lab.Registration
	evaluations    map[string]*evaluation.Evaluation
	auditEntries   []audit.Entry
}

func New() *DB {
	return &DB{
		users:          make(map[string]*user.User),
		cohorts:        make(map[string]*cohort.Cohort),
		students:       make(map[string]*student.Student),
		preceptors:     make(map[string]*preceptor.Preceptor),
		internships:    make(map[string]*internship.Internship),
		checklistItems: make(map[string]*internship.ChecklistItem),
		labSessions:    make(map[string]*lab.Session),
		labRegs:        make(map[string]*lab.Registration),
		evaluations:    make(map[string]*evaluation.Evaluation),
	}
}

// Reset drops all data; used between tests.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.users = make(map[string]*user.User)
	db.cohorts = make(map[string]*cohort.Cohort)
	db.students = make(map[string]*student.Student)
	db.preceptors = make(map[string]*preceptor.Preceptor)
	db.internships = make(map[string]*internship.Internship)
	db.checklistItems = make(map[string]*internship.ChecklistItem)
	db.labSessions = make(map[string]*lab.Session)
	db.labRegs = make(map[string]*lab.Registration)
	db.evaluations = make(map[string]*evaluation.Evaluation)
	db.auditEntries = nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
