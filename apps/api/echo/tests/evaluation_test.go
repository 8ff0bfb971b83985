package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/evaluation"
	"github.com/medtrackhq/medtrack/core/user"
	testutil "github.com/medtrackhq/medtrack/tests"
)

func Test_evaluationApi_scoring(t *testing.T) {
	app := setup(t)

	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})
	token := getToken(t, instructor)

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	stu := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat@test.io", coh.ID, "")

	record := func(scores string, criticalFailure bool) evaluation.Evaluation {
		t.Helper()
		body := []byte(fmt.Sprintf(`{
			"student_id": %q,
			"scenario": "Cardiac arrest, witnessed",
			%s,
			"critical_failure": %t
		}`, stu.ID, scores, criticalFailure))
		req, rec := newAuthRequest(http.MethodPost, "/v1/evaluations", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var e evaluation.Evaluation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		return e
	}

	// 12 of 15 passes
	e := record(`"scene_management": 3, "patient_assessment": 3, "patient_management": 2, "interpersonal": 2, "integration": 2`, false)
	assert.Equal(t, 12, e.TotalScore)
	assert.True(t, e.Passed)
	assert.Equal(t, instructor.ID, e.EvaluatorID)

	// 11 of 15 fails
	e = record(`"scene_management": 3, "patient_assessment": 3, "patient_management": 2, "interpersonal": 2, "integration": 1`, false)
	assert.Equal(t, 11, e.TotalScore)
	assert.False(t, e.Passed)

	// a critical failure fails regardless of score
	e = record(`"scene_management": 3, "patient_assessment": 3, "patient_management": 3, "interpersonal": 3, "integration": 3`, true)
	assert.Equal(t, 15, e.TotalScore)
	assert.False(t, e.Passed)

	// category scores are capped at 3
	body := []byte(fmt.Sprintf(`{"student_id": %q, "scenario": "Trauma", "scene_management": 4}`, stu.ID))
	req, rec := newAuthRequest(http.MethodPost, "/v1/evaluations", token, body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func Test_evaluationApi_studentAccess(t *testing.T) {
	app := setup(t)

	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})
	stuUsr := CreateActiveUser(t, "Pat", "patmurp", "pat@test.io", "", []string{user.RoleStudent})

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	own := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat.m@test.io", coh.ID, stuUsr.ID)
	other := testutil.CreateStudent(t, stuRepo, "Lee Jones", "lee@test.io", coh.ID, "")

	ownEval, err := evalRepo.CreateEvaluation(context.Background(), evaluation.Evaluation{
		StudentID:   own.ID,
		EvaluatorID: instructor.ID,
		Scenario:    "Respiratory distress",
		TakenAt:     time.Now().UTC(),
		Scores:      evaluation.Scores{SceneManagement: 3, PatientAssessment: 3, PatientManagement: 3, Interpersonal: 2, Integration: 2},
	})
	require.NoError(t, err)
	otherEval, err := evalRepo.CreateEvaluation(context.Background(), evaluation.Evaluation{
		StudentID:   other.ID,
		EvaluatorID: instructor.ID,
		Scenario:    "Overdose",
		TakenAt:     time.Now().UTC(),
	})
	require.NoError(t, err)

	stuToken := getToken(t, stuUsr)

	// a student cannot record evaluations
	body := []byte(fmt.Sprintf(`{"student_id": %q, "scenario": "Trauma"}`, own.ID))
	req, rec := newAuthRequest(http.MethodPost, "/v1/evaluations", stuToken, body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	// listing only returns the student's own evaluations
	req, rec = newAuthRequest(http.MethodGet, "/v1/evaluations", stuToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var evals []evaluation.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evals))
	require.Len(t, evals, 1)
	assert.Equal(t, own.ID, evals[0].StudentID)

	// own evaluation is visible, someone else's is not
	req, rec = newAuthRequest(http.MethodGet, "/v1/evaluations/"+ownEval.ID, stuToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/evaluations/"+otherEval.ID, stuToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	// staff see everything
	instrToken := getToken(t, instructor)
	req, rec = newAuthRequest(http.MethodGet, "/v1/evaluations", instrToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evals))
	assert.Len(t, evals, 2)
}

func Test_evaluationApi_update(t *testing.T) {
	app := setup(t)

	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})
	token := getToken(t, instructor)

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	stu := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat@test.io", coh.ID, "")

	body := []byte(fmt.Sprintf(`{
		"student_id": %q,
		"scenario": "Multi-vehicle MVA",
		"scene_management": 2, "patient_assessment": 2, "patient_management": 2, "interpersonal": 2, "integration": 2,
		"critical_failure": false
	}`, stu.ID))
	req, rec := newAuthRequest(http.MethodPost, "/v1/evaluations", token, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var e evaluation.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.False(t, e.Passed)

	// re-scoring with scenario and critical_failure omitted keeps both,
	// and keeps the evaluation attached to its student
	req, rec = newAuthRequest(http.MethodPut, "/v1/evaluations/"+e.ID, token, []byte(`{
		"scene_management": 3, "patient_assessment": 3, "patient_management": 2, "interpersonal": 2, "integration": 2
	}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated evaluation.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, stu.ID, updated.StudentID)
	assert.Equal(t, "Multi-vehicle MVA", updated.Scenario)
	assert.Equal(t, 12, updated.TotalScore)
	assert.True(t, updated.Passed)
	assert.False(t, updated.CriticalFailure)

	// a category score above 3 is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/evaluations/"+e.ID, token, []byte(`{
		"scene_management": 9, "patient_assessment": 3, "patient_management": 2, "interpersonal": 2, "integration": 2
	}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// students cannot update evaluations
	stuUsr := CreateActiveUser(t, "Pat Murphy", "pat01", "patuser@test.io", "", []string{user.RoleStudent})
	req, rec = newAuthRequest(http.MethodPut, "/v1/evaluations/"+e.ID, getToken(t, stuUsr), []byte(`{"notes": "nope"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPut, "/v1/evaluations/00000000-0000-0000-0000-000000000000", token, []byte(`{"notes": "ghost"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}
