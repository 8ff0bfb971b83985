package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/user"
	testutil "github.com/medtrackhq/medtrack/tests"
)

func Test_cohortApi_create(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})

	body := `{
		"name": "Fall 2026",
		"program": "paramedic",
		"starts_on": "2026-09-01T00:00:00Z",
		"ends_on": "2027-06-30T00:00:00Z"
	}`

	// instructors cannot create cohorts
	req, rec := newAuthRequest(http.MethodPost, "/v1/cohorts", getToken(t, instructor), []byte(body))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	adminToken := getToken(t, admin)
	req, rec = newAuthRequest(http.MethodPost, "/v1/cohorts", adminToken, []byte(body))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created cohort.Cohort
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, cohort.ProgramParamedic, created.Program)

	// same name + program is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/cohorts", adminToken, []byte(body))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// same name under another program is fine
	req, rec = newAuthRequest(http.MethodPost, "/v1/cohorts", adminToken, []byte(`{
		"name": "Fall 2026",
		"program": "emt",
		"starts_on": "2026-09-01T00:00:00Z",
		"ends_on": "2026-12-20T00:00:00Z"
	}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// unknown program is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/cohorts", adminToken, []byte(`{
		"name": "Night Class",
		"program": "nursing",
		"starts_on": "2026-09-01T00:00:00Z",
		"ends_on": "2027-06-30T00:00:00Z"
	}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func Test_cohortApi_update(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})
	adminToken := getToken(t, admin)

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	testutil.CreateCohort(t, cohRepo, "Spring 2027", cohort.ProgramParamedic, time.Time{}, time.Time{})

	// instructors cannot update cohorts
	req, rec := newAuthRequest(http.MethodPut, "/v1/cohorts/"+coh.ID, getToken(t, instructor), []byte(`{"name": "Nope"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	// a partial body keeps the absent fields
	req, rec = newAuthRequest(http.MethodPut, "/v1/cohorts/"+coh.ID, adminToken, []byte(`{"name": "Fall 2026 A"}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated cohort.Cohort
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Fall 2026 A", updated.Name)
	assert.Equal(t, cohort.ProgramParamedic, updated.Program)

	// renaming onto another cohort of the same program is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/cohorts/"+coh.ID, adminToken, []byte(`{"name": "Spring 2027"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// re-submitting its own name is fine
	req, rec = newAuthRequest(http.MethodPut, "/v1/cohorts/"+coh.ID, adminToken, []byte(`{"name": "Fall 2026 A"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// unknown program is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/cohorts/"+coh.ID, adminToken, []byte(`{"program": "nursing"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPut, "/v1/cohorts/00000000-0000-0000-0000-000000000000", adminToken, []byte(`{"name": "Ghost"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func Test_cohortApi_destroy(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	adminToken := getToken(t, admin)

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	stu := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat@test.io", coh.ID, "")

	// a cohort with enrolled students cannot be deleted
	req, rec := newAuthRequest(http.MethodDelete, "/v1/cohorts/"+coh.ID, adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "enrolled students")

	req, rec = newAuthRequest(http.MethodDelete, "/v1/students/"+stu.ID, adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodDelete, "/v1/cohorts/"+coh.ID, adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/cohorts/"+coh.ID, adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}
