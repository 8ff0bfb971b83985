package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
	testutil "github.com/medtrackhq/medtrack/tests"
)

func Test_studentApi_retrieveSelf(t *testing.T) {
	app := setup(t)

	stuUsr := CreateActiveUser(t, "Pat", "patmurp", "pat@test.io", "", []string{user.RoleStudent})
	orphanUsr := CreateActiveUser(t, "Sam", "samlee", "sam@test.io", "", []string{user.RoleStudent})

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	own := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat.m@test.io", coh.ID, stuUsr.ID)

	req, rec := newAuthRequest(http.MethodGet, "/v1/students/me", getToken(t, stuUsr))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var me student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, own.ID, me.ID)
	assert.Equal(t, student.StatusActive, me.Status)

	// no student record linked to this account
	req, rec = newAuthRequest(http.MethodGet, "/v1/students/me", getToken(t, orphanUsr))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func Test_studentApi_update(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	adminToken := getToken(t, admin)

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	stu := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat@test.io", coh.ID, "")

	// bogus status is rejected
	req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+stu.ID, adminToken, []byte(`{"status": "expelled"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPut, "/v1/students/"+stu.ID, adminToken, []byte(`{"status": "graduated", "phone": "555-0142"}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, student.StatusGraduated, updated.Status)
	assert.Equal(t, "555-0142", updated.Phone)
	assert.Equal(t, "Pat Murphy", updated.Name)

	// duplicate email is rejected on create
	body := []byte(fmt.Sprintf(`{"name": "Other", "email": "pat@test.io", "cohort_id": %q}`, coh.ID))
	req, rec = newAuthRequest(http.MethodPost, "/v1/students", adminToken, body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}
