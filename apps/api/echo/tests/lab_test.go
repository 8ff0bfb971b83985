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
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
	testutil "github.com/medtrackhq/medtrack/tests"
)

func Test_labApi_registration(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	adminToken := getToken(t, admin)

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	stu1 := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat@test.io", coh.ID, "")
	stu2 := testutil.CreateStudent(t, stuRepo, "Lee Jones", "lee@test.io", coh.ID, "")
	stu3 := testutil.CreateStudent(t, stuRepo, "Max Behr", "max@test.io", coh.ID, "")

	starts := time.Now().UTC().Add(48 * time.Hour)
	sess := testutil.CreateLabSession(t, labRepo, "Airway Lab", starts, starts.Add(2*time.Hour), 2)

	register := func(studentID string) *http.Response {
		body := []byte(fmt.Sprintf(`{"student_id": %q}`, studentID))
		req, rec := newAuthRequest(http.MethodPost, "/v1/labs/"+sess.ID+"/register", adminToken, body)
		app.ServeHTTP(rec, req)
		return rec.Result()
	}

	assert.Equal(t, http.StatusCreated, register(stu1.ID).StatusCode)
	assert.Equal(t, http.StatusCreated, register(stu2.ID).StatusCode)

	// duplicate registration rejected
	assert.Equal(t, http.StatusBadRequest, register(stu1.ID).StatusCode)

	// session full
	assert.Equal(t, http.StatusBadRequest, register(stu3.ID).StatusCode)

	// roster lists registered students
	req, rec := newAuthRequest(http.MethodGet, "/v1/labs/"+sess.ID+"/roster", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var roster []student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roster))
	require.Len(t, roster, 2)

	// unregister frees a seat
	req, rec = newAuthRequest(http.MethodDelete, "/v1/labs/"+sess.ID+"/register/"+stu2.ID, adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusCreated, register(stu3.ID).StatusCode)
}

func Test_labApi_selfRegistration(t *testing.T) {
	app := setup(t)

	stuUsr := CreateActiveUser(t, "Pat", "patmurp", "pat@test.io", "", []string{user.RoleStudent})
	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	own := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat.m@test.io", coh.ID, stuUsr.ID)
	other := testutil.CreateStudent(t, stuRepo, "Lee Jones", "lee@test.io", coh.ID, "")

	starts := time.Now().UTC().Add(48 * time.Hour)
	sess := testutil.CreateLabSession(t, labRepo, "Airway Lab", starts, starts.Add(2*time.Hour), 0)
	token := getToken(t, stuUsr)

	// a student cannot register someone else
	body := []byte(fmt.Sprintf(`{"student_id": %q}`, other.ID))
	req, rec := newAuthRequest(http.MethodPost, "/v1/labs/"+sess.ID+"/register", token, body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	// but can register themselves
	body = []byte(fmt.Sprintf(`{"student_id": %q}`, own.ID))
	req, rec = newAuthRequest(http.MethodPost, "/v1/labs/"+sess.ID+"/register", token, body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func Test_labApi_sessionValidation(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	adminToken := getToken(t, admin)

	// session must end after it starts
	body := []byte(`{
		"title": "Backwards Lab",
		"starts_at": "2026-10-01T12:00:00Z",
		"ends_at": "2026-10-01T10:00:00Z"
	}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/labs", adminToken, body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	body = []byte(`{
		"title": "Cardiology Lab",
		"topic": "12-lead interpretation",
		"starts_at": "2026-10-01T10:00:00Z",
		"ends_at": "2026-10-01T12:00:00Z",
		"capacity": 12
	}`)
	req, rec = newAuthRequest(http.MethodPost, "/v1/labs", adminToken, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created lab.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 12, created.Capacity)
}

func Test_labApi_update(t *testing.T) {
	app := setup(t)

	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})
	token := getToken(t, instructor)

	starts := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	s := testutil.CreateLabSession(t, labRepo, "Airway Lab", starts, starts.Add(3*time.Hour), 2)

	// a partial body keeps the absent fields, capacity included
	req, rec := newAuthRequest(http.MethodPut, "/v1/labs/"+s.ID, token, []byte(`{"title": "Advanced Airway Lab"}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated lab.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Advanced Airway Lab", updated.Title)
	assert.Equal(t, 2, updated.Capacity)
	assert.True(t, updated.StartsAt.Equal(starts))

	// negative capacity is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/labs/"+s.ID, token, []byte(`{"capacity": -1}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// ending before it starts is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/labs/"+s.ID, token,
		[]byte(`{"ends_at": "2026-10-05T08:00:00Z"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// students cannot update sessions
	stuUsr := CreateActiveUser(t, "Pat Murphy", "pat01", "pat@test.io", "", []string{user.RoleStudent})
	req, rec = newAuthRequest(http.MethodPut, "/v1/labs/"+s.ID, getToken(t, stuUsr), []byte(`{"title": "Nope"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPut, "/v1/labs/00000000-0000-0000-0000-000000000000", token, []byte(`{"title": "Ghost"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}
