package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/internship"
	"github.com/medtrackhq/medtrack/core/user"
	emailsvc "github.com/medtrackhq/medtrack/services/email"
	testutil "github.com/medtrackhq/medtrack/tests"
)

func Test_internshipApi_lifecycle(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})
	adminToken := getToken(t, admin)

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC))
	stu := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat@test.io", coh.ID, "")
	prec := testutil.CreatePreceptor(t, precRepo, "Sam Medic", "sam@agency.io", "County EMS")

	// create seeds the default checklist
	body := []byte(fmt.Sprintf(`{
		"student_id": %q,
		"site": "County EMS Station 4",
		"starts_on": "2026-10-01T00:00:00Z",
		"ends_on": "2027-03-31T00:00:00Z"
	}`, stu.ID))
	req, rec := newAuthRequest(http.MethodPost, "/v1/internships", adminToken, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created internship.Internship
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, internship.StatusScheduled, created.Status)

	req, rec = newAuthRequest(http.MethodGet, "/v1/internships/"+created.ID+"/checklist", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var items []internship.ChecklistItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, len(internship.DefaultChecklist))

	// nothing completed yet => 0% complete
	req, rec = newAuthRequest(http.MethodGet, "/v1/internships/"+created.ID+"/progress", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var prog internship.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prog))
	assert.Equal(t, 0, prog.Percent)
	assert.False(t, prog.ClearedForNREMT)

	// complete every item; clearance flips with the last required one
	for _, item := range items {
		req, rec = newAuthRequest(http.MethodPut,
			"/v1/internships/"+created.ID+"/checklist/"+item.ID, adminToken, []byte(`{"completed": true}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var toggled internship.ChecklistItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
		assert.True(t, toggled.Completed)
		assert.False(t, toggled.CompletedAt.IsZero())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/internships/"+created.ID+"/progress", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prog))
	assert.Equal(t, 100, prog.Percent)
	assert.True(t, prog.ClearedForNREMT)

	// assign preceptor notifies staff
	body = []byte(fmt.Sprintf(`{"preceptor_id": %q}`, prec.ID))
	req, rec = newAuthRequest(http.MethodPut, "/v1/internships/"+created.ID+"/preceptor", adminToken, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var assigned internship.Internship
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assigned))
	assert.Equal(t, prec.ID, assigned.PreceptorID)
	require.NotEmpty(t, emailsvc.SentMessages)
	sent := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	assert.Contains(t, sent.Subject, "Preceptor")

	// admins and instructors both hear about assignments
	recipients := make([]string, 0, len(sent.To))
	for _, addr := range sent.To {
		recipients = append(recipients, addr.Address)
	}
	assert.Contains(t, recipients, admin.Email)
	assert.Contains(t, recipients, instructor.Email)

	// unassign
	req, rec = newAuthRequest(http.MethodPut, "/v1/internships/"+created.ID+"/preceptor", adminToken, []byte(`{"preceptor_id": ""}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assigned))
	assert.Empty(t, assigned.PreceptorID)
}

func Test_internshipApi_access(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	stuUsr := CreateActiveUser(t, "Pat", "patmurp", "pat@test.io", "", []string{user.RoleStudent})
	otherUsr := CreateActiveUser(t, "Lee", "leejone", "lee@test.io", "", []string{user.RoleStudent})

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	stu := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat.m@test.io", coh.ID, stuUsr.ID)
	i := testutil.CreateInternship(t, intRepo, stu.ID, "Station 4",
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 3, 31, 0, 0, 0, 0, time.UTC))

	tests := []httpTest{
		{
			name: "list is staff only", method: http.MethodGet, path: "/v1/internships", token: getToken(t, stuUsr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "owner reads own", method: http.MethodGet, path: "/v1/internships/" + i.ID, token: getToken(t, stuUsr),
			wantCode: http.StatusOK, wantData: marchallObj(t, i),
		},
		{
			name: "other student hidden", method: http.MethodGet, path: "/v1/internships/" + i.ID, token: getToken(t, otherUsr),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "staff reads all", method: http.MethodGet, path: "/v1/internships/" + i.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, i),
		},
		{
			name: "toggle is staff only", method: http.MethodPut, path: "/v1/internships/" + i.ID + "/checklist/whatever",
			token: getToken(t, stuUsr), body: []byte(`{"completed": true}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_internshipApi_exportCSV(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	stu := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat@test.io", coh.ID, "")
	testutil.CreateInternship(t, intRepo, stu.ID, "Station 4",
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 3, 31, 0, 0, 0, 0, time.UTC))

	req, rec := newAuthRequest(http.MethodGet, "/v1/internships/export", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "student,site,status,starts_on,ends_on,progress,cleared_for_nremt", lines[0])
	assert.Contains(t, lines[1], "Pat Murphy")
	assert.Contains(t, lines[1], "Station 4")
}

func Test_internshipApi_update(t *testing.T) {
	app := setup(t)

	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})
	token := getToken(t, instructor)

	coh := testutil.CreateCohort(t, cohRepo, "Fall 2026", cohort.ProgramParamedic, time.Time{}, time.Time{})
	stu := testutil.CreateStudent(t, stuRepo, "Pat Murphy", "pat@test.io", coh.ID, "")
	i := testutil.CreateInternship(t, intRepo, stu.ID, "County General ER",
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC))

	// a partial body keeps the absent fields and the student link
	req, rec := newAuthRequest(http.MethodPut, "/v1/internships/"+i.ID, token, []byte(`{"status": "in_progress"}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated internship.Internship
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, internship.StatusInProgress, updated.Status)
	assert.Equal(t, "County General ER", updated.Site)
	assert.Equal(t, stu.ID, updated.StudentID)

	// unknown status is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/internships/"+i.ID, token, []byte(`{"status": "paused"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// ending before the start date is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/internships/"+i.ID, token,
		[]byte(`{"ends_on": "2026-09-01T00:00:00Z"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPut, "/v1/internships/00000000-0000-0000-0000-000000000000", token, []byte(`{"site": "Ghost"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}
