package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrackhq/medtrack/core/preceptor"
	"github.com/medtrackhq/medtrack/core/user"
	testutil "github.com/medtrackhq/medtrack/tests"
)

func Test_preceptorApi_update(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	instructor := CreateActiveUser(t, "Instructor", "instr01", "instr@test.io", "", []string{user.RoleInstructor})
	adminToken := getToken(t, admin)

	p := testutil.CreatePreceptor(t, precRepo, "Sam Medic", "sam@agency.io", "County EMS")

	// only admins can update the directory
	req, rec := newAuthRequest(http.MethodPut, "/v1/preceptors/"+p.ID, getToken(t, instructor), []byte(`{"agency": "Nope"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	// a partial body keeps name and email
	req, rec = newAuthRequest(http.MethodPut, "/v1/preceptors/"+p.ID, adminToken, []byte(`{"agency": "Mercy Ambulance", "credential": "NRP"}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated preceptor.Preceptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Sam Medic", updated.Name)
	assert.Equal(t, "sam@agency.io", updated.Email)
	assert.Equal(t, "Mercy Ambulance", updated.Agency)
	assert.Equal(t, "NRP", updated.Credential)

	// bad email is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/preceptors/"+p.ID, adminToken, []byte(`{"email": "not-an-email"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// deactivation
	req, rec = newAuthRequest(http.MethodPut, "/v1/preceptors/"+p.ID, adminToken, []byte(`{"is_active": false}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.IsActive)
	assert.False(t, *updated.IsActive)

	req, rec = newAuthRequest(http.MethodPut, "/v1/preceptors/00000000-0000-0000-0000-000000000000", adminToken, []byte(`{"agency": "Ghost"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}
