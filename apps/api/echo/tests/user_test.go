package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrackhq/medtrack/core/user"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := CreateActiveUser(t, "Jane Doe", "janedoe", "jane@test.io", "Sup3rS3cret!", nil)
	inactive := CreateActiveUser(t, "Gone Guy", "goneguy", "gone@test.io", "Sup3rS3cret!", nil)
	_, err := usrRepo.UpdateUser(context.Background(), user.User{ID: inactive.ID}, bPtr(false))
	require.NoError(t, err)

	tests := []httpTest{
		{
			name: "empty credentials", method: http.MethodPost, path: "/v1/users/login",
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"username": "nobody", "password": "Sup3rS3cret!"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(fmt.Sprintf(`{"username": %q, "password": "nope"}`, usr.Username)),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(fmt.Sprintf(`{"username": %q, "password": "Sup3rS3cret!"}`, inactive.Username)),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login by username", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(fmt.Sprintf(`{"username": %q, "password": "Sup3rS3cret!"}`, usr.Username)),
			wantCode: http.StatusOK,
		},
		{
			name: "login by email", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(fmt.Sprintf(`{"username": %q, "password": "Sup3rS3cret!"}`, usr.Email)),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var res struct {
					Token string `json:"token"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.NotEmpty(t, res.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	stud := CreateActiveUser(t, "Student", "studen1", "student@test.io", "", []string{user.RoleStudent})

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", method: http.MethodGet, path: "/v1/users", token: getToken(t, stud),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "get all", method: http.MethodGet, path: "/v1/users", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, admin, stud),
		},
		{
			name: "filter by role", method: http.MethodGet, path: "/v1/users?role=student:", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, stud),
		},
		{
			name: "search", method: http.MethodGet, path: "/v1/users?search=admin", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, admin),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	adminToken := getToken(t, admin)

	t.Run("cannot grant roles above own", func(t *testing.T) {
		body := []byte(`{
			"name": "New Director",
			"username": "direct1",
			"email": "director@test.io",
			"password": "Sup3rS3cret!",
			"password_confirm": "Sup3rS3cret!",
			"roles": ["admin:director"]
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", adminToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "not enough rights")
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		body := []byte(`{
			"name": "Copy Cat",
			"username": "admin01",
			"email": "copycat@test.io",
			"password": "Sup3rS3cret!",
			"password_confirm": "Sup3rS3cret!"
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", adminToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("created", func(t *testing.T) {
		body := []byte(`{
			"name": "New Instructor",
			"username": "instruc1",
			"email": "instructor@test.io",
			"password": "Sup3rS3cret!",
			"password_confirm": "Sup3rS3cret!",
			"roles": ["instructor:"]
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "instruc1", created.Username)
		assert.True(t, created.IsInstructor())
	})
}

func Test_userApi_detail(t *testing.T) {
	app := setup(t)

	admin := CreateActiveUser(t, "Admin", "admin01", "admin@test.io", "", []string{user.RoleAdmin})
	stud := CreateActiveUser(t, "Student", "studen1", "student@test.io", "", []string{user.RoleStudent})
	other := CreateActiveUser(t, "Other", "other01", "other@test.io", "", []string{user.RoleStudent})

	tests := []httpTest{
		{
			name: "self retrieve", method: http.MethodGet, path: "/v1/users/" + stud.ID, token: getToken(t, stud),
			wantCode: http.StatusOK, wantData: marchallObj(t, stud),
		},
		{
			name: "admin retrieve", method: http.MethodGet, path: "/v1/users/" + stud.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, stud),
		},
		{
			name: "peer retrieve hidden", method: http.MethodGet, path: "/v1/users/" + stud.ID, token: getToken(t, other),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "self role escalation forbidden", method: http.MethodPut, path: "/v1/users/" + stud.ID,
			token: getToken(t, stud), body: []byte(`{"roles": ["admin:"]}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "delete self forbidden", method: http.MethodDelete, path: "/v1/users/" + admin.ID,
			token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin delete", method: http.MethodDelete, path: "/v1/users/" + other.ID,
			token: getToken(t, admin), wantCode: http.StatusNoContent,
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

func bPtr(b bool) *bool { return &b }
