package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/medtrackhq/medtrack/apps/api/echo"
	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/audit"
	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/evaluation"
	"github.com/medtrackhq/medtrack/core/internship"
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/preceptor"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
	emailsvc "github.com/medtrackhq/medtrack/services/email"
	logsvc "github.com/medtrackhq/medtrack/services/logger"
	inmemdb "github.com/medtrackhq/medtrack/storage/database/inmem"
	testutil "github.com/medtrackhq/medtrack/tests"
)

var (
	usrRepo  user.Repository
	cohRepo  cohort.Repository
	stuRepo  student.Repository
	precRepo preceptor.Repository
	intRepo  internship.Repository
	labRepo  lab.Repository
	evalRepo evaluation.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func setup(t *testing.T) Server {
	t.Helper()
	core.Conf.TestMode = true
	core.Conf.Debug = false

	// set up DB & repos
	db := inmemdb.New()
	usrRepo = inmemdb.NewUserRepository(db)
	cohRepo = inmemdb.NewCohortRepository(db)
	stuRepo = inmemdb.NewStudentRepository(db)
	precRepo = inmemdb.NewPreceptorRepository(db)
	intRepo = inmemdb.NewInternshipRepository(db)
	labRepo = inmemdb.NewLabRepository(db)
	evalRepo = inmemdb.NewEvaluationRepository(db)

	// set up services
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := logsvc.NewStdLogger(log.Default())

	usrSvc := user.NewService(usrRepo, mailSvc)
	cohSvc := cohort.NewService(cohRepo)
	stuSvc := student.NewService(stuRepo)
	precSvc := preceptor.NewService(precRepo)
	intSvc := internship.NewService(intRepo, stuSvc, precSvc, usrSvc, mailSvc)
	labSvc := lab.NewService(labRepo, stuSvc, mailSvc)
	evalSvc := evaluation.NewService(evalRepo, stuSvc)
	auditSvc := audit.NewService(inmemdb.NewAuditRepository(db), logger)

	// set up server
	return NewServer(&Options{
		UserSvc:        usrSvc,
		CohortSvc:      cohSvc,
		StudentSvc:     stuSvc,
		PreceptorSvc:   precSvc,
		InternshipSvc:  intSvc,
		LabSvc:         labSvc,
		EvaluationSvc:  evalSvc,
		AuditSvc:       auditSvc,
		Logger:         logger,
		DisableReqLogs: true,
	})
}

func CreateActiveUser(t *testing.T, name, uname, email, pwd string, roles []string) user.User {
	t.Helper()
	return testutil.CreateUser(t, usrRepo, name, uname, email, pwd, roles, true)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
