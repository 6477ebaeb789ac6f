package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/sms/apps/api/echo"
	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/access"
	"github.com/trezcool/sms/core/session"
	"github.com/trezcool/sms/core/user"
	inmemdb "github.com/trezcool/sms/storage/database/inmem"
	inmemsession "github.com/trezcool/sms/storage/session/inmem"
	testutil "github.com/trezcool/sms/tests"
)

const sessionCookie = "sessionid"

type httpTest struct {
	name         string
	method       string
	path         string
	body         []byte
	cookie       *http.Cookie
	wantCode     int
	wantData     []byte
	wantLocation string
}

type fixtures struct {
	app      echoapi.Server
	conf     *core.Config
	repo     user.Repository
	sessions session.Store

	admin, staff, student, inactive user.User
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "SMS",
		SecretKey: "not-so-secret",
		Server: core.ServerConfig{
			DisableReqLogs:         true,
			SessionCookie:          sessionCookie,
			SessionExpirationDelta: time.Hour,
		},
		Paths: core.PathsConfig{
			Login:       "/login/",
			AdminHome:   "/admin_home/",
			StaffHome:   "/staff_home/",
			StudentHome: "/student_home/",
		},
	}
}

func setup(t *testing.T) *fixtures {
	t.Helper()

	conf := newTestConfig()
	repo := inmemdb.NewUserRepository()
	sessions := inmemsession.NewStore()
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator()

	f := &fixtures{
		conf:     conf,
		repo:     repo,
		sessions: sessions,
		app: echoapi.NewServer(echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    user.NewService(repo, validate, logger),
			Sessions:   sessions,
			Validate:   validate,
			Translator: translator,
		}),
	}
	f.admin = testutil.CreateUser(t, repo, "Qasim", "", "qasim@admin.com", "admin", access.Admin, true)
	f.staff = testutil.CreateUser(t, repo, "Bill", "Gates", "bill@ms.com", "123", access.Staff, true)
	f.student = testutil.CreateUser(t, repo, "Ali", "Raza", "ali@nu.edu.pk", "123", access.Student, true)
	f.inactive = testutil.CreateUser(t, repo, "N", "Dog", "ndog@nu.edu.pk", "123", access.Student, false)
	return f
}

// cookieFor returns a session cookie of usr, as set on login.
func (f *fixtures) cookieFor(t *testing.T, usr user.User) *http.Cookie {
	t.Helper()
	token, err := echoapi.GenerateToken(echoapi.NewClaims(usr, f.conf), f.conf.SecretKey)
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func (f *fixtures) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, tt.path, bytes.NewReader(tt.body))
	if len(tt.body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if tt.cookie != nil {
		req.AddCookie(tt.cookie)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func (f *fixtures) postForm(path string, form url.Values, cookie ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookie {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func pageData(t *testing.T, name string, module access.Module, usr *user.User) []byte {
	resp := echoapi.PageResponse{Page: name, Module: module.String()}
	if usr != nil {
		resp.User = &echoapi.PrincipalInfo{Email: usr.Email, UserType: usr.UserType}
	}
	return marshalObj(t, resp)
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantLocation != "" {
		if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
			t.Errorf("failed! location = %q; wantLocation %q", loc, tt.wantLocation)
		}
	}
	if tt.wantData != nil {
		ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
		if err != nil {
			t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
		}
		if !ok {
			t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
		}
	}
}
