package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/actions"
	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/identity"
	"github.com/trezcool/masomo-web/core/session"
	"github.com/trezcool/masomo-web/core/tenant"
	emailsvc "github.com/trezcool/masomo-web/services/email"
	testutil "github.com/trezcool/masomo-web/tests"
)

const (
	cookieName = "masomo.session-token"
	secretKey  = "secret"
)

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

type testDeps struct {
	identity identity.Provider
	mailSvc  core.EmailService
}

func setup(t *testing.T, backendURL string, deps ...testDeps) *Server {
	conf := &core.Config{
		AppName:  "Masomo",
		TestMode: true,
		Server:   core.ServerConfig{DisableReqLogs: true},
		Backend:  core.BackendConfig{URL: backendURL, Timeout: time.Second},
		Session:  core.SessionConfig{CookieName: cookieName, SecretKey: secretKey},
	}
	logger := testutil.NewLogger(t)

	var d testDeps
	if len(deps) > 0 {
		d = deps[0]
	}
	if d.identity == nil {
		d.identity = identity.NewClient(testutil.UnreachableURL(), "service-key", time.Second)
	}
	if d.mailSvc == nil {
		d.mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	client := backend.NewClient(conf.Backend.URL, conf.Backend.Timeout)
	return NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Backend:    client,
		Sessions:   session.NewCookieAccessor(cookieName, secretKey),
		TenantSvc:  tenant.NewService(client, d.identity, d.mailSvc, validate, translator, logger),
		Actions:    actions.NewRegistry(),
		Translator: translator,
	})
}

// sessionCookie signs a session cookie carrying the given backend access token.
func sessionCookie(t *testing.T, token string) *http.Cookie {
	ss, err := session.SignCookie(&session.Claims{
		StandardClaims: jwt.StandardClaims{Subject: "42", ExpiresAt: time.Now().Add(time.Hour).Unix()},
		Email:          "admin@test.cd",
		AccessToken:    token,
	}, secretKey)
	if err != nil {
		t.Fatalf("sessionCookie() failed: %v", err)
	}
	return &http.Cookie{Name: cookieName, Value: ss}
}

func newAuthRequest(t *testing.T, method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(sessionCookie(t, token))
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(t *testing.T, method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(t, method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
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
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(t, tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
