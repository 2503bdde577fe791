package echoapi

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-web/core/identity"
	emailsvc "github.com/trezcool/masomo-web/services/email"
	testutil "github.com/trezcool/masomo-web/tests"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	usr   identity.User
	err   error
}

func (p *fakeProvider) CreateUser(context.Context, identity.NewUser) (identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.usr, p.err
}

const validRegistration = `{
	"school_name": "Lycée Wima",
	"admin_first_name": "Amina",
	"admin_last_name": "Said",
	"email": "a@b.com",
	"password": "longenough",
	"phone": "+243000000",
	"city": "Bukavu"
}`

func TestRegister(t *testing.T) {
	tests := []struct {
		httpTest
		schoolStatus int
		schoolBody   string
		provider     *fakeProvider
		wantBackend  int
		wantIdentity int
		wantMails    int
	}{
		{
			httpTest: httpTest{
				name:     "short password",
				body:     []byte(`{"email": "a@b.com", "password": "short"}`),
				wantCode: http.StatusBadRequest,
				wantData: marshallObj(t, httpErr{Error: "كلمة المرور قصيرة جداً"}),
			},
			provider: &fakeProvider{},
		},
		{
			httpTest: httpTest{
				name:     "invalid json",
				body:     []byte(`{"email": `),
				wantCode: http.StatusBadRequest,
				wantData: marshallObj(t, httpErr{Error: "بيانات الطلب غير صالحة"}),
			},
			provider: &fakeProvider{},
		},
		{
			httpTest: httpTest{
				name:     "success",
				body:     []byte(validRegistration),
				wantCode: http.StatusOK,
				wantData: []byte(`{"status": "success", "user_id": "u-1", "school_id": 12, "message": "تم إنشاء حساب المدرسة بنجاح"}`),
			},
			schoolStatus: http.StatusCreated,
			schoolBody:   `{"id": 12}`,
			provider:     &fakeProvider{usr: identity.User{ID: "u-1"}},
			wantBackend:  1,
			wantIdentity: 1,
			wantMails:    1,
		},
		{
			httpTest: httpTest{
				name:     "school provisioning failure",
				body:     []byte(validRegistration),
				wantCode: http.StatusOK,
				wantData: []byte(`{"status": "success", "user_id": "u-1", "school_id": null, "message": "تم إنشاء حساب المدرسة بنجاح"}`),
			},
			schoolStatus: http.StatusInternalServerError,
			schoolBody:   `{"detail": "boom"}`,
			provider:     &fakeProvider{usr: identity.User{ID: "u-1"}},
			wantBackend:  1,
			wantIdentity: 1,
			wantMails:    1,
		},
		{
			httpTest: httpTest{
				name:     "already registered",
				body:     []byte(validRegistration),
				wantCode: http.StatusConflict,
				wantData: marshallObj(t, httpErr{Error: "البريد الإلكتروني مسجل مسبقاً"}),
			},
			schoolStatus: http.StatusCreated,
			schoolBody:   `{"id": 12}`,
			provider:     &fakeProvider{err: &identity.Error{Status: http.StatusUnprocessableEntity, Message: "User already registered"}},
			wantBackend:  1,
			wantIdentity: 1,
		},
		{
			httpTest: httpTest{
				name:     "other provider error",
				body:     []byte(validRegistration),
				wantCode: http.StatusBadRequest,
				wantData: marshallObj(t, httpErr{Error: "Signups not allowed for this instance"}),
			},
			schoolStatus: http.StatusCreated,
			schoolBody:   `{"id": 12}`,
			provider:     &fakeProvider{err: &identity.Error{Status: http.StatusForbidden, Message: "Signups not allowed for this instance"}},
			wantBackend:  1,
			wantIdentity: 1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewBackend(t)
			if tt.schoolStatus != 0 {
				srv.On(http.MethodPost, "/schools/register/", tt.schoolStatus, tt.schoolBody)
			}
			app := setup(t, srv.URL, testDeps{identity: tt.provider})
			emailsvc.ResetSent()

			req, rec := newRequest(t, http.MethodPost, "/api/register", tt.body)
			app.ServeHTTP(rec, req)

			checkCodeAndData(t, tt.httpTest, rec)
			assert.Len(t, srv.Requests(), tt.wantBackend)
			assert.Equal(t, tt.wantIdentity, tt.provider.calls)
			if sent := emailsvc.Sent(); assert.Len(t, sent, tt.wantMails) && tt.wantMails > 0 {
				assert.Equal(t, "a@b.com", sent[0].To[0].Address)
				assert.Contains(t, sent[0].TextContent, "Lycée Wima")
			}
		})
	}
}
