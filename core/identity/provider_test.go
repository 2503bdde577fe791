package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateUser(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantID       string
		wantErrMsg   string
		wantAlready  bool
		wantIdentity bool
	}{
		{name: "created", status: http.StatusOK, body: `{"id": "u-1", "email": "a@b.com"}`, wantID: "u-1"},
		{name: "already registered", status: http.StatusUnprocessableEntity, body: `{"code": 422, "msg": "A user with this email address has already been registered"}`,
			wantErrMsg: "A user with this email address has already been registered", wantAlready: true, wantIdentity: true},
		{name: "weak password", status: http.StatusUnprocessableEntity, body: `{"error_description": "Password should be at least 8 characters"}`,
			wantErrMsg: "Password should be at least 8 characters", wantIdentity: true},
		{name: "raw text", status: http.StatusInternalServerError, body: `boom`, wantErrMsg: "boom", wantIdentity: true},
		{name: "no id", status: http.StatusOK, body: `{}`, wantErrMsg: "identity provider returned no user id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got createUserRequest
			var gotKey, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, adminUsersPath, r.URL.Path)
				gotKey, gotAuth = r.Header.Get("apikey"), r.Header.Get("Authorization")
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "service-key", time.Second)
			usr, err := client.CreateUser(context.Background(), NewUser{
				Email:    "a@b.com",
				Password: "longenough",
				Metadata: Metadata{FirstName: "Amina", LastName: "Said", Role: "admin", SchoolID: json.RawMessage(`12`)},
			})

			assert.Equal(t, "service-key", gotKey)
			assert.Equal(t, "Bearer service-key", gotAuth)
			assert.True(t, got.EmailConfirm)
			assert.Equal(t, "admin", got.UserMetadata.Role)
			assert.JSONEq(t, `12`, string(got.UserMetadata.SchoolID))

			if tt.wantErrMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, usr.ID)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErrMsg, err.Error())
			assert.Equal(t, tt.wantAlready, IsAlreadyRegistered(err))

			var idErr *Error
			assert.Equal(t, tt.wantIdentity, errors.As(err, &idErr))
		})
	}
}

func TestClient_CreateUser_nullSchool(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.Unmarshal(body["user_metadata"], &raw)
		_, _ = w.Write([]byte(`{"id": "u-2"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", time.Second).CreateUser(context.Background(), NewUser{Email: "a@b.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw["school_id"]))
}

func TestClient_CreateUser_notConfigured(t *testing.T) {
	_, err := NewClient("", "k", time.Second).CreateUser(context.Background(), NewUser{})
	assert.EqualError(t, err, "identity provider URL is not configured")
	assert.False(t, IsAlreadyRegistered(err))
}
