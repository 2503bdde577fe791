package backend

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFromBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{name: "detail string", body: `{"detail": "Authentication credentials were not provided."}`, want: "Authentication credentials were not provided."},
		{name: "detail list", body: `{"detail": [{"loc": ["body", "email"], "msg": "field required"}, {"msg": "bad phone"}]}`, want: "field required; bad phone"},
		{name: "detail first", body: `{"message": "m", "detail": "d", "error": "e"}`, want: "d"},
		{name: "message before error", body: `{"error": "e", "message": "m"}`, want: "m"},
		{name: "error only", body: `{"error": "e"}`, want: "e"},
		{name: "oauth style", body: `{"error_description": "token expired"}`, want: "token expired"},
		{name: "non field errors", body: `{"non_field_errors": ["The fields class, day must make a unique set."]}`, want: "The fields class, day must make a unique set."},
		{name: "blank detail skipped", body: `{"detail": " ", "message": "m"}`, want: "m"},
		{name: "field errors sorted", body: `{"phone": ["invalid"], "email": "taken"}`, want: "email: taken"},
		{name: "string body", body: `"plain"`, want: "plain"},
		{name: "raw text", body: `Internal Server Error at /students/`, want: "Internal Server Error at /students/"},
		{name: "unknown json falls back to raw", body: `{"count": 3}`, want: `{"count": 3}`},
		{name: "empty body", body: ``, status: http.StatusNotFound, want: "Not Found"},
		{name: "empty body unknown status", body: ``, status: 599, want: "backend responded with status 599"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.status
			if status == 0 {
				status = http.StatusBadRequest
			}
			assert.Equal(t, tt.want, MessageFromBody([]byte(tt.body), status))
		})
	}
}

type student struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
}

func TestDecode(t *testing.T) {
	got, err := Decode[student](json.RawMessage(`{"id": 1, "first_name": "Amina", "extra": true}`))
	require.NoError(t, err)
	assert.Equal(t, student{ID: 1, FirstName: "Amina"}, got)

	got, err = Decode[student](nil)
	require.NoError(t, err)
	assert.Equal(t, student{}, got)

	_, err = Decode[student](json.RawMessage(`[1, 2]`))
	bErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindShape, bErr.Kind)
	assert.Equal(t, http.StatusBadGateway, bErr.Status)
}

func TestList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []student
		wantErr bool
	}{
		{name: "empty", raw: ``, want: []student{}},
		{name: "null", raw: `null`, want: []student{}},
		{name: "array", raw: `[{"id": 1}, {"id": 2}]`, want: []student{{ID: 1}, {ID: 2}}},
		{name: "paginated", raw: `{"count": 1, "results": [{"id": 3}]}`, want: []student{{ID: 3}}},
		{name: "paginated empty", raw: `{"count": 0, "results": null}`, want: []student{}},
		{name: "object without results", raw: `{"id": 1}`, wantErr: true},
		{name: "wrong item shape", raw: `["a", "b"]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := List[student](json.RawMessage(tt.raw))
			if tt.wantErr {
				bErr, ok := AsError(err)
				require.True(t, ok)
				assert.Equal(t, KindShape, bErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
