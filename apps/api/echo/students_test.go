package echoapi

import (
	"bytes"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/trezcool/masomo-web/tests"
)

const studentsCSV = "first_name,last_name\nAmina,Said\nJean,Kabila\n"

func newImportRequest(t *testing.T, token string, withFile bool) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("class_id", "3"))
	if withFile {
		w, err := mw.CreateFormFile("file", "students.csv")
		require.NoError(t, err)
		_, err = w.Write([]byte(studentsCSV))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.AddCookie(sessionCookie(t, token))
	}
	return req, httptest.NewRecorder()
}

func TestImportStudents(t *testing.T) {
	t.Run("forwards the file without session and keeps the backend status", func(t *testing.T) {
		srv := testutil.NewBackend(t).On(http.MethodPost, "/students/import/", http.StatusMultiStatus, `{"created": 2, "errors": []}`)
		app := setup(t, srv.URL)

		req, rec := newImportRequest(t, "", true)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{wantCode: http.StatusMultiStatus, wantData: []byte(`{"created": 2, "errors": []}`)}, rec)

		last := srv.Last(t)
		assert.True(t, last.HasAuthorization)
		assert.Equal(t, "", last.Authorization)

		mediaType, params, err := mime.ParseMediaType(last.ContentType)
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		form, err := multipart.NewReader(bytes.NewReader(last.Body), params["boundary"]).ReadForm(1 << 20)
		require.NoError(t, err)
		assert.Equal(t, []string{"3"}, form.Value["class_id"])
		require.Len(t, form.File["file"], 1)
		assert.Equal(t, "students.csv", form.File["file"][0].Filename)
		f, err := form.File["file"][0].Open()
		require.NoError(t, err)
		defer f.Close()
		content, err := ioutil.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, studentsCSV, string(content))
	})

	t.Run("forwards the session token", func(t *testing.T) {
		srv := testutil.NewBackend(t).On(http.MethodPost, "/students/import/", http.StatusCreated, `{"created": 2}`)
		app := setup(t, srv.URL)

		req, rec := newImportRequest(t, "tok", true)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Bearer tok", srv.Last(t).Authorization)
	})

	t.Run("backend rejection keeps its status", func(t *testing.T) {
		srv := testutil.NewBackend(t).On(http.MethodPost, "/students/import/", http.StatusUnprocessableEntity, `{"detail": "row 3: missing last_name"}`)
		app := setup(t, srv.URL)

		req, rec := newImportRequest(t, "tok", true)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnprocessableEntity,
			wantData: marshallObj(t, httpErr{Error: "row 3: missing last_name"}),
		}, rec)
	})

	t.Run("missing file is rejected locally", func(t *testing.T) {
		srv := testutil.NewBackend(t)
		app := setup(t, srv.URL)

		req, rec := newImportRequest(t, "tok", false)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "لم يتم اختيار أي ملف"})}, rec)
		assert.Empty(t, srv.Requests())
	})

	t.Run("unreachable backend", func(t *testing.T) {
		app := setup(t, testutil.UnreachableURL())

		req, rec := newImportRequest(t, "tok", true)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "backend unreachable")
	})
}

func TestDownloadStudentsTemplate(t *testing.T) {
	srv := testutil.NewBackend(t).OnWith(http.MethodGet, "/students/import/template/", testutil.Response{
		Status:      http.StatusOK,
		Body:        "first_name,last_name,class\n",
		ContentType: "text/csv",
	})
	app := setup(t, srv.URL)

	req, rec := newRequest(t, http.MethodGet, "/api/students/import/template")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;"))
	assert.Equal(t, "first_name,last_name,class\n", rec.Body.String())
	assert.True(t, srv.Last(t).HasAuthorization)

	t.Run("backend failure", func(t *testing.T) {
		down := testutil.NewBackend(t).On(http.MethodGet, "/students/import/template/", http.StatusInternalServerError, ``)
		app := setup(t, down.URL)

		req, rec := newRequest(t, http.MethodGet, "/api/students/import/template")
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{wantCode: http.StatusInternalServerError, wantData: marshallObj(t, httpErr{Error: "Internal Server Error"})}, rec)
	})
}
