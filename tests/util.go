// Package testutil holds the fakes shared by the package tests: a scriptable backend and a test logger.
package testutil

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Logger routes core.Logger calls to the test log.
type Logger struct {
	t testing.TB
}

func NewLogger(t testing.TB) *Logger {
	return &Logger{t: t}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.t.Helper()
	if len(args) > 0 {
		l.t.Logf("[%s] %s %v", level, msg, args)
		return
	}
	l.t.Logf("[%s] %s", level, msg)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

type (
	// Request is what the fake backend received.
	Request struct {
		Method           string
		Path             string
		EscapedPath      string
		RawQuery         string
		Authorization    string
		HasAuthorization bool
		ContentType      string
		Body             []byte
	}

	Response struct {
		Status      int
		Body        string
		ContentType string
	}

	// Backend is a fake backend answering scripted responses per "METHOD /path".
	// Unscripted routes answer 404 {"detail": "Not found."}.
	Backend struct {
		*httptest.Server

		mu       sync.Mutex
		routes   map[string]Response
		requests []Request
	}
)

func NewBackend(t testing.TB) *Backend {
	b := &Backend{routes: make(map[string]Response)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

// On scripts a JSON response.
func (b *Backend) On(method, path string, status int, body string) *Backend {
	return b.OnWith(method, path, Response{Status: status, Body: body, ContentType: "application/json"})
}

func (b *Backend) OnWith(method, path string, resp Response) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = resp
	return b
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Last returns the last request received; it fails the test when there is none.
func (b *Backend) Last(t testing.TB) Request {
	t.Helper()
	reqs := b.Requests()
	if len(reqs) == 0 {
		t.Fatalf("backend received no request")
	}
	return reqs[len(reqs)-1]
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)
	auth, hasAuth := r.Header["Authorization"]
	req := Request{
		Method:           r.Method,
		Path:             r.URL.Path,
		EscapedPath:      r.URL.EscapedPath(),
		RawQuery:         r.URL.RawQuery,
		HasAuthorization: hasAuth,
		ContentType:      r.Header.Get("Content-Type"),
		Body:             body,
	}
	if hasAuth && len(auth) > 0 {
		req.Authorization = auth[0]
	}

	b.mu.Lock()
	b.requests = append(b.requests, req)
	resp, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		resp = Response{Status: http.StatusNotFound, Body: `{"detail": "Not found."}`, ContentType: "application/json"}
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	_, _ = fmt.Fprint(w, resp.Body)
}

// UnreachableURL returns the URL of a server that is already closed.
func UnreachableURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}
