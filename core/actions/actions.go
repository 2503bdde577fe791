// Package actions implements the form-submission entry points used by rendered pages.
// Each action wraps exactly one backend call into a Result envelope; failures never escape as errors.
package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/school"
	"github.com/trezcool/masomo-web/core/session"
)

const (
	// ErrMissingID is the message of update/delete actions invoked without an id.
	ErrMissingID = "id is required"
	ErrInvalidID = "invalid id"
)

// Result is {success: true, data} | {success: false, error}.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func OK(data interface{}) Result {
	return Result{Success: true, Data: data}
}

func Fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Run performs one backend call. On success the backend body is the data, as received.
func Run(ctx context.Context, c *backend.Client, sess session.Session, path string, opts backend.Options) Result {
	raw, err := c.Fetch(ctx, sess, path, opts)
	if err != nil {
		if bErr, ok := backend.AsError(err); ok {
			return Fail(bErr.Message)
		}
		return Fail(err.Error())
	}
	if len(raw) == 0 {
		return OK(nil)
	}
	return OK(raw)
}

type (
	// Action is a named form submission bound to one backend endpoint.
	Action struct {
		Name   string
		Method string
		Path   string // collection path; the id is appended when NeedsID
		// NeedsID actions read the target id from the payload's "id" field.
		NeedsID bool
	}

	// Payload is the plain object submitted by the page.
	Payload map[string]json.RawMessage
)

// ID returns the payload's "id", or "" when absent, null or blank.
func (p Payload) ID() string {
	raw, ok := p["id"]
	if !ok {
		return ""
	}
	var id school.ID
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return strings.TrimSpace(string(id))
}

// Execute runs the action with the given session and payload.
// The id is escaped into a single path segment of the action's collection.
func (a Action) Execute(ctx context.Context, c *backend.Client, sess session.Session, payload Payload) Result {
	path := a.Path
	if a.NeedsID {
		id := payload.ID()
		switch id {
		case "":
			return Fail(ErrMissingID)
		case ".", "..":
			return Fail(ErrInvalidID)
		}
		path = strings.TrimRight(path, "/") + "/" + url.PathEscape(id) + "/"
	}

	opts := backend.Options{Method: a.Method}
	if a.Method != http.MethodDelete && a.Method != http.MethodGet {
		if payload == nil {
			payload = Payload{}
		}
		opts.Body = payload
	}
	return Run(ctx, c, sess, path, opts)
}

// Registry holds the actions by name.
type Registry map[string]Action

func (r Registry) add(a Action) {
	r[a.Name] = a
}

// Lookup returns the named action.
func (r Registry) Lookup(name string) (Action, bool) {
	a, ok := r[name]
	return a, ok
}

// Names returns the sorted action names.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// crud registers create<Resource>, update<Resource> and delete<Resource>.
func crud(r Registry, resource, path string) {
	r.add(Action{Name: "create" + resource, Method: http.MethodPost, Path: path})
	r.add(Action{Name: "update" + resource, Method: http.MethodPut, Path: path, NeedsID: true})
	r.add(Action{Name: "delete" + resource, Method: http.MethodDelete, Path: path, NeedsID: true})
}

// NewRegistry returns every action available to pages.
func NewRegistry() Registry {
	r := make(Registry)
	crud(r, "Student", "/students/")
	crud(r, "Teacher", "/teachers/")
	crud(r, "Class", "/classes/")
	crud(r, "Subject", "/subjects/")
	crud(r, "Announcement", "/announcements/")
	crud(r, "Event", "/calendar/events/")

	r.add(Action{Name: "recordAttendance", Method: http.MethodPost, Path: "/attendance/bulk/"})
	r.add(Action{Name: "saveGrades", Method: http.MethodPost, Path: "/grades/bulk/"})
	r.add(Action{Name: "saveSchedule", Method: http.MethodPost, Path: "/schedule/bulk/"})
	r.add(Action{Name: "recordPayment", Method: http.MethodPost, Path: "/finance/payments/"})
	return r
}
