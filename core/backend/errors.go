package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// Kind is a machine-readable category of a backend failure.
type Kind string

const (
	KindUnreachable Kind = "unreachable" // nothing listening at the backend address
	KindTimeout     Kind = "timeout"
	KindNetwork     Kind = "network"
	KindHTTP        Kind = "http"  // the backend answered with a failing status
	KindShape       Kind = "shape" // the backend answered with an unexpected body
	KindRequest     Kind = "request"
)

// Error is the normalized shape every backend failure collapses to before crossing a layer boundary.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError returns the normalized *Error wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr, true
	}
	return nil, false
}

// IsUnreachable reports whether err means the backend process could not be reached at all.
func IsUnreachable(err error) bool {
	bErr, ok := AsError(err)
	return ok && bErr.Kind == KindUnreachable
}

func newTransportError(baseURL string, err error) *Error {
	switch {
	case isTimeoutError(err):
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("backend at %s did not respond in time", baseURL),
			Status:  http.StatusGatewayTimeout,
			Err:     err,
		}
	case isConnectionRefusedError(err), isDNSError(err):
		return &Error{
			Kind:    KindUnreachable,
			Message: fmt.Sprintf("backend unreachable at %s: make sure the backend service is running", baseURL),
			Status:  http.StatusServiceUnavailable,
			Err:     err,
		}
	default:
		return &Error{
			Kind:    KindNetwork,
			Message: fmt.Sprintf("network error while calling the backend: %v", err),
			Status:  http.StatusBadGateway,
			Err:     err,
		}
	}
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// message fields checked in order on a failing response body
var messageFields = []string{"detail", "message", "error", "error_description", "non_field_errors"}

// MessageFromBody extracts a human-readable message from a failing response body.
// It checks the conventional fields in order, then the first field error ("field: msg"),
// then falls back to the raw text and finally to the status text.
func MessageFromBody(raw []byte, status int) string {
	var body interface{}
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := messageFromValue(body); msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("backend responded with status %d", status)
}

func messageFromValue(body interface{}) string {
	switch v := body.(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		return joinMessages(v)
	case map[string]interface{}:
		for _, fld := range messageFields {
			if msg := messageFromValue(v[fld]); msg != "" {
				return msg
			}
		}
		// field errors, eg: {"email": ["already exists"]}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if msg := fieldMessage(v[k]); msg != "" {
				return k + ": " + msg
			}
		}
	}
	return ""
}

// fieldMessage only accepts the shapes used for per-field errors.
func fieldMessage(val interface{}) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		return joinMessages(v)
	}
	return ""
}

// joinMessages handles both ["msg", ...] and [{"msg": "..."}, ...] (validation error lists).
func joinMessages(items []interface{}) string {
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case string:
			if s := strings.TrimSpace(it); s != "" {
				msgs = append(msgs, s)
			}
		case map[string]interface{}:
			for _, key := range []string{"msg", "message", "detail"} {
				if s, ok := it[key].(string); ok && strings.TrimSpace(s) != "" {
					msgs = append(msgs, strings.TrimSpace(s))
					break
				}
			}
		}
	}
	return strings.Join(msgs, "; ")
}
