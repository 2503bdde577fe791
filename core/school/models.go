// Package school holds the explicit result types of the backend resources the gateway proxies.
// The gateway only relies on item ids; the backend owns every other field.
package school

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// ID accepts both numeric and string identifiers and always marshals back to what it received.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Errorf("school.ID: %s is neither a number nor a string", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Record is one backend resource item. Only its id is interpreted; every other field
// is carried exactly as the backend sent it.
type Record struct {
	ID     ID
	Fields map[string]json.RawMessage
}

// UnmarshalJSON accepts any JSON object holding a numeric or string "id".
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return errors.Errorf("school.Record: expected an object, got %.32s", bytes.TrimSpace(data))
	}
	raw, ok := fields["id"]
	if !ok {
		return errors.New("school.Record: missing id")
	}
	var id ID
	if err := json.Unmarshal(raw, &id); err != nil {
		return err
	}
	if id == "" {
		return errors.New("school.Record: missing id")
	}
	r.ID, r.Fields = id, fields
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	if _, ok := out["id"]; !ok {
		id, err := json.Marshal(r.ID)
		if err != nil {
			return nil, err
		}
		out["id"] = id
	}
	return json.Marshal(out)
}

type (
	Student          struct{ Record }
	Teacher          struct{ Record }
	Class            struct{ Record }
	Subject          struct{ Record }
	AttendanceRecord struct{ Record }
	Grade            struct{ Record }
	FeePayment       struct{ Record }
	Fee              struct{ Record }
	ScheduleSlot     struct{ Record }
	Announcement     struct{ Record }
	CalendarEvent    struct{ Record }

	// School is the tenant created during registration.
	School struct{ Record }
)
