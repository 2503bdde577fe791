package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/trezcool/masomo-web/core/session"
)

// Decode deserializes a backend body into T.
// A nil body decodes to the zero T; a body that does not fit T is a KindShape error.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &Error{
			Kind:    KindShape,
			Message: fmt.Sprintf("unexpected response shape from backend: %v", err),
			Status:  http.StatusBadGateway,
			Err:     err,
		}
	}
	return out, nil
}

// FetchInto performs Fetch and decodes the result into T.
func FetchInto[T any](ctx context.Context, c *Client, sess session.Session, path string, opts Options) (T, error) {
	raw, err := c.Fetch(ctx, sess, path, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](raw)
}

// List decodes a list body. Besides bare arrays, paginated envelopes ({"results": [...]}) are accepted.
func List[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return []T{}, nil
	}
	if raw[0] == '{' {
		page, err := Decode[map[string]json.RawMessage](raw)
		if err != nil {
			return nil, err
		}
		results, ok := page["results"]
		if !ok {
			return nil, &Error{Kind: KindShape, Message: "unexpected response shape from backend: expected a list", Status: http.StatusBadGateway}
		}
		raw = results
	}
	items, err := Decode[[]T](raw)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
