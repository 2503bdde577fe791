// Package backend is the single choke point for server-to-backend HTTP calls.
//
// Every call carries the caller's Session explicitly; nothing is cached between
// calls, nothing is retried, and every failure comes back as a *Error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core/session"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderCacheControl  = "Cache-Control"
	MIMEApplicationJSON = "application/json"
)

// Multipart is an already-encoded multipart body; ContentType carries the boundary.
type Multipart struct {
	ContentType string
	Body        []byte
}

// Options are the fetch-style options of a backend call.
// Body may be nil, json.RawMessage | []byte (sent verbatim), *Multipart, or any JSON-marshalable value.
type Options struct {
	Method string
	Body   interface{}
	Query  url.Values
	Header http.Header
}

// Client talks to the backend REST service. It is safe for concurrent use and holds no per-caller state.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the given base URL; timeout bounds every single call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves a backend-relative path.
func (c *Client) URL(path string, query url.Values) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u
}

// Fetch performs one backend call and returns the parsed JSON body.
// An empty body, or a non-JSON body on a successful status, yields a nil result without error.
func (c *Client) Fetch(ctx context.Context, sess session.Session, path string, opts Options) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Message: "could not encode request body", Status: http.StatusInternalServerError, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, opts.Query), body)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Message: "could not build backend request", Status: http.StatusInternalServerError, Err: err}
	}
	for k, vals := range opts.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set(HeaderContentType, contentType)
	req.Header.Set(HeaderCacheControl, "no-store")
	if sess.HasToken() {
		req.Header.Set(HeaderAuthorization, "Bearer "+sess.AccessToken)
	} else {
		req.Header.Del(HeaderAuthorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newTransportError(c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(c.baseURL, errors.Wrap(err, "reading backend response"))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{
			Kind:    KindHTTP,
			Message: MessageFromBody(raw, resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, nil
	}
	return json.RawMessage(trimmed), nil
}

// encodeBody returns the request body and the Content-Type to send with it.
func encodeBody(body interface{}) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, MIMEApplicationJSON, nil
	case *Multipart:
		return bytes.NewReader(b.Body), b.ContentType, nil
	case json.RawMessage:
		return bytes.NewReader(b), MIMEApplicationJSON, nil
	case []byte:
		return bytes.NewReader(b), MIMEApplicationJSON, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), MIMEApplicationJSON, nil
	}
}
