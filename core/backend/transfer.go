package backend

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/trezcool/masomo-web/core/session"
)

// TransferRequest describes a binary call (file upload, file download) that bypasses JSON handling.
type TransferRequest struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
	Accept      string
}

// Transfer performs a direct backend call and hands back the raw response; the caller must close its Body.
// Authorization is always forwarded: "Bearer <token>" with a session, an empty header without.
// Only transport failures become errors; the backend status is the caller's to interpret.
func (c *Client) Transfer(ctx context.Context, sess session.Session, tr TransferRequest) (*http.Response, error) {
	method := tr.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(tr.Path, tr.Query), tr.Body)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Message: "could not build backend request", Status: http.StatusInternalServerError, Err: err}
	}

	auth := ""
	if sess.HasToken() {
		auth = "Bearer " + sess.AccessToken
	}
	req.Header[HeaderAuthorization] = []string{auth}
	if tr.ContentType != "" {
		req.Header.Set(HeaderContentType, tr.ContentType)
	}
	if tr.Accept != "" {
		req.Header.Set("Accept", tr.Accept)
	}
	req.Header.Set(HeaderCacheControl, "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newTransportError(c.baseURL, err)
	}
	return resp, nil
}
