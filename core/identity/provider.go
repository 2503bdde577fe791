// Package identity provisions user accounts on the external identity provider (a GoTrue-compatible admin API).
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const adminUsersPath = "/auth/v1/admin/users"

// Provider creates identities.
type Provider interface {
	CreateUser(ctx context.Context, nu NewUser) (User, error)
}

type (
	// Metadata is stored on the identity and read back by the frontend after login.
	Metadata struct {
		FirstName string          `json:"first_name"`
		LastName  string          `json:"last_name"`
		Phone     string          `json:"phone,omitempty"`
		Role      string          `json:"role"`
		SchoolID  json.RawMessage `json:"school_id"`
	}

	NewUser struct {
		Email    string
		Password string
		Metadata Metadata
	}

	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
)

// Error is a failure reported by the identity provider.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsAlreadyRegistered reports whether the provider refused the identity because the email is taken.
// Providers word this differently ("User already registered", "A user with this email address has already been registered").
func IsAlreadyRegistered(err error) bool {
	var idErr *Error
	if !errors.As(err, &idErr) {
		return false
	}
	return strings.Contains(strings.ToLower(idErr.Message), "already")
}

// Client calls the provider's admin API with the service key.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

var _ Provider = (*Client)(nil)

func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: timeout},
	}
}

type createUserRequest struct {
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	EmailConfirm bool     `json:"email_confirm"`
	UserMetadata Metadata `json:"user_metadata"`
}

// CreateUser creates a confirmed identity. Provider refusals are returned as *Error; transport failures are wrapped.
func (c *Client) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	if c.baseURL == "" {
		return User{}, errors.New("identity provider URL is not configured")
	}
	if nu.Metadata.SchoolID == nil {
		nu.Metadata.SchoolID = json.RawMessage("null")
	}

	payload, err := json.Marshal(createUserRequest{
		Email:        nu.Email,
		Password:     nu.Password,
		EmailConfirm: true,
		UserMetadata: nu.Metadata,
	})
	if err != nil {
		return User{}, errors.Wrap(err, "encoding identity request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+adminUsersPath, bytes.NewReader(payload))
	if err != nil {
		return User{}, errors.Wrap(err, "building identity request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, errors.Wrap(err, "calling identity provider")
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return User{}, errors.Wrap(err, "reading identity response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return User{}, &Error{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	var usr User
	if err := json.Unmarshal(raw, &usr); err != nil {
		return User{}, errors.Wrap(err, "decoding identity response")
	}
	if usr.ID == "" {
		return User{}, errors.New("identity provider returned no user id")
	}
	return usr, nil
}

// errorMessage reads the fields GoTrue-compatible providers use for errors.
func errorMessage(raw []byte, status int) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, fld := range []string{"msg", "message", "error_description", "error"} {
			if s, ok := body[fld].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return fmt.Sprintf("identity provider responded with status %d", status)
}
