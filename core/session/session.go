// Package session reads the caller's backend access token from the inbound request.
//
// The token is issued and stored by the auth frontend (a signed session cookie);
// this package only consumes it. A Session is read once per inbound request and
// must be passed explicitly to whatever talks to the backend.
package session

import (
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

// Session is the caller's identity as far as the backend is concerned.
// The zero value is a valid, unauthenticated session.
type Session struct {
	AccessToken string
	UserID      string
	Email       string
}

func (s Session) HasToken() bool {
	return strings.TrimSpace(s.AccessToken) != ""
}

// Accessor obtains the Session of an inbound request.
type Accessor interface {
	Session(r *http.Request) (Session, error)
}

// Claims represents the session cookie payload written by the auth frontend.
type Claims struct {
	jwt.StandardClaims
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// CookieAccessor verifies the HS256-signed session cookie and extracts the backend access token.
type CookieAccessor struct {
	CookieName string
	SecretKey  []byte
}

var _ Accessor = (*CookieAccessor)(nil)

func NewCookieAccessor(cookieName, secretKey string) *CookieAccessor {
	return &CookieAccessor{CookieName: cookieName, SecretKey: []byte(secretKey)}
}

// Session returns the empty Session with no error when the cookie is absent.
// A present but unusable cookie yields the empty Session and ErrInvalidSession | ErrExpiredSession.
func (a *CookieAccessor) Session(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(a.CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, nil
	}

	claims := new(Claims)
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.SecretKey, nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return Session{}, ErrExpiredSession
		}
		return Session{}, errors.Wrap(ErrInvalidSession, err.Error())
	}
	return Session{AccessToken: claims.AccessToken, UserID: claims.Subject, Email: claims.Email}, nil
}

// SignCookie encodes claims the way the auth frontend does; used by the admin tooling and tests.
func SignCookie(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing session cookie")
	}
	return ss, nil
}
