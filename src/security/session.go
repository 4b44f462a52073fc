package security

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// CredentialVerifier checks a username/secret pair. model.UserStore is the
// production implementation.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, secret string) bool
}

type SessionState int

const (
	LoggedOut SessionState = iota
	LoggedIn
)

func (s SessionState) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// Session is the authentication state of one dashboard user. The zero value
// is logged out.
type Session struct {
	State    SessionState
	Username string
	TokenID  string
}

// Login moves the session to LoggedIn when the verifier accepts the pair.
// On failure the session stays (or becomes) logged out.
func (s *Session) Login(ctx context.Context, verifier CredentialVerifier, username, secret string) error {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" || verifier == nil || !verifier.Verify(ctx, username, secret) {
		s.Logout()
		return ErrInvalidCredentials
	}
	s.State = LoggedIn
	s.Username = username
	return nil
}

func (s *Session) Logout() {
	*s = Session{}
}

func (s Session) Authorized() bool {
	return s.State == LoggedIn && s.Username != ""
}

// SessionFromClaims rebuilds a logged-in session from a validated token.
func SessionFromClaims(c *Claims) Session {
	if c == nil || c.Subject == "" {
		return Session{}
	}
	return Session{State: LoggedIn, Username: c.Subject, TokenID: c.ID}
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by the auth middleware, or a
// logged-out one.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}
