// package session holds the authenticated user's short-lived credentials.
//
// The original design kept the bearer token and PKCE verifier in global
// browser-local storage; here they live on an explicit Session object created
// at login, passed to every component that needs authentication, and destroyed
// at logout or when expiry is detected.
package session

import (
	"time"

	"github.com/visheshvs/nexportify/internal/shared"
)

// Freshness is how long an issued bearer token is trusted before the user is
// sent back through the authorization flow.
const Freshness = time.Hour

// Session carries the credentials for one authenticated run.
type Session struct {
	AccessToken string
	TokenType   string
	IssuedAt    time.Time

	// Verifier is the transient PKCE secret. It is only meaningful between
	// the authorize redirect and the code exchange.
	Verifier string
}

// New creates a Session issued now with the given bearer token.
func New(accessToken string) *Session {
	return &Session{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		IssuedAt:    time.Now(),
	}
}

// Valid reports whether the session holds a token inside the freshness window.
func (s *Session) Valid() bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return time.Since(s.IssuedAt) < Freshness
}

// Token returns the bearer token, or [shared.ErrNotAuthenticated] /
// [shared.ErrTokenExpired] when the session cannot authorize a request.
func (s *Session) Token() (string, error) {
	if s == nil || s.AccessToken == "" {
		return "", shared.ErrNotAuthenticated
	}
	if !s.Valid() {
		return "", shared.ErrTokenExpired
	}
	return s.AccessToken, nil
}
