package services

import (
	"context"
	"fmt"

	"github.com/visheshvs/nexportify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Authenticator drives the OAuth2 authorization-code flow with PKCE.
//
// PKCE binds the code exchange to a locally generated verifier, so no client
// secret is required: the CLI only needs the application's client id.
type Authenticator struct {
	config *oauth2.Config
}

// NewAuthenticator creates an Authenticator for the registered application.
func NewAuthenticator(clientID, redirectURI string) (*Authenticator, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Authenticator{config: config}, nil
}

// Config exposes the underlying OAuth2 configuration for the callback server.
func (a *Authenticator) Config() *oauth2.Config {
	return a.config
}

// GenerateVerifier returns a fresh PKCE verifier string.
func (a *Authenticator) GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthURL builds the authorize URL carrying the S256 challenge for verifier.
func (a *Authenticator) AuthURL(state, verifier string) string {
	return a.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code (plus the verifier that produced the
// challenge) for a token.
func (a *Authenticator) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}
