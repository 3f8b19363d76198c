package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/visheshvs/nexportify/internal/server"
	"github.com/visheshvs/nexportify/internal/services"
	"github.com/visheshvs/nexportify/internal/session"
	"github.com/visheshvs/nexportify/internal/shared"
)

// AuthLogin runs the PKCE authorization flow with a local callback server and
// stores the resulting session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: session store unavailable", shared.ErrAuthFailed)
	}

	auth, err := services.NewAuthenticator(
		r.config.Credentials.Spotify.ClientID,
		r.config.Credentials.Spotify.RedirectURI,
	)
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	verifier := auth.GenerateVerifier()
	authURL := auth.AuthURL(state, verifier)

	handler := server.NewCallbackHandler(auth, state, verifier)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(handler)

	redirect, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: invalid redirect URI: %v", shared.ErrMissingCredentials, err)
	}

	httpServer := &http.Server{
		Addr:    redirect.Host,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", redirect.Host)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-handler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrAuthFailed)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	if err := r.store.Save(session.New(result.Token.AccessToken)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Authentication successful\n")
}

// AuthStatus reports whether a fresh session is stored.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return r.writePlain("✗ Not authenticated\n")
	}

	_, err := r.store.Load()
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.writePlain("✗ Not authenticated\n")
	case errors.Is(err, shared.ErrTokenExpired):
		return r.writePlain("✗ Session expired, run: nexportify auth login\n")
	case err != nil:
		return err
	}

	return r.writePlain("✓ Authenticated\n")
}

// AuthLogout discards the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return r.writePlain("✓ Logged out\n")
	}
	if err := r.store.Discard(); err != nil {
		return fmt.Errorf("failed to discard session: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}
