// Package services implements the Spotify Web API client used by the
// aggregation pipeline.
//
// # Fetch semantics
//
// Every request goes through [Client.fetch], which classifies responses into
// the failure taxonomy the rest of the system relies on:
//
//   - 2xx: decoded into a typed payload
//   - 401: [shared.ErrTokenExpired], terminal for the session
//   - 403: [shared.ErrForbidden], terminal except that the aggregator
//     degrades the audio-features resource to placeholders
//   - 429: retried after the server-supplied Retry-After, by default without
//     a cap (the provider is expected to eventually honor the request)
//   - 502: retried with a linearly growing delay up to the configured budget
//   - anything else: [StatusError] carrying the numeric status
//
// Retries are a loop with an injected sleep function, never recursion, and a
// caller-supplied stagger delay applies only to a request's first attempt.
//
// # Resources
//
// Typed fetchers cover the user profile, playlist and saved-track pages,
// playlist track pages, and the three batch lookups (artists ≤50, albums ≤20,
// audio features ≤100). [Catalog] abstracts these for the engine and tests.
//
// [Authenticator] performs the OAuth2 + PKCE handshake that produces the
// session token the client requires.
package services
