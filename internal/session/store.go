package session

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/visheshvs/nexportify/internal/shared"
)

// Store persists the session between CLI invocations.
//
// A single-row sqlite table stands in for the browser-local storage of the
// original design: the bearer token with its issue timestamp, plus the PKCE
// verifier while a login is in flight. Nothing else is ever written here.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary initializes) the session store at path.
func Open(path string) (*Store, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}

	schema := `
		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			access_token TEXT NOT NULL,
			token_type TEXT NOT NULL,
			issued_at TIMESTAMP NOT NULL,
			verifier TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (st *Store) Close() error {
	return st.db.Close()
}

// Save upserts the single session row.
func (st *Store) Save(s *Session) error {
	query := `
		INSERT INTO session (id, access_token, token_type, issued_at, verifier)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			issued_at = excluded.issued_at,
			verifier = excluded.verifier
	`

	_, err := st.db.Exec(query, s.AccessToken, s.TokenType, s.IssuedAt, s.Verifier)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the stored session.
//
// Returns [shared.ErrNotAuthenticated] when no session has ever been saved and
// [shared.ErrTokenExpired] when the stored token is past its freshness window
// (the row is discarded in that case so the next attempt re-authenticates).
func (st *Store) Load() (*Session, error) {
	query := `SELECT access_token, token_type, issued_at, verifier FROM session WHERE id = 1`

	var (
		accessToken string
		tokenType   string
		issuedAt    time.Time
		verifier    string
	)

	err := st.db.QueryRow(query).Scan(&accessToken, &tokenType, &issuedAt, &verifier)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	s := &Session{
		AccessToken: accessToken,
		TokenType:   tokenType,
		IssuedAt:    issuedAt,
		Verifier:    verifier,
	}

	if !s.Valid() {
		if err := st.Discard(); err != nil {
			return nil, err
		}
		return nil, shared.ErrTokenExpired
	}

	return s, nil
}

// Discard deletes the stored session, ending it.
func (st *Store) Discard() error {
	if _, err := st.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to discard session: %w", err)
	}
	return nil
}
