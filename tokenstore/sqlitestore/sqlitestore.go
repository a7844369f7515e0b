// Package sqlitestore persists the session token pair in a SQLite database,
// for hosts where several portal tools share one state file.
package sqlitestore

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/tourstack/go-portal-client/session"

	_ "modernc.org/sqlite"
)

var _ session.Store = (*Store)(nil)

// Store is a SQLite-backed session.Store. The token pair lives in a single
// fixed row so Save is always a wholesale replacement.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and runs the schema
// migration.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("[sqlitestore.New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.New] create data dir")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.New] open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.New] ping database")
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session_tokens (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.New] migrate")
	}

	return &Store{db: db}, nil
}

// Load returns the stored token pair, or a zero pair when none is stored.
func (s *Store) Load() (session.TokenPair, error) {
	var tokens session.TokenPair
	err := s.db.QueryRow(
		`SELECT access_token, refresh_token FROM session_tokens WHERE id = 1`,
	).Scan(&tokens.Access, &tokens.Refresh)
	if errors.Is(err, sql.ErrNoRows) {
		return session.TokenPair{}, nil
	}
	if err != nil {
		return session.TokenPair{}, errors.Wrap(err, "[Store.Load] query tokens")
	}
	return tokens, nil
}

// Save replaces the stored token pair.
func (s *Store) Save(tokens session.TokenPair) error {
	_, err := s.db.Exec(`
		INSERT INTO session_tokens (id, access_token, refresh_token, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = CURRENT_TIMESTAMP
	`, tokens.Access, tokens.Refresh)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] upsert tokens")
	}
	return nil
}

// Clear removes the stored token pair. Clearing an empty store succeeds.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session_tokens WHERE id = 1`); err != nil {
		return errors.Wrap(err, "[Store.Clear] delete tokens")
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
