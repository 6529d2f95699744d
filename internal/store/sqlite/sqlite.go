/*
Package sqlite persists session state in a local SQLite file so that separate
CLI invocations can share one session view.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"dynai/internal/models"
	"dynai/internal/store"
)

var _ store.StateStore = (*StateStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS session_state (
	name       TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	state      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
)`

// StateStore implements store.StateStore on top of database/sql.
type StateStore struct {
	db *sql.DB
}

// NewStateStore opens (and creates if needed) the database at path. Use
// ":memory:" for a throwaway database.
func NewStateStore(ctx context.Context, path string) (*StateStore, error) {
	if path == "" {
		return nil, errors.New("sqlite state store path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite state store: %w", err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite state store: %w", err)
	}
	log.Debugf("Opened sqlite state store at %s", path)
	return &StateStore{db: db}, nil
}

func (s *StateStore) LoadState(ctx context.Context, name string) (*models.SessionState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM session_state WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session state %q: %w", name, err)
	}
	var state models.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode session state %q: %w", name, err)
	}
	return &state, nil
}

func (s *StateStore) SaveState(ctx context.Context, name string, state *models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state %q: %w", name, err)
	}
	query := `
		INSERT INTO session_state (name, session_id, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			session_id = excluded.session_id,
			state      = excluded.state,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, name, state.SessionID, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("save session state %q: %w", name, err)
	}
	return nil
}

func (s *StateStore) DeleteState(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_state WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete session state %q: %w", name, err)
	}
	return nil
}

func (s *StateStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *StateStore) Close() error {
	return s.db.Close()
}
