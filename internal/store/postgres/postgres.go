package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"dynai/internal/models"
	"dynai/internal/store"
)

var _ store.StateStore = (*StateStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS session_state (
	name       TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// StateStore implements store.StateStore using PostgreSQL, for hosts that
// share a session view across machines.
type StateStore struct {
	db *pgxpool.Pool
}

// NewStateStore connects to dsn and ensures the session_state table exists.
func NewStateStore(ctx context.Context, dsn string) (*StateStore, error) {
	if dsn == "" {
		return nil, errors.New("database DSN cannot be empty")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database DSN: %w", err)
	}

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := dbpool.Exec(ctx, schema); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to create session_state table: %w", err)
	}

	log.Info("Connected to PostgreSQL state store.")
	return &StateStore{db: dbpool}, nil
}

func (s *StateStore) LoadState(ctx context.Context, name string) (*models.SessionState, error) {
	var state models.SessionState
	err := s.db.QueryRow(ctx, `SELECT state FROM session_state WHERE name = $1`, name).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session state %q: %w", name, err)
	}
	return &state, nil
}

func (s *StateStore) SaveState(ctx context.Context, name string, state *models.SessionState) error {
	query := `
		INSERT INTO session_state (name, session_id, state, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			state      = EXCLUDED.state,
			updated_at = now()
	`
	// pgx encodes the struct as JSON for the JSONB column
	if _, err := s.db.Exec(ctx, query, name, state.SessionID, state); err != nil {
		return fmt.Errorf("failed to save session state %q: %w", name, err)
	}
	return nil
}

func (s *StateStore) DeleteState(ctx context.Context, name string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM session_state WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete session state %q: %w", name, err)
	}
	return nil
}

func (s *StateStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *StateStore) Close() error {
	s.db.Close()
	return nil
}
