package store

import (
	"context"

	"dynai/internal/models"
)

// Supported state drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// --- State Store ---

// StateStore persists exported session state between process runs, keyed by
// session name.
type StateStore interface {
	// LoadState returns ErrNotFound when no state was saved under name.
	LoadState(ctx context.Context, name string) (*models.SessionState, error)
	SaveState(ctx context.Context, name string, state *models.SessionState) error
	DeleteState(ctx context.Context, name string) error

	Ping(ctx context.Context) error
	Close() error
}
