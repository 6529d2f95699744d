package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"dynai/internal/config"
	"dynai/internal/models"
	"dynai/internal/predictor"
	"dynai/internal/services"
	"dynai/internal/store"
	"dynai/internal/store/memory"
	"dynai/internal/store/postgres"
	"dynai/internal/store/sqlite"
)

type App struct {
	// lifecycle serializes attach, persist and shutdown so saved state and
	// the attached session never diverge.
	lifecycle sync.Mutex

	Config     *config.Config
	Predictor  predictor.Predictor
	StateStore store.StateStore
	Sessions   *services.SessionManager
}

// NewApp wires the predictor transport, the configured state store and the
// session manager.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if err := app.initStateStore(ctx); err != nil {
		return nil, err
	}
	app.initPredictor()
	app.initSessionManager()

	log.Debugf("Application initialized (state driver %s)", cfg.State.Driver)
	return app, nil
}

// NewAppWith builds an App around an existing predictor and state store.
func NewAppWith(cfg *config.Config, p predictor.Predictor, ss store.StateStore) *App {
	app := &App{Config: cfg, Predictor: p, StateStore: ss}
	app.initSessionManager()
	return app
}

// --- Private Helper Methods ---

func (a *App) initStateStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.State.Driver {
	case store.DriverMemory:
		a.StateStore = memory.NewStateStore()
	case store.DriverSQLite:
		path, err := config.ResolveStatePath(cfg.State.DSN)
		if err != nil {
			return fmt.Errorf("init state store: %w", err)
		}
		ss, err := sqlite.NewStateStore(ctx, path)
		if err != nil {
			return fmt.Errorf("init state store: %w", err)
		}
		a.StateStore = ss
	case store.DriverPostgres:
		ss, err := postgres.NewStateStore(ctx, cfg.State.DSN)
		if err != nil {
			return fmt.Errorf("init state store: %w", err)
		}
		a.StateStore = ss
	default:
		return fmt.Errorf("%w: %s", store.ErrUnknownDriver, cfg.State.Driver)
	}
	return nil
}

func (a *App) initPredictor() {
	cfg := a.Config.Predictor
	a.Predictor = predictor.NewHTTPPredictor(cfg.Endpoint, cfg.Timeout, cfg.Headers)
}

func (a *App) initSessionManager() {
	cfg := a.Config
	a.Sessions = services.NewSessionManager(services.Options{
		SecurityGroup: cfg.Predictor.SecurityGroup,
		RetryStrategy: &predictor.SimpleRetryStrategy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		Similarity: services.SimilarityParams{
			AccuracyLimit: cfg.Similarity.AccuracyLimit,
			BlockLimit:    cfg.Similarity.BlockLimit,
		},
		PredictThreshold: cfg.Similarity.PredictThreshold,
	})
}

// Session returns the attached session, attaching one on first use. Saved
// state for the configured session name is loaded when present.
func (a *App) Session(ctx context.Context) (*services.Session, error) {
	if s, err := a.Sessions.Current(); err == nil {
		return s, nil
	}

	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	if s, err := a.Sessions.Current(); err == nil {
		return s, nil
	}

	name := a.Config.Session.Name
	st, err := a.StateStore.LoadState(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Debugf("No saved state for session %q, starting fresh", name)
		st = nil
	case err != nil:
		return nil, fmt.Errorf("load session %q: %w", name, err)
	}

	return a.Sessions.AttachWithState(a.Predictor, st)
}

// Persist saves the attached session's state. It is a no-op without a session.
func (a *App) Persist(ctx context.Context) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	s, err := a.Sessions.Current()
	if errors.Is(err, models.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	st, err := s.State()
	if err != nil {
		return err
	}
	if err := a.StateStore.SaveState(ctx, a.Config.Session.Name, st); err != nil {
		return fmt.Errorf("save session %q: %w", a.Config.Session.Name, err)
	}
	return nil
}

// Shutdown tears down the attached session, if any, and deletes its saved
// state so the next run starts clean.
func (a *App) Shutdown(ctx context.Context) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	if err := a.Sessions.Shutdown(); err != nil && !errors.Is(err, models.ErrNoSession) {
		return err
	}
	if err := a.StateStore.DeleteState(ctx, a.Config.Session.Name); err != nil {
		return fmt.Errorf("delete session %q: %w", a.Config.Session.Name, err)
	}
	return nil
}

// Close releases the state store and predictor connections.
func (a *App) Close() {
	if a.StateStore != nil {
		if err := a.StateStore.Close(); err != nil {
			log.Printf("Error closing state store: %v", err)
		}
	}
	if c, ok := a.Predictor.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			log.Printf("Error closing predictor: %v", err)
		}
	}
}
