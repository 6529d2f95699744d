package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynai/internal/config"
	"dynai/internal/models"
	"dynai/internal/predictor"
	"dynai/internal/services"
	"dynai/internal/store"
	"dynai/internal/store/memory"
	"dynai/internal/store/sqlite"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Predictor.Endpoint = "http://localhost:9/invocations"
	cfg.Predictor.Timeout = time.Second
	cfg.Predictor.SecurityGroup = "default"
	cfg.Retry.MaxAttempts = 1
	cfg.Similarity.AccuracyLimit = 0.6
	cfg.Similarity.BlockLimit = 2
	cfg.Similarity.PredictThreshold = 75
	cfg.Session.Name = "test"
	cfg.State.Driver = store.DriverMemory
	return cfg
}

// fakeService assigns sequential ids and acknowledges everything.
func fakeService() predictor.Predictor {
	next := 0
	return predictor.PredictorFunc(func(ctx context.Context, req predictor.Request) (*predictor.Response, error) {
		resp := &predictor.Response{Result: predictor.FlexString{Value: predictor.ResultSuccess, Valid: true}}
		if req.Type == predictor.TypeAddMessage {
			next++
			resp.MessageID = []byte(`"m` + string(rune('0'+next)) + `"`)
		}
		return resp, nil
	})
}

func TestApp_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	ss := memory.NewStateStore()
	p := fakeService()

	first := NewAppWith(testConfig(), p, ss)
	s, err := first.Session(ctx)
	require.NoError(t, err)
	id, err := s.Submit(ctx, "hello")
	require.NoError(t, err)
	_, err = s.SetCategory(ctx, id, "greeting")
	require.NoError(t, err)
	ok, err := s.CreateCheckpoint(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, first.Persist(ctx))

	second := NewAppWith(testConfig(), p, ss)
	reloaded, err := second.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), reloaded.ID())

	msgs, err := reloaded.ListMessages()
	require.NoError(t, err)
	assert.Equal(t, []models.Message{{ID: id, Text: "hello", Category: "greeting", HasCategory: true}}, msgs)

	cp, err := reloaded.Checkpoint()
	require.NoError(t, err)
	require.NotNil(t, cp)

	same, err := second.Session(ctx)
	require.NoError(t, err)
	assert.Same(t, reloaded, same)
}

func TestApp_PersistWithoutSession(t *testing.T) {
	a := NewAppWith(testConfig(), fakeService(), memory.NewStateStore())
	assert.NoError(t, a.Persist(context.Background()))
}

func TestApp_Shutdown(t *testing.T) {
	ctx := context.Background()
	ss := memory.NewStateStore()
	a := NewAppWith(testConfig(), fakeService(), ss)

	s, err := a.Session(ctx)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "hello")
	require.NoError(t, err)
	require.NoError(t, a.Persist(ctx))

	require.NoError(t, a.Shutdown(ctx))
	_, err = ss.LoadState(ctx, "test")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = a.Sessions.Current()
	assert.ErrorIs(t, err, models.ErrNoSession)

	// Shutting down twice only clears saved state.
	assert.NoError(t, a.Shutdown(ctx))

	fresh, err := a.Session(ctx)
	require.NoError(t, err)
	msgs, err := fresh.ListMessages()
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// gatedStateStore blocks the gated operation until release is closed.
type gatedStateStore struct {
	*memory.StateStore
	gate    string
	entered chan struct{}
	release chan struct{}
}

func newGatedStateStore(gate string) *gatedStateStore {
	return &gatedStateStore{
		StateStore: memory.NewStateStore(),
		gate:       gate,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gatedStateStore) wait(op string) {
	if op != g.gate {
		return
	}
	select {
	case <-g.entered:
	default:
		close(g.entered)
	}
	<-g.release
}

func (g *gatedStateStore) SaveState(ctx context.Context, name string, st *models.SessionState) error {
	g.wait("save")
	return g.StateStore.SaveState(ctx, name, st)
}

func (g *gatedStateStore) DeleteState(ctx context.Context, name string) error {
	g.wait("delete")
	return g.StateStore.DeleteState(ctx, name)
}

func TestApp_SessionDuringShutdownStartsFresh(t *testing.T) {
	ctx := context.Background()
	ss := newGatedStateStore("delete")
	a := NewAppWith(testConfig(), fakeService(), ss)

	old, err := a.Session(ctx)
	require.NoError(t, err)
	_, err = old.Submit(ctx, "hello")
	require.NoError(t, err)
	require.NoError(t, a.Persist(ctx))

	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- a.Shutdown(ctx) }()
	<-ss.entered

	attached := make(chan *services.Session, 1)
	go func() {
		s, err := a.Session(ctx)
		assert.NoError(t, err)
		attached <- s
	}()
	select {
	case <-attached:
		t.Fatal("session attached before shutdown finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(ss.release)
	require.NoError(t, <-shutdownErr)
	fresh := <-attached
	require.NotNil(t, fresh)
	assert.NotEqual(t, old.ID(), fresh.ID())
	msgs, err := fresh.ListMessages()
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestApp_PersistDuringShutdownDoesNotResurrectState(t *testing.T) {
	ctx := context.Background()
	ss := newGatedStateStore("save")
	a := NewAppWith(testConfig(), fakeService(), ss)

	s, err := a.Session(ctx)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "hello")
	require.NoError(t, err)

	persistErr := make(chan error, 1)
	go func() { persistErr <- a.Persist(ctx) }()
	<-ss.entered

	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- a.Shutdown(ctx) }()
	select {
	case <-shutdownErr:
		t.Fatal("shutdown finished while a save was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(ss.release)
	require.NoError(t, <-persistErr)
	require.NoError(t, <-shutdownErr)

	_, err = ss.LoadState(ctx, "test")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApp_RejectsCorruptState(t *testing.T) {
	ctx := context.Background()
	ss := memory.NewStateStore()
	require.NoError(t, ss.SaveState(ctx, "test", &models.SessionState{
		Categories: []models.CategoryAssignment{{MessageID: "ghost", Category: "x"}},
	}))

	a := NewAppWith(testConfig(), fakeService(), ss)
	_, err := a.Session(ctx)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestNewApp_Drivers(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	a, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.StateStore{}, a.StateStore)
	assert.IsType(t, &predictor.HTTPPredictor{}, a.Predictor)
	a.Close()

	cfg = testConfig()
	cfg.State.Driver = store.DriverSQLite
	cfg.State.DSN = filepath.Join(t.TempDir(), "state", "dynai.db")
	a, err = NewApp(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.StateStore{}, a.StateStore)
	assert.NoError(t, a.StateStore.Ping(ctx))
	a.Close()

	cfg = testConfig()
	cfg.State.Driver = "redis"
	_, err = NewApp(ctx, cfg)
	assert.ErrorIs(t, err, store.ErrUnknownDriver)
}
