package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dynai/internal/models"
	"dynai/internal/predictor"
	"dynai/internal/store/memory"
)

func newTestCheckpointManager(p predictor.Predictor) (*CheckpointManager, *memory.MessageStore, *memory.CategoryStore) {
	messages := memory.NewMessageStore()
	categories := memory.NewCategoryStore()
	m := NewCheckpointManager(p, messages, categories)
	m.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return m, messages, categories
}

func TestCheckpointManager_RestoreWithoutCheckpoint(t *testing.T) {
	p := new(mockPredictor)
	m, _, _ := newTestCheckpointManager(p)

	ok, err := m.Restore(context.Background())
	assert.ErrorIs(t, err, models.ErrNoCheckpoint)
	assert.False(t, ok)
	p.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestCheckpointManager_CreateRequiresSuccess(t *testing.T) {
	for _, body := range []string{`{"result":"failed"}`, `{}`, `{"result":"SUCCESS"}`, `{"result":null}`} {
		t.Run(body, func(t *testing.T) {
			p := new(mockPredictor)
			p.On("Predict", mock.Anything, ofType(predictor.TypeSaveCheckpoint)).Return(response(t, body), nil)
			m, messages, _ := newTestCheckpointManager(p)
			messages.Put("m1", "hello")

			ok, err := m.Create(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, m.Export())
		})
	}
}

func TestCheckpointManager_CreateAndRestore(t *testing.T) {
	ctx := context.Background()
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, ofType(predictor.TypeSaveCheckpoint)).Return(response(t, `{"result":"success"}`), nil)
	p.On("Predict", mock.Anything, ofType(predictor.TypeRestoreCheckpoint)).Return(response(t, `{"result":"success"}`), nil)

	m, messages, categories := newTestCheckpointManager(p)
	messages.Put("m1", "hello")
	categories.Put("m1", "greeting")

	ok, err := m.Create(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Mutations after the snapshot must not leak into it.
	messages.Put("m2", "world")
	categories.Put("m1", "changed")
	categories.Put("m2", "other")

	cp := m.Export()
	require.NotNil(t, cp)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), cp.Timestamp)
	assert.Equal(t, []models.Message{{ID: "m1", Text: "hello"}}, cp.Messages)
	assert.Equal(t, []models.CategoryAssignment{{MessageID: "m1", Category: "greeting"}}, cp.Categories)

	ok, err = m.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []models.Message{{ID: "m1", Text: "hello"}}, messages.List())
	assert.Equal(t, []models.CategoryAssignment{{MessageID: "m1", Category: "greeting"}}, categories.List())

	// The checkpoint survives a restore and is not aliased to the live stores.
	messages.Put("m3", "again")
	ok, err = m.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, messages.Len())
}

func TestCheckpointManager_RestoreNotAcknowledged(t *testing.T) {
	ctx := context.Background()
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, ofType(predictor.TypeSaveCheckpoint)).Return(response(t, `{"result":"success"}`), nil)
	p.On("Predict", mock.Anything, ofType(predictor.TypeRestoreCheckpoint)).Return(response(t, `{"result":"busy"}`), nil)

	m, messages, _ := newTestCheckpointManager(p)
	_, err := m.Create(ctx)
	require.NoError(t, err)
	messages.Put("m1", "hello")

	ok, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, messages.Contains("m1"), "live state untouched")
}

func TestCheckpointManager_Reset(t *testing.T) {
	ctx := context.Background()
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, ofType(predictor.TypeSaveCheckpoint)).Return(response(t, `{"result":"success"}`), nil)
	p.On("Predict", mock.Anything, ofType(predictor.TypeReset)).Return(response(t, `{"result":"whatever"}`), nil)

	m, messages, categories := newTestCheckpointManager(p)
	messages.Put("m1", "hello")
	categories.Put("m1", "greeting")
	_, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx))
	assert.Zero(t, messages.Len())
	assert.Zero(t, categories.Len())
	assert.Nil(t, m.Export())

	_, err = m.Restore(ctx)
	assert.ErrorIs(t, err, models.ErrNoCheckpoint)
}

func TestCheckpointManager_ResetTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, ofType(predictor.TypeReset)).Return(nil, boom)

	m, messages, _ := newTestCheckpointManager(p)
	messages.Put("m1", "hello")

	err := m.Reset(context.Background())
	assert.Same(t, boom, err)
	assert.True(t, messages.Contains("m1"))
}

func TestCheckpointManager_Import(t *testing.T) {
	m, _, _ := newTestCheckpointManager(new(mockPredictor))
	cp := &models.Checkpoint{
		Timestamp:  time.Unix(100, 0).UTC(),
		Messages:   []models.Message{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}},
		Categories: []models.CategoryAssignment{{MessageID: "b", Category: "c"}},
	}
	m.Import(cp)
	assert.Equal(t, cp, m.Export())

	m.Import(nil)
	assert.Nil(t, m.Export())
}
