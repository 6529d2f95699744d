package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"dynai/internal/models"
	"dynai/internal/predictor"
	"dynai/internal/store/memory"
)

// snapshot is a deep copy of both stores taken after an acknowledged
// saveCheckpoint.
type snapshot struct {
	timestamp  time.Time
	messages   *memory.MessageStore
	categories *memory.CategoryStore
}

// CheckpointManager keeps the local stores consistent with the service's own
// checkpoint and reset operations. It does no locking; the owning Session
// serializes calls.
type CheckpointManager struct {
	predictor  predictor.Predictor
	messages   *memory.MessageStore
	categories *memory.CategoryStore
	checkpoint *snapshot
	now        func() time.Time
}

// NewCheckpointManager binds a manager to the live stores it snapshots and restores.
func NewCheckpointManager(p predictor.Predictor, messages *memory.MessageStore, categories *memory.CategoryStore) *CheckpointManager {
	return &CheckpointManager{
		predictor:  p,
		messages:   messages,
		categories: categories,
		now:        time.Now,
	}
}

// Create asks the service to checkpoint and, only when it reports success,
// replaces the local checkpoint with copies of the live stores.
func (m *CheckpointManager) Create(ctx context.Context) (bool, error) {
	resp, err := m.predictor.Predict(ctx, predictor.SaveCheckpointRequest())
	if err != nil {
		return false, err
	}
	if !resp.Succeeded() {
		log.Warnf("saveCheckpoint not acknowledged (result=%q), local checkpoint unchanged", resp.Result.Value)
		return false, nil
	}

	m.checkpoint = &snapshot{
		timestamp:  m.now().UTC(),
		messages:   m.messages.Clone(),
		categories: m.categories.Clone(),
	}
	log.Infof("Checkpoint created with %d messages and %d categories", m.messages.Len(), m.categories.Len())
	return true, nil
}

// Restore rolls the service back to its checkpoint and, only on success,
// replaces the live stores with copies of the local checkpoint. The checkpoint
// itself is kept so it can be restored again.
func (m *CheckpointManager) Restore(ctx context.Context) (bool, error) {
	if m.checkpoint == nil {
		return false, models.ErrNoCheckpoint
	}

	resp, err := m.predictor.Predict(ctx, predictor.RestoreCheckpointRequest())
	if err != nil {
		return false, err
	}
	if !resp.Succeeded() {
		log.Warnf("restoreCheckpoint not acknowledged (result=%q), local state unchanged", resp.Result.Value)
		return false, nil
	}

	m.messages.ReplaceWith(m.checkpoint.messages)
	m.categories.ReplaceWith(m.checkpoint.categories)
	log.Infof("Restored checkpoint from %s", m.checkpoint.timestamp.Format(time.RFC3339))
	return true, nil
}

// Reset clears the service and then all local state. The response body is
// ignored; a transport error leaves local state untouched.
func (m *CheckpointManager) Reset(ctx context.Context) error {
	if _, err := m.predictor.Predict(ctx, predictor.ResetRequest()); err != nil {
		return err
	}
	m.Clear()
	return nil
}

// Clear drops local state without contacting the service.
func (m *CheckpointManager) Clear() {
	m.messages.Clear()
	m.categories.Clear()
	m.checkpoint = nil
}

// Export returns a copy of the current checkpoint, or nil when none exists.
func (m *CheckpointManager) Export() *models.Checkpoint {
	if m.checkpoint == nil {
		return nil
	}
	return &models.Checkpoint{
		Timestamp:  m.checkpoint.timestamp,
		Messages:   m.checkpoint.messages.List(),
		Categories: m.checkpoint.categories.List(),
	}
}

// Import replaces the local checkpoint; nil clears it.
func (m *CheckpointManager) Import(cp *models.Checkpoint) {
	if cp == nil {
		m.checkpoint = nil
		return
	}
	messages := memory.NewMessageStore()
	for _, msg := range cp.Messages {
		messages.Put(msg.ID, msg.Text)
	}
	categories := memory.NewCategoryStore()
	for _, a := range cp.Categories {
		categories.Put(a.MessageID, a.Category)
	}
	m.checkpoint = &snapshot{timestamp: cp.Timestamp, messages: messages, categories: categories}
}
