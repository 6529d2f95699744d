package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"dynai/internal/models"
	"dynai/internal/store"
)

var _ store.StateStore = (*StateStore)(nil)

// StateStore keeps encoded session state in process memory. State does not
// survive the process, so the driver suits `serve` and tests.
type StateStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string][]byte)}
}

func (s *StateStore) LoadState(ctx context.Context, name string) (*models.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.states[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	var state models.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session state %q: %w", name, err)
	}
	return &state, nil
}

func (s *StateStore) SaveState(ctx context.Context, name string, state *models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state %q: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[name] = data
	return nil
}

func (s *StateStore) DeleteState(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, name)
	return nil
}

func (s *StateStore) Ping(ctx context.Context) error { return nil }

func (s *StateStore) Close() error { return nil }
