package memory

import (
	"github.com/samber/lo"

	"dynai/internal/models"
)

// orderedMap keeps keys in first-insertion order. Overwriting an existing key
// keeps its position.
type orderedMap struct {
	keys   []string
	values map[string]string
}

func newOrderedMap() orderedMap {
	return orderedMap{values: make(map[string]string)}
}

func (m *orderedMap) put(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *orderedMap) get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *orderedMap) clear() {
	m.keys = nil
	m.values = make(map[string]string)
}

func (m *orderedMap) clone() orderedMap {
	out := orderedMap{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]string, len(m.values)),
	}
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------
// Message Store
// -----------------------------------------------------------------------------

// MessageStore maps server-issued message ids to the original text.
// It is not safe for concurrent use; the owning session serializes access.
type MessageStore struct {
	m orderedMap
}

func NewMessageStore() *MessageStore {
	return &MessageStore{m: newOrderedMap()}
}

func (s *MessageStore) Put(id, text string) { s.m.put(id, text) }

// Get returns the text for id, or "" and false when the id is unknown.
func (s *MessageStore) Get(id string) (string, bool) { return s.m.get(id) }

func (s *MessageStore) Contains(id string) bool {
	_, ok := s.m.values[id]
	return ok
}

func (s *MessageStore) Len() int { return len(s.m.keys) }

func (s *MessageStore) Clear() { s.m.clear() }

// List returns a snapshot of all messages in insertion order.
func (s *MessageStore) List() []models.Message {
	return lo.Map(s.m.keys, func(id string, _ int) models.Message {
		return models.Message{ID: id, Text: s.m.values[id]}
	})
}

// Clone returns an independent deep copy.
func (s *MessageStore) Clone() *MessageStore {
	return &MessageStore{m: s.m.clone()}
}

// ReplaceWith makes s a deep copy of other.
func (s *MessageStore) ReplaceWith(other *MessageStore) {
	s.m = other.m.clone()
}

// -----------------------------------------------------------------------------
// Category Store
// -----------------------------------------------------------------------------

// CategoryStore maps message ids to their assigned category label. The
// message-exists invariant is enforced by the session, which owns both stores.
type CategoryStore struct {
	m orderedMap
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{m: newOrderedMap()}
}

func (s *CategoryStore) Put(id, category string) { s.m.put(id, category) }

func (s *CategoryStore) Get(id string) (string, bool) { return s.m.get(id) }

func (s *CategoryStore) Contains(id string) bool {
	_, ok := s.m.values[id]
	return ok
}

func (s *CategoryStore) Len() int { return len(s.m.keys) }

func (s *CategoryStore) Clear() { s.m.clear() }

// List returns every assignment in insertion order.
func (s *CategoryStore) List() []models.CategoryAssignment {
	return lo.Map(s.m.keys, func(id string, _ int) models.CategoryAssignment {
		return models.CategoryAssignment{MessageID: id, Category: s.m.values[id]}
	})
}

// ListByCategory returns the assignments carrying category, in insertion order.
func (s *CategoryStore) ListByCategory(category string) []models.CategoryAssignment {
	return lo.Filter(s.List(), func(a models.CategoryAssignment, _ int) bool {
		return a.Category == category
	})
}

func (s *CategoryStore) Clone() *CategoryStore {
	return &CategoryStore{m: s.m.clone()}
}

func (s *CategoryStore) ReplaceWith(other *CategoryStore) {
	s.m = other.m.clone()
}
