package models

import (
	"fmt"
	"time"
)

// Relation flags sent with feedback.
const (
	RelationSimilar   = 5
	RelationUnsimilar = 10
)

// Message is a submitted message as known locally. ID is always assigned by the
// remote service.
type Message struct {
	ID          string `json:"message_id"`
	Text        string `json:"message_text"`
	Category    string `json:"category,omitempty"`
	HasCategory bool   `json:"has_category"`
}

// CategoryAssignment is one entry of the category store.
type CategoryAssignment struct {
	MessageID string `json:"message_id"`
	Category  string `json:"category"`
}

// Relation is a pairwise feedback hint between the target message and ID.
type Relation struct {
	ID    string `json:"id"`
	Flags int    `json:"flags"`
}

// SimilarityResult is a translated entry of a getSimilarity response.
type SimilarityResult struct {
	MessageID     string  `json:"message_id"`
	MessageText   string  `json:"message_text"`
	Similarity    *int    `json:"similarity"` // 0-100, nil when the report has no bits value
	Accuracy      float64 `json:"accuracy"`
	IsApproved    bool    `json:"is_approved"`
	IsSameText    bool    `json:"is_same_text"`
	HasStatistics bool    `json:"has_statistics"`
}

// Prediction is the outcome of category prediction. Known is false when no
// category could be resolved.
type Prediction struct {
	Category   string  `json:"category,omitempty"`
	Known      bool    `json:"known"`
	Accuracy   float64 `json:"accuracy"`
	IsApproved bool    `json:"is_approved"`
}

// Checkpoint is a snapshot of the local stores taken after the service
// acknowledged its own checkpoint.
type Checkpoint struct {
	Timestamp  time.Time            `json:"timestamp"`
	Messages   []Message            `json:"messages"`
	Categories []CategoryAssignment `json:"categories"`
}

// SessionState is the exportable state of a session. Messages and Categories
// are kept in store insertion order.
type SessionState struct {
	SessionID  string               `json:"session_id"`
	Messages   []Message            `json:"messages"`
	Categories []CategoryAssignment `json:"categories"`
	Checkpoint *Checkpoint          `json:"checkpoint,omitempty"`
	SavedAt    time.Time            `json:"saved_at"`
}

// Validate checks that every categorized message, in the live state and in the
// checkpoint, refers to a known message.
func (s *SessionState) Validate() error {
	if err := validateCategories(s.Messages, s.Categories); err != nil {
		return err
	}
	if s.Checkpoint != nil {
		if err := validateCategories(s.Checkpoint.Messages, s.Checkpoint.Categories); err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}
	return nil
}

func validateCategories(messages []Message, categories []CategoryAssignment) error {
	known := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		if m.ID == "" {
			return fmt.Errorf("%w: message with empty id", ErrInvalidState)
		}
		known[m.ID] = struct{}{}
	}
	for _, c := range categories {
		if _, ok := known[c.MessageID]; !ok {
			return fmt.Errorf("%w: category for unknown message %q", ErrInvalidState, c.MessageID)
		}
	}
	return nil
}
