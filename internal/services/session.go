package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"dynai/internal/models"
	"dynai/internal/predictor"
	"dynai/internal/store/memory"
	categorizer "dynai/pkg/categorizer"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultSecurityGroup = "default"
	DefaultAccuracyLimit = 0.6
	DefaultBlockLimit    = 2
)

// UseDefault in a SimilarityParams field, or as a PredictCategory accuracy
// limit, selects the session default. Zero is sent to the service as is.
const UseDefault = -1

// SimilarityParams controls a getSimilarity query.
type SimilarityParams struct {
	AccuracyLimit float64
	BlockLimit    int
}

// DefaultSimilarity asks for the session defaults on both limits.
func DefaultSimilarity() SimilarityParams {
	return SimilarityParams{AccuracyLimit: UseDefault, BlockLimit: UseDefault}
}

// Options configures every session created by a SessionManager.
type Options struct {
	SecurityGroup    string
	RetryStrategy    predictor.RetryStrategy
	Similarity       SimilarityParams
	PredictThreshold int
}

func (o Options) withDefaults() Options {
	if o.SecurityGroup == "" {
		o.SecurityGroup = DefaultSecurityGroup
	}
	if o.RetryStrategy == nil {
		o.RetryStrategy = predictor.DefaultRetryStrategy()
	}
	if o.Similarity.AccuracyLimit <= 0 {
		o.Similarity.AccuracyLimit = DefaultAccuracyLimit
	}
	if o.Similarity.BlockLimit <= 0 {
		o.Similarity.BlockLimit = DefaultBlockLimit
	}
	if o.PredictThreshold <= 0 {
		o.PredictThreshold = categorizer.DefaultMinSimilarity
	}
	return o
}

// Session is one attached connection to the inference service together with
// the local view of what was submitted to it. All methods are safe for
// concurrent use; each holds the session lock for its full duration, remote
// round-trip included, so calls never interleave.
type Session struct {
	mu sync.Mutex

	id          string
	opts        Options
	predictor   predictor.Predictor
	executor    *predictor.Executor
	messages    *memory.MessageStore
	categories  *memory.CategoryStore
	checkpoints *CheckpointManager
	categorizer *categorizer.SimilarityCategorizer
	closed      bool
}

func newSession(p predictor.Predictor, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		id:         uuid.NewString(),
		opts:       opts,
		predictor:  p,
		executor:   predictor.NewExecutor(p, opts.RetryStrategy),
		messages:   memory.NewMessageStore(),
		categories: memory.NewCategoryStore(),
	}
	s.checkpoints = NewCheckpointManager(p, s.messages, s.categories)
	// The categorizer runs under the session lock, so it gets the unlocked query.
	s.categorizer = categorizer.NewSimilarityCategorizer(
		sessionKnowledge{s},
		categorizer.SearchFunc(func(ctx context.Context, id string, accuracyLimit float64) ([]models.SimilarityResult, error) {
			return s.similarity(ctx, id, SimilarityParams{AccuracyLimit: accuracyLimit, BlockLimit: s.opts.Similarity.BlockLimit})
		}),
		opts.PredictThreshold,
	)
	return s
}

// sessionKnowledge exposes the session stores to the categorizer.
type sessionKnowledge struct{ s *Session }

func (k sessionKnowledge) HasMessage(id string) bool           { return k.s.messages.Contains(id) }
func (k sessionKnowledge) CategoryOf(id string) (string, bool) { return k.s.categories.Get(id) }

func (s *Session) ID() string { return s.id }

// Defaults returns the similarity parameters used when a caller passes none.
func (s *Session) Defaults() SimilarityParams { return s.opts.Similarity }

func (s *Session) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.ErrNoSession
	}
	return nil
}

// Submit sends text to the service, retrying transient failures, and records
// it under the identifier the service assigned. ErrMessageNotAssigned is
// returned when the service answered without an identifier.
func (s *Session) Submit(ctx context.Context, text string) (string, error) {
	if err := s.lock(); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	resp, err := s.executor.Execute(ctx, predictor.AddMessageRequest(text, s.opts.SecurityGroup))
	if err != nil {
		return "", err
	}
	id := resp.AssignedMessageID()
	if id == "" {
		return "", models.ErrMessageNotAssigned
	}
	s.messages.Put(id, text)
	log.Debugf("Submitted message %s (%d bytes)", id, len(text))
	return id, nil
}

// AddFeedback sends explicit relation hints for a known message and reports
// whether the service accepted them.
func (s *Session) AddFeedback(ctx context.Context, messageID string, relations []models.Relation) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	if !s.messages.Contains(messageID) {
		return false, fmt.Errorf("%w: %s", models.ErrUnknownMessage, messageID)
	}
	return s.addFeedback(ctx, messageID, relations)
}

func (s *Session) addFeedback(ctx context.Context, messageID string, relations []models.Relation) (bool, error) {
	resp, err := s.predictor.Predict(ctx, predictor.AddFeedbackRequest(messageID, relations))
	if err != nil {
		return false, err
	}
	return resp.Succeeded(), nil
}

// SetCategory labels a known message and teaches the service the resulting
// pairwise relations. The label is recorded locally before feedback is sent
// and stays even if the service rejects the feedback.
func (s *Session) SetCategory(ctx context.Context, messageID, category string) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	if !s.messages.Contains(messageID) {
		return false, fmt.Errorf("%w: %s", models.ErrUnknownMessage, messageID)
	}

	relations := BuildRelations(messageID, s.categories, category)
	s.categories.Put(messageID, category)
	log.Debugf("Category %q set for %s, sending %d relations", category, messageID, len(relations))
	return s.addFeedback(ctx, messageID, relations)
}

// Similarity returns the messages the service considers similar to messageID.
// Negative params fall back to the session defaults.
func (s *Session) Similarity(ctx context.Context, messageID string, params SimilarityParams) ([]models.SimilarityResult, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.similarity(ctx, messageID, params)
}

func (s *Session) similarity(ctx context.Context, messageID string, params SimilarityParams) ([]models.SimilarityResult, error) {
	params = s.fillParams(params)
	resp, err := s.predictor.Predict(ctx, predictor.GetSimilarityRequest(messageID, params.AccuracyLimit, params.BlockLimit))
	if err != nil {
		return nil, err
	}
	return TranslateSimilarity(resp.Similarity, messageID, s.messages), nil
}

// TechReport returns the service's raw diagnostic text for a similarity query.
func (s *Session) TechReport(ctx context.Context, messageID string, params SimilarityParams) (string, error) {
	if err := s.lock(); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	params = s.fillParams(params)
	resp, err := s.predictor.Predict(ctx, predictor.GetSimilarityRequest(messageID, params.AccuracyLimit, params.BlockLimit))
	if err != nil {
		return "", err
	}
	return resp.TechReportText(), nil
}

func (s *Session) fillParams(p SimilarityParams) SimilarityParams {
	if p.AccuracyLimit < 0 {
		p.AccuracyLimit = s.opts.Similarity.AccuracyLimit
	}
	if p.BlockLimit < 0 {
		p.BlockLimit = s.opts.Similarity.BlockLimit
	}
	return p
}

// PredictCategory resolves a category for a known message. A negative
// accuracyLimit uses the session default.
func (s *Session) PredictCategory(ctx context.Context, messageID string, accuracyLimit float64) (models.Prediction, error) {
	if err := s.lock(); err != nil {
		return models.Prediction{}, err
	}
	defer s.mu.Unlock()

	if accuracyLimit < 0 {
		accuracyLimit = s.opts.Similarity.AccuracyLimit
	}
	return s.categorizer.Predict(ctx, categorizer.PredictionRequest{MessageID: messageID, AccuracyLimit: accuracyLimit})
}

// ListMessages returns every known message in submission order with its
// category, if any.
func (s *Session) ListMessages() ([]models.Message, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return lo.Map(s.messages.List(), func(m models.Message, _ int) models.Message {
		m.Category, m.HasCategory = s.categories.Get(m.ID)
		return m
	}), nil
}

// Message looks up a submitted message by the identifier the service issued.
func (s *Session) Message(messageID string) (models.Message, error) {
	if err := s.lock(); err != nil {
		return models.Message{}, err
	}
	defer s.mu.Unlock()

	text, ok := s.messages.Get(messageID)
	if !ok {
		return models.Message{}, fmt.Errorf("%w: %s", models.ErrUnknownMessage, messageID)
	}
	category, hasCategory := s.categories.Get(messageID)
	return models.Message{ID: messageID, Text: text, Category: category, HasCategory: hasCategory}, nil
}

// ListMessagesByCategory returns the messages labelled category, in the order
// they were labelled.
func (s *Session) ListMessagesByCategory(category string) ([]models.Message, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return lo.Map(s.categories.ListByCategory(category), func(a models.CategoryAssignment, _ int) models.Message {
		text, _ := s.messages.Get(a.MessageID)
		return models.Message{ID: a.MessageID, Text: text, Category: a.Category, HasCategory: true}
	}), nil
}

// ListCategories returns every category assignment in the order first set.
func (s *Session) ListCategories() ([]models.CategoryAssignment, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.categories.List(), nil
}

// IsReady asks the service whether it can accept requests.
func (s *Session) IsReady(ctx context.Context) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	resp, err := s.predictor.Predict(ctx, predictor.IsReadyRequest())
	if err != nil {
		return false, err
	}
	return bool(resp.Ready), nil
}

func (s *Session) CreateCheckpoint(ctx context.Context) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	return s.checkpoints.Create(ctx)
}

func (s *Session) RestoreCheckpoint(ctx context.Context) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	return s.checkpoints.Restore(ctx)
}

// Reset clears the service and all local state, checkpoint included.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	return s.checkpoints.Reset(ctx)
}

// Checkpoint returns a copy of the retained checkpoint, or nil.
func (s *Session) Checkpoint() (*models.Checkpoint, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.checkpoints.Export(), nil
}

// State exports a deep copy of the session's local state.
func (s *Session) State() (*models.SessionState, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return &models.SessionState{
		SessionID:  s.id,
		Messages:   s.messages.List(),
		Categories: s.categories.List(),
		Checkpoint: s.checkpoints.Export(),
		SavedAt:    time.Now().UTC(),
	}, nil
}

// load replaces local state with st. Called before the session is published.
func (s *Session) load(st *models.SessionState) {
	if st.SessionID != "" {
		s.id = st.SessionID
	}
	s.messages.Clear()
	for _, m := range st.Messages {
		s.messages.Put(m.ID, m.Text)
	}
	s.categories.Clear()
	for _, a := range st.Categories {
		s.categories.Put(a.MessageID, a.Category)
	}
	s.checkpoints.Import(st.Checkpoint)
}

// close clears all local state and marks the session unusable.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints.Clear()
	s.closed = true
}
