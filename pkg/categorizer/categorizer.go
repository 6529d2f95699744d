package categorizer

import (
	"context"

	"dynai/internal/models"
)

// PredictionRequest holds the message to categorize and the precision limit
// passed to the similarity query.
type PredictionRequest struct {
	MessageID     string
	AccuracyLimit float64
}

// CategoryPredictor resolves a category for a message
type CategoryPredictor interface {
	Predict(ctx context.Context, req PredictionRequest) (models.Prediction, error)
}

// Knowledge is the local ground truth consulted before any remote call.
type Knowledge interface {
	HasMessage(id string) bool
	CategoryOf(id string) (string, bool)
}

// SimilaritySearcher returns translated similarity results in service order.
type SimilaritySearcher interface {
	SearchSimilar(ctx context.Context, messageID string, accuracyLimit float64) ([]models.SimilarityResult, error)
}

// SearchFunc adapts a function to SimilaritySearcher.
type SearchFunc func(ctx context.Context, messageID string, accuracyLimit float64) ([]models.SimilarityResult, error)

func (f SearchFunc) SearchSimilar(ctx context.Context, messageID string, accuracyLimit float64) ([]models.SimilarityResult, error) {
	return f(ctx, messageID, accuracyLimit)
}
