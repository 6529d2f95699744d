package categorizer

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"dynai/internal/models"
)

// DefaultMinSimilarity is the similarity score (0-100) a neighbour must reach
// before its category is borrowed.
const DefaultMinSimilarity = 75

// SimilarityCategorizer implements CategoryPredictor.
// Exact local knowledge wins; otherwise the first similarity result (in the
// order the service returned them) that is both categorized and similar enough
// decides. Results are not re-ranked.
type SimilarityCategorizer struct {
	knowledge     Knowledge
	searcher      SimilaritySearcher
	minSimilarity int
}

// NewSimilarityCategorizer creates a categorizer. A non-positive minSimilarity
// falls back to DefaultMinSimilarity.
func NewSimilarityCategorizer(knowledge Knowledge, searcher SimilaritySearcher, minSimilarity int) *SimilarityCategorizer {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &SimilarityCategorizer{
		knowledge:     knowledge,
		searcher:      searcher,
		minSimilarity: minSimilarity,
	}
}

var _ CategoryPredictor = (*SimilarityCategorizer)(nil)

func (c *SimilarityCategorizer) Predict(ctx context.Context, req PredictionRequest) (models.Prediction, error) {
	if !c.knowledge.HasMessage(req.MessageID) {
		return models.Prediction{}, fmt.Errorf("%w: %s", models.ErrUnknownMessage, req.MessageID)
	}

	if category, ok := c.knowledge.CategoryOf(req.MessageID); ok {
		return models.Prediction{Category: category, Known: true, Accuracy: 1.0, IsApproved: true}, nil
	}

	results, err := c.searcher.SearchSimilar(ctx, req.MessageID, req.AccuracyLimit)
	if err != nil {
		return models.Prediction{}, err
	}

	for _, r := range results {
		category, ok := c.knowledge.CategoryOf(r.MessageID)
		if !ok {
			continue
		}
		if r.Similarity == nil || *r.Similarity < c.minSimilarity {
			continue
		}
		log.Debugf("Predicted category %q for %s from %s (similarity %d)", category, req.MessageID, r.MessageID, *r.Similarity)
		return models.Prediction{
			Category:   category,
			Known:      true,
			Accuracy:   r.Accuracy,
			IsApproved: r.IsApproved,
		}, nil
	}

	return models.Prediction{Known: false, Accuracy: 0.0, IsApproved: false}, nil
}
