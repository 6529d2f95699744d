package services

import (
	"math"
	"strconv"
	"strings"

	"dynai/internal/models"
	"dynai/internal/predictor"
	"dynai/internal/store/memory"
)

// ReportKeySimilarity is the tech report key holding the 0-100 similarity score.
const ReportKeySimilarity = "bits"

// TranslateSimilarity turns raw getSimilarity entries into results, preserving
// service order. The entry for messageID itself is dropped. It never fails:
// unknown ids get empty text and unparseable reports a nil similarity.
func TranslateSimilarity(entries []predictor.SimilarityEntry, messageID string, messages *memory.MessageStore) []models.SimilarityResult {
	results := make([]models.SimilarityResult, 0, len(entries))
	for _, e := range entries {
		id := e.InternalID.Value
		if id == messageID {
			continue
		}

		text, _ := messages.Get(id)
		results = append(results, models.SimilarityResult{
			MessageID:     id,
			MessageText:   text,
			Similarity:    parseSimilarity(e.TechReport.Value),
			Accuracy:      roundOneDecimal(e.Accuracy.Value),
			IsApproved:    bool(e.IsApproved),
			IsSameText:    bool(e.TheSameText),
			HasStatistics: bool(e.StatisticsExist),
		})
	}
	return results
}

// ExtractReportValue finds key in a whitespace-separated "key = value" report.
// Tokens are scanned left to right and the first match wins.
func ExtractReportValue(report, key string) (string, bool) {
	tokens := strings.Fields(report)
	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i] == key && tokens[i+1] == "=" {
			return tokens[i+2], true
		}
	}
	return "", false
}

func parseSimilarity(report string) *int {
	raw, ok := ExtractReportValue(report, ReportKeySimilarity)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n := int(v)
	return &n
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
