package services

import (
	"dynai/internal/models"
	"dynai/internal/store/memory"
)

// BuildRelations derives the feedback sent when messageID is labelled
// newCategory. Every other categorized message yields one relation, in category
// store insertion order: RelationSimilar when it shares the new category,
// RelationUnsimilar otherwise. The result is empty (not nil) when nothing else
// is categorized.
func BuildRelations(messageID string, categories *memory.CategoryStore, newCategory string) []models.Relation {
	relations := make([]models.Relation, 0, categories.Len())
	for _, a := range categories.List() {
		if a.MessageID == messageID {
			continue
		}
		flags := models.RelationUnsimilar
		if a.Category == newCategory {
			flags = models.RelationSimilar
		}
		relations = append(relations, models.Relation{ID: a.MessageID, Flags: flags})
	}
	return relations
}
