package clix

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"dynai/internal/models"
	"dynai/internal/services"
)

// AddSimilarityFlags registers the flags read by ParseSimilarity. A flag that
// is not given uses the configured default; an explicit 0 is sent as is.
func AddSimilarityFlags(flags *pflag.FlagSet) {
	flags.Float64("accuracy-limit", 0, "Minimum accuracy for similarity results, 0 to 1 (default from config)")
	flags.Int("block-limit", 0, "Block limit passed to the similarity query (default from config)")
}

func ParseSimilarity(flags *pflag.FlagSet) (services.SimilarityParams, error) {
	params := services.DefaultSimilarity()
	if flags.Changed("accuracy-limit") {
		accuracy, _ := flags.GetFloat64("accuracy-limit")
		if accuracy < 0 || accuracy > 1 {
			return params, fmt.Errorf("--accuracy-limit must be between 0 and 1, got %v", accuracy)
		}
		params.AccuracyLimit = accuracy
	}
	if flags.Changed("block-limit") {
		block, _ := flags.GetInt("block-limit")
		if block < 0 {
			return params, fmt.Errorf("--block-limit must not be negative, got %d", block)
		}
		params.BlockLimit = block
	}
	return params, nil
}

func ParseCategory(flags *pflag.FlagSet) string {
	category, _ := flags.GetString("category")
	return strings.TrimSpace(category)
}

// ParseRelations parses "id:flags" arguments. flags is an integer or one of
// the names "similar" and "unsimilar".
func ParseRelations(args []string) ([]models.Relation, error) {
	relations := make([]models.Relation, 0, len(args))
	for _, arg := range args {
		idx := strings.LastIndex(arg, ":")
		if idx <= 0 || idx == len(arg)-1 {
			return nil, fmt.Errorf("invalid relation %q, expected id:flags", arg)
		}
		id, raw := arg[:idx], strings.ToLower(arg[idx+1:])

		var flags int
		switch raw {
		case "similar":
			flags = models.RelationSimilar
		case "unsimilar":
			flags = models.RelationUnsimilar
		default:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid relation flags in %q: %w", arg, err)
			}
			flags = n
		}
		relations = append(relations, models.Relation{ID: id, Flags: flags})
	}
	return relations, nil
}
