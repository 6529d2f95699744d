package clix

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynai/internal/models"
	"dynai/internal/services"
)

func TestParseRelations(t *testing.T) {
	got, err := ParseRelations([]string{"m1:5", "m2:unsimilar", "ns:m3:Similar"})
	require.NoError(t, err)
	assert.Equal(t, []models.Relation{
		{ID: "m1", Flags: models.RelationSimilar},
		{ID: "m2", Flags: models.RelationUnsimilar},
		{ID: "ns:m3", Flags: models.RelationSimilar},
	}, got)

	empty, err := ParseRelations(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"m1", ":5", "m1:", "m1:often"} {
		_, err := ParseRelations([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseSimilarity(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddSimilarityFlags(flags)

	params, err := ParseSimilarity(flags)
	require.NoError(t, err)
	assert.Equal(t, services.DefaultSimilarity(), params)

	require.NoError(t, flags.Parse([]string{"--accuracy-limit", "0.8", "--block-limit", "3"}))
	params, err = ParseSimilarity(flags)
	require.NoError(t, err)
	assert.Equal(t, services.SimilarityParams{AccuracyLimit: 0.8, BlockLimit: 3}, params)

	zero := pflag.NewFlagSet("zero", pflag.ContinueOnError)
	AddSimilarityFlags(zero)
	require.NoError(t, zero.Parse([]string{"--accuracy-limit", "0"}))
	params, err = ParseSimilarity(zero)
	require.NoError(t, err)
	assert.Equal(t, services.SimilarityParams{AccuracyLimit: 0, BlockLimit: services.UseDefault}, params)

	require.NoError(t, flags.Set("accuracy-limit", "1.5"))
	_, err = ParseSimilarity(flags)
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("category", "", "")
	assert.Empty(t, ParseCategory(flags))

	require.NoError(t, flags.Set("category", "  greeting "))
	assert.Equal(t, "greeting", ParseCategory(flags))
}
