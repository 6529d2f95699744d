package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynai/internal/predictor"
	"dynai/internal/store/memory"
)

func entries(t *testing.T, raw string) []predictor.SimilarityEntry {
	t.Helper()
	var out []predictor.SimilarityEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestTranslateSimilarity(t *testing.T) {
	messages := memory.NewMessageStore()
	messages.Put("m1", "hello")
	messages.Put("m2", "hi")

	raw := entries(t, `[
		{"internalId":"m1","techReport":"bits = 99","accuracy":1,"isApproved":true},
		{"internalId":"m2","techReport":"x = 1 bits = 80 y = 2","accuracy":0.87,"isApproved":1,"theSameText":0,"statisticsExist":"yes"},
		{"internalId":"m9","techReport":"nothing here","accuracy":0.44}
	]`)

	got := TranslateSimilarity(raw, "m1", messages)
	require.Len(t, got, 2, "queried message is excluded")

	first := got[0]
	assert.Equal(t, "m2", first.MessageID)
	assert.Equal(t, "hi", first.MessageText)
	require.NotNil(t, first.Similarity)
	assert.Equal(t, 80, *first.Similarity)
	assert.Equal(t, 0.9, first.Accuracy)
	assert.True(t, first.IsApproved)
	assert.False(t, first.IsSameText)
	assert.True(t, first.HasStatistics)

	second := got[1]
	assert.Equal(t, "m9", second.MessageID)
	assert.Equal(t, "", second.MessageText, "unknown ids resolve to empty text")
	assert.Nil(t, second.Similarity)
	assert.Equal(t, 0.4, second.Accuracy)
	assert.False(t, second.IsApproved)
	assert.False(t, second.HasStatistics)
}

func TestTranslateSimilarity_Malformed(t *testing.T) {
	raw := entries(t, `[
		{"internalId":"a","techReport":null},
		{"internalId":"b","techReport":"bits = high"},
		{"internalId":"c","techReport":"bits ="},
		{"internalId":7,"techReport":"bits = 76.9","accuracy":"0.55"}
	]`)

	got := TranslateSimilarity(raw, "x", memory.NewMessageStore())
	require.Len(t, got, 4)
	assert.Nil(t, got[0].Similarity)
	assert.Nil(t, got[1].Similarity)
	assert.Nil(t, got[2].Similarity)

	assert.Equal(t, "7", got[3].MessageID)
	require.NotNil(t, got[3].Similarity)
	assert.Equal(t, 76, *got[3].Similarity)
	assert.Equal(t, 0.6, got[3].Accuracy)
}

func TestExtractReportValue(t *testing.T) {
	tests := []struct {
		name   string
		report string
		key    string
		want   string
		found  bool
	}{
		{"simple", "bits = 42", "bits", "42", true},
		{"among others", "a = 1 bits = 7 c = 3", "bits", "7", true},
		{"first wins", "bits = 1 bits = 2", "bits", "1", true},
		{"extra whitespace", "  bits\t=\n 5 ", "bits", "5", true},
		{"no separator", "bits 42", "bits", "", false},
		{"no value", "bits =", "bits", "", false},
		{"missing", "foo = bar", "bits", "", false},
		{"empty", "", "bits", "", false},
		{"glued", "bits=42", "bits", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractReportValue(tt.report, tt.key)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
