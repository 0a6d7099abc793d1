package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeChangeStats(t *testing.T) {
	original := "Un texte. Avec deux phrases."
	corrected := "Un texte corrigé. Avec deux phrases. Et une de plus."

	stats := ComputeChangeStats(original, corrected)

	assert.Equal(t, len(original), stats.OriginalLength)
	assert.Equal(t, len(corrected), stats.CorrectedLength)
	assert.Equal(t, 5, stats.OriginalWords)
	assert.Equal(t, 10, stats.CorrectedWords)
	assert.Equal(t, 5, stats.WordsChanged)
	assert.Equal(t, 1, stats.SentencesChanged)
	assert.Positive(t, stats.PercentageChange)
}

func TestComputeChangeStatsEmptyOriginal(t *testing.T) {
	stats := ComputeChangeStats("", "du texte")
	assert.Equal(t, 0, stats.PercentageChange)
	assert.Equal(t, 2, stats.CorrectedWords)
}

func TestComputeChangeStatsIdentical(t *testing.T) {
	stats := ComputeChangeStats("même texte.", "même texte.")
	assert.Equal(t, 0, stats.WordsChanged)
	assert.Equal(t, 0, stats.SentencesChanged)
	assert.Equal(t, 0, stats.PercentageChange)
}
