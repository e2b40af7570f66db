package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreEndpoints(t *testing.T) {
	assert.Equal(t, 0, ConfidenceFactors{}.Score(), "all false, zero completeness")

	full := ConfidenceFactors{
		HasRealDomain:    true,
		HasDBDData:       true,
		KeywordMatch:     true,
		GeminiConfident:  true,
		DataCompleteness: 1,
	}
	assert.Equal(t, 100, full.Score(), "all true, complete")
}

func TestScoreMonotonic(t *testing.T) {
	base := ConfidenceFactors{DataCompleteness: 0.5}
	baseScore := base.Score()

	toggles := []func(f *ConfidenceFactors){
		func(f *ConfidenceFactors) { f.HasRealDomain = true },
		func(f *ConfidenceFactors) { f.HasDBDData = true },
		func(f *ConfidenceFactors) { f.KeywordMatch = true },
		func(f *ConfidenceFactors) { f.GeminiConfident = true },
	}
	for i, toggle := range toggles {
		f := base
		toggle(&f)
		assert.Greater(t, f.Score(), baseScore, "toggling factor %d must raise the score", i)
	}
}

func TestScoreCompletenessClamped(t *testing.T) {
	low := ConfidenceFactors{DataCompleteness: -2}
	assert.Equal(t, 0, low.Score())

	high := ConfidenceFactors{DataCompleteness: 5}
	assert.Equal(t, 10, high.Score(), "completeness clamps to 1")
}
