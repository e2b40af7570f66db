package utils

// Confidence weights. Business policy, not architecture: they must sum to 100
// together with the completeness multiplier so that an all-true, fully
// complete analysis scores exactly 100.
const (
	weightRealDomain      = 30
	weightDBDData         = 25
	weightKeywordMatch    = 20
	weightGeminiConfident = 15
	weightCompleteness    = 10
)

// ConfidenceFactors are the inputs of the lead confidence score.
type ConfidenceFactors struct {
	HasRealDomain    bool    `json:"has_real_domain"`
	HasDBDData       bool    `json:"has_dbd_data"`
	KeywordMatch     bool    `json:"keyword_match"`
	GeminiConfident  bool    `json:"gemini_confident"`
	DataCompleteness float64 `json:"data_completeness"` // ratio in [0,1]
}

// Score maps the factors to a 0–100 confidence value as a weighted sum.
// Monotone in every factor; all-false with zero completeness scores 0,
// all-true with full completeness scores 100.
func (f ConfidenceFactors) Score() int {
	completeness := f.DataCompleteness
	if completeness < 0 {
		completeness = 0
	}
	if completeness > 1 {
		completeness = 1
	}

	score := 0.0
	if f.HasRealDomain {
		score += weightRealDomain
	}
	if f.HasDBDData {
		score += weightDBDData
	}
	if f.KeywordMatch {
		score += weightKeywordMatch
	}
	if f.GeminiConfident {
		score += weightGeminiConfident
	}
	score += completeness * weightCompleteness

	return int(score + 0.5)
}
