package enrich

import "context"

// NoopAnalyzer is used when no Gemini key is configured: every lead gets the
// zero-score default analysis.
type NoopAnalyzer struct{}

func NewNoopAnalyzer() *NoopAnalyzer { return &NoopAnalyzer{} }

func (NoopAnalyzer) Analyze(ctx context.Context, company, email string) (*CompanyAnalysis, error) {
	return DefaultAnalysis(), nil
}
