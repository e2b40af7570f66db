package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRealDomain(t *testing.T) {
	assert.True(t, HasRealDomain("somchai-logistics.co.th"))
	assert.True(t, HasRealDomain("Example.COM"))

	assert.False(t, HasRealDomain("gmail.com"))
	assert.False(t, HasRealDomain("HOTMAIL.com"))
	assert.False(t, HasRealDomain(""))
	assert.False(t, HasRealDomain("localhost"), "no dot means no real domain")
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", DomainOf("somchai@Example.Com"))
	assert.Empty(t, DomainOf("no-at-sign"))
}

func TestDefaultAnalysisScoresZero(t *testing.T) {
	a := DefaultAnalysis()
	assert.Zero(t, a.Confidence)
	assert.Equal(t, "unknown", a.Industry)
}

func TestFinalizeCompleteness(t *testing.T) {
	empty := &CompanyAnalysis{Industry: "unknown"}
	empty.Finalize()
	assert.Zero(t, empty.Factors.DataCompleteness)
	assert.Zero(t, empty.Confidence)

	full := &CompanyAnalysis{
		Industry:       "logistics",
		TalkingPoint:   "ask about cross-border freight",
		RegistrationID: "0105551234567",
		Address:        "123 Rama IV Rd, Bangkok",
	}
	full.Factors.HasRealDomain = true
	full.Factors.HasDBDData = true
	full.Factors.KeywordMatch = true
	full.Factors.GeminiConfident = true
	full.Finalize()
	assert.InDelta(t, 1.0, full.Factors.DataCompleteness, 1e-9)
	assert.Equal(t, 100, full.Confidence)

	half := &CompanyAnalysis{
		Industry:     "retail",
		TalkingPoint: "ask about store footprint",
	}
	half.Finalize()
	assert.InDelta(t, 0.5, half.Factors.DataCompleteness, 1e-9)
}

func TestAnalyzeSkipsIncompleteInput(t *testing.T) {
	// No company name or no email domain means nothing to look up: the
	// analyzer returns the zero-score default before reaching Gemini or DBD,
	// so a client-less analyzer is safe here.
	g := &GeminiAnalyzer{}
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		company string
		email   string
	}{
		{"empty company, real domain", "", "x@acme.co"},
		{"empty company, free mail", "", "x@gmail.com"},
		{"company but no domain", "Acme Co", "no-at-sign"},
		{"nothing at all", "", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, err := g.Analyze(ctx, tc.company, tc.email)
			require.NoError(t, err)
			assert.Zero(t, a.Confidence)
			assert.False(t, a.Factors.HasRealDomain)
			assert.False(t, a.Factors.HasDBDData)
			assert.False(t, a.Factors.KeywordMatch)
			assert.False(t, a.Factors.GeminiConfident)
		})
	}
}

func TestNoopAnalyzer(t *testing.T) {
	a, err := NewNoopAnalyzer().Analyze(context.Background(), "Acme", "x@acme.co")
	require.NoError(t, err)
	assert.Zero(t, a.Confidence)
}
