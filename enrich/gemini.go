package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"leadflow/utils"
)

const (
	// DefaultModel is the Gemini model used for company analysis.
	DefaultModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single analysis call.
	DefaultTimeout = 30 * time.Second
)

// Analyzer produces a company analysis for a lead. Implementations are
// best-effort: a failed analysis degrades to DefaultAnalysis upstream and
// never blocks lead creation.
type Analyzer interface {
	Analyze(ctx context.Context, company, email string) (*CompanyAnalysis, error)
}

// GeminiConfig configures the Gemini-backed analyzer.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// Keywords mark industries the sales team actively targets.
	Keywords []string
}

// GeminiAnalyzer enriches leads with a Gemini company analysis grounded by a
// DBD registry lookup. Both calls run behind their own circuit breaker.
type GeminiAnalyzer struct {
	client  *genai.Client
	config  GeminiConfig
	dbd     *DBDClient
	breaker *gobreaker.CircuitBreaker
}

// NewGeminiAnalyzer creates the analyzer. dbd may be nil; grounding is then
// skipped entirely.
func NewGeminiAnalyzer(ctx context.Context, config GeminiConfig, dbd *DBDClient) (*GeminiAnalyzer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if len(config.Keywords) == 0 {
		config.Keywords = []string{"logistics", "manufacturing", "retail", "construction", "food"}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiAnalyzer{
		client:  client,
		config:  config,
		dbd:     dbd,
		breaker: utils.NewBreaker("gemini"),
	}, nil
}

// geminiVerdict is the JSON shape the model is asked to produce.
type geminiVerdict struct {
	Industry     string `json:"industry"`
	Confident    bool   `json:"confident"`
	TalkingPoint string `json:"talking_point"`
}

// Analyze runs the enrichment pipeline: Gemini industry analysis, DBD
// grounding, factor scoring. An empty company name or an empty email domain
// yields the zero-score default without calling anything.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, company, email string) (*CompanyAnalysis, error) {
	domain := DomainOf(email)
	if company == "" || domain == "" {
		return DefaultAnalysis(), nil
	}

	analysis := &CompanyAnalysis{Industry: "unknown"}
	analysis.Factors.HasRealDomain = HasRealDomain(domain)

	verdict, err := g.generate(ctx, company, domain)
	if err != nil {
		return nil, err
	}
	if verdict.Industry != "" {
		analysis.Industry = verdict.Industry
	}
	analysis.TalkingPoint = verdict.TalkingPoint
	analysis.Factors.GeminiConfident = verdict.Confident
	analysis.Factors.KeywordMatch = g.matchesKeyword(verdict.Industry)

	if g.dbd != nil {
		record, err := g.dbd.Lookup(ctx, company)
		if err != nil {
			logrus.WithError(err).WithField("company", company).Warn("DBD lookup failed, continuing without grounding")
		} else if record != nil {
			analysis.Factors.HasDBDData = true
			analysis.RegistrationID = record.RegistrationID
			analysis.SectorCode = record.SectorCode
			analysis.Province = record.Province
			analysis.Address = record.Address
		}
	}

	analysis.Finalize()
	return analysis, nil
}

func (g *GeminiAnalyzer) generate(ctx context.Context, company, domain string) (*geminiVerdict, error) {
	prompt := fmt.Sprintf(`You are a B2B sales analyst. Analyze the company below and answer in JSON only.

Company name: %q
Email domain: %q

Respond with exactly these fields:
{"industry": "<one short industry label in English>", "confident": <true if the name and domain clearly identify a real business>, "talking_point": "<one sentence a sales rep can open a call with>"}`,
		company, domain)

	var verdict geminiVerdict
	err := utils.RetryWithBreaker(ctx, g.breaker, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()

		result, err := g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			return utils.Transient("gemini generate", err)
		}

		text := strings.TrimSpace(result.Text())
		if err := json.Unmarshal([]byte(text), &verdict); err != nil {
			// A malformed answer is the model's fault, not the network's;
			// retrying the same prompt is still the best we can do.
			return utils.Transient("parse gemini response", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (g *GeminiAnalyzer) matchesKeyword(industry string) bool {
	industry = strings.ToLower(industry)
	for _, kw := range g.config.Keywords {
		if strings.Contains(industry, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
