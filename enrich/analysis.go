package enrich

import (
	"strings"

	"leadflow/utils"
)

// CompanyAnalysis is the ephemeral AI-enrichment result merged into a lead at
// creation time. Grounding fields come from the DBD registry lookup and are
// often absent; absence is a normal outcome.
type CompanyAnalysis struct {
	Industry     string                  `json:"industry"`
	Confidence   int                     `json:"confidence"` // 0–100
	Factors      utils.ConfidenceFactors `json:"factors"`
	TalkingPoint string                  `json:"talking_point"`

	RegistrationID string `json:"registration_id,omitempty"`
	SectorCode     string `json:"sector_code,omitempty"`
	Province       string `json:"province,omitempty"`
	Address        string `json:"address,omitempty"`
}

// Free mail providers whose domains say nothing about the company.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"yahoo.com":      true,
	"outlook.com":    true,
	"hotmail.com":    true,
	"aol.com":        true,
	"protonmail.com": true,
	"icloud.com":     true,
	"mail.com":       true,
	"yandex.com":     true,
	"zoho.com":       true,
	"gmx.com":        true,
}

// HasRealDomain reports whether domain looks like a company's own domain
// rather than a free mail provider's.
func HasRealDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	return !freeMailDomains[domain]
}

// DomainOf extracts the domain part of an email address.
func DomainOf(email string) string {
	_, domain, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return strings.ToLower(domain)
}

// DefaultAnalysis is the degraded result used when enrichment fails or there
// is nothing to analyze: all factors false, score 0.
func DefaultAnalysis() *CompanyAnalysis {
	return &CompanyAnalysis{
		Industry:   "unknown",
		Confidence: 0,
	}
}

// completeness is the filled-field ratio over the analysis attributes that
// matter to sales: industry, talking point, registration id, address.
func (a *CompanyAnalysis) completeness() float64 {
	fields := []string{a.Industry, a.TalkingPoint, a.RegistrationID, a.Address}
	filled := 0
	for _, f := range fields {
		if f != "" && f != "unknown" {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

// Finalize computes completeness and the weighted confidence score after all
// factors are in.
func (a *CompanyAnalysis) Finalize() {
	a.Factors.DataCompleteness = a.completeness()
	a.Confidence = a.Factors.Score()
}
