package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// LeadUIDPrefix distinguishes canonical lead references from legacy row
// ordinals in postback payloads.
const LeadUIDPrefix = "lead_"

var leadUIDRegex = regexp.MustCompile(`^lead_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// GenerateLeadUID returns a new prefixed lead identifier, e.g.
// "lead_9f1c0b3a-4c2d-4e8f-9a6b-1d2e3f4a5b6c".
func GenerateLeadUID() string {
	return LeadUIDPrefix + uuid.New().String()
}

// IsValidLeadUID reports whether s is a well-formed prefixed lead identifier.
func IsValidLeadUID(s string) bool {
	return leadUIDRegex.MatchString(s)
}

// ExtractUUID returns the raw 36-character UUID from a prefixed lead
// identifier, or "" when s is not one.
func ExtractUUID(s string) string {
	if !IsValidLeadUID(s) {
		return ""
	}
	return strings.TrimPrefix(s, LeadUIDPrefix)
}
