package utils

import (
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
)

// NormalizeEmail lowercases and trims an address and checks its syntax. The
// normalized form is what the dedup key is built from, so every path that
// writes a lead must go through it.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", fmt.Errorf("email is empty")
	}
	if err := checkmail.ValidateFormat(normalized); err != nil {
		return "", fmt.Errorf("invalid email %q: %w", normalized, err)
	}
	return normalized, nil
}
