package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Somchai@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "somchai@example.com", got)
}

func TestNormalizeEmailRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "not-an-email", "missing@tld@twice"} {
		_, err := NormalizeEmail(input)
		assert.Error(t, err, "input %q", input)
	}
}
