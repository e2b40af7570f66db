package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUID = "lead_9f1c0b3a-4c2d-4e8f-9a6b-1d2e3f4a5b6c"

func TestParsePostbackData(t *testing.T) {
	parsed, err := ParsePostbackData("action=claim&lead_id=" + testUID + "&row_id=7")
	require.NoError(t, err)
	assert.Equal(t, "claim", parsed.Action)
	assert.Equal(t, testUID, parsed.LeadUID)
	assert.Equal(t, uint(7), parsed.RowID)
	assert.True(t, parsed.HasUID())
}

func TestParsePostbackDataLegacyRowOnly(t *testing.T) {
	parsed, err := ParsePostbackData("action=close&row_id=42")
	require.NoError(t, err)
	assert.Equal(t, "close", parsed.Action)
	assert.False(t, parsed.HasUID())
	assert.Equal(t, uint(42), parsed.RowID)
}

func TestParsePostbackDataDuplicateKeysKeepFirst(t *testing.T) {
	parsed, err := ParsePostbackData("action=claim&action=close&row_id=1&row_id=2")
	require.NoError(t, err)
	assert.Equal(t, "claim", parsed.Action)
	assert.Equal(t, uint(1), parsed.RowID)
}

func TestParsePostbackDataErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no action", "lead_id=" + testUID},
		{"no reference", "action=claim"},
		{"malformed pair", "action=claim&rubbish"},
		{"bad lead reference", "action=claim&lead_id=lead_nope"},
		{"bad row reference", "action=claim&row_id=seven"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePostbackData(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestParsePostbackDataIgnoresUnknownKeys(t *testing.T) {
	parsed, err := ParsePostbackData("action=lost&foo=bar&row_id=3")
	require.NoError(t, err)
	assert.Equal(t, "lost", parsed.Action)
}
