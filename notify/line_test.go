package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	secret := "channel-secret"
	body := []byte(`{"events":[]}`)

	assert.True(t, ValidateSignature(secret, sign(secret, body), body))
	assert.False(t, ValidateSignature(secret, sign("other-secret", body), body))
	assert.False(t, ValidateSignature(secret, sign(secret, []byte("tampered")), body))
	assert.False(t, ValidateSignature(secret, "not base64!!!", body))
	assert.False(t, ValidateSignature(secret, "", body))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	long := "a company name that is far too long for a card title"
	got := truncate(long, 20)
	assert.Len(t, got, 20)
	assert.Equal(t, "...", got[17:])
}

func TestNewLineNotifierRequiresToken(t *testing.T) {
	_, err := NewLineNotifier("", "group")
	assert.Error(t, err)
}
