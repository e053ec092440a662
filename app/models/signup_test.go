package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "abc***@example.com", MaskEmail("abcdef@example.com"))
	assert.Equal(t, "ab***@example.com", MaskEmail("ab@example.com"))
	assert.Equal(t, "***@***", MaskEmail("not-an-email"))
	assert.Equal(t, "***@***", MaskEmail("@example.com"))
}

func TestNewSignupID(t *testing.T) {
	id, err := NewSignupID()
	require.NoError(t, err)
	assert.Len(t, id, len(SignupIDPrefix)+20)
	assert.Contains(t, id, SignupIDPrefix)
}

func TestNewReferralCodeUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := NewReferralCode()
		require.NoError(t, err)
		require.Len(t, code, 10)
		assert.False(t, seen[code], "referral code collision")
		seen[code] = true
	}
}

func TestTokenPrefixes(t *testing.T) {
	apiKey, err := NewAPIKey()
	require.NoError(t, err)
	assert.Contains(t, apiKey, APIKeyPrefix)

	automationKey, err := NewAutomationKey()
	require.NoError(t, err)
	assert.Contains(t, automationKey, AutomationKeyPrefix)

	secret, err := NewWebhookSecret()
	require.NoError(t, err)
	assert.Contains(t, secret, WebhookSecretPrefix)
}
