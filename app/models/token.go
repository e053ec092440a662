package models

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const (
	APIKeyPrefix        = "wl_"
	AutomationKeyPrefix = "ak_"
	WebhookSecretPrefix = "whsec_"
	SignupIDPrefix      = "sg_"
)

// RandomToken returns a lowercase base32 token of the requested length built
// from crypto/rand material.
func RandomToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}
	// base32 yields 8 chars per 5 bytes; over-allocate and cut.
	raw := make([]byte, (length*5)/8+5)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	encoded := strings.ToLower(tokenEncoding.EncodeToString(raw))
	return encoded[:length], nil
}

// NewAPIKey generates a waitlist-scoped API key.
func NewAPIKey() (string, error) {
	token, err := RandomToken(32)
	if err != nil {
		return "", err
	}
	return APIKeyPrefix + token, nil
}

// NewAutomationKey generates a key for automation-platform callers.
func NewAutomationKey() (string, error) {
	token, err := RandomToken(32)
	if err != nil {
		return "", err
	}
	return AutomationKeyPrefix + token, nil
}

// NewWebhookSecret generates a signing secret for a webhook target.
func NewWebhookSecret() (string, error) {
	token, err := RandomToken(32)
	if err != nil {
		return "", err
	}
	return WebhookSecretPrefix + token, nil
}

// NewEntityID generates an opaque identifier for registry entities.
func NewEntityID() (string, error) {
	return RandomToken(20)
}

// NewSignupID generates a prefixed identifier for ledger records.
func NewSignupID() (string, error) {
	token, err := RandomToken(20)
	if err != nil {
		return "", err
	}
	return SignupIDPrefix + token, nil
}

// NewReferralCode generates a short shareable referral token.
func NewReferralCode() (string, error) {
	return RandomToken(10)
}
