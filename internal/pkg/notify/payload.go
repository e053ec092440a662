package notify

import (
	"fmt"
	"time"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/internal/pkg/env"
)

// SignupPayload is the flattened signup representation shared by webhook and
// automation deliveries. Automation consumers map fields by name, so the
// legacy aliases (referral_token, amount_referred) are kept alongside the
// canonical names.
type SignupPayload struct {
	ID             string          `json:"id"`
	WaitlistID     string          `json:"waitlist_id"`
	Email          string          `json:"email"`
	Position       int64           `json:"position"`
	Priority       int64           `json:"priority"`
	Status         string          `json:"status"`
	ReferralCode   string          `json:"referral_code"`
	ReferralToken  string          `json:"referral_token"`
	ReferralLink   string          `json:"referral_link"`
	ReferredBy     string          `json:"referred_by,omitempty"`
	ReferralCount  int64           `json:"referral_count"`
	AmountReferred int64           `json:"amount_referred"`
	Metadata       models.Metadata `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`

	// Populated on offboard deliveries only.
	RemovedDate     *time.Time `json:"removed_date,omitempty"`
	RemovedPriority *int64     `json:"removed_priority,omitempty"`
}

// WebhookEnvelope wraps a signup payload for webhook endpoints.
type WebhookEnvelope struct {
	ID        string        `json:"id"`
	Event     string        `json:"event"`
	Timestamp int64         `json:"timestamp"`
	Data      SignupPayload `json:"data"`
}

// ReferralLink builds the public join URL carrying a signup's referral code.
func ReferralLink(waitlistID, referralCode string) string {
	return fmt.Sprintf("%s/join/%s?ref=%s", env.BaseURL(), waitlistID, referralCode)
}

// NewSignupPayload flattens a signup record for delivery.
func NewSignupPayload(signup *models.Signup) SignupPayload {
	return SignupPayload{
		ID:             signup.ID,
		WaitlistID:     signup.WaitlistID,
		Email:          signup.Email,
		Position:       signup.Position,
		Priority:       signup.Priority,
		Status:         signup.Status,
		ReferralCode:   signup.ReferralCode,
		ReferralToken:  signup.ReferralCode,
		ReferralLink:   ReferralLink(signup.WaitlistID, signup.ReferralCode),
		ReferredBy:     signup.ReferredBy,
		ReferralCount:  signup.ReferralCount,
		AmountReferred: signup.ReferralCount,
		Metadata:       signup.Metadata,
		CreatedAt:      signup.CreatedAt,
	}
}

// NewOffboardPayload flattens an admitted signup, stamping the removal fields
// automation consumers expect.
func NewOffboardPayload(signup *models.Signup) SignupPayload {
	payload := NewSignupPayload(signup)
	removedAt := time.Now().UTC()
	if signup.AdmittedAt != nil {
		removedAt = *signup.AdmittedAt
	}
	priority := signup.Priority
	payload.RemovedDate = &removedAt
	payload.RemovedPriority = &priority
	return payload
}
