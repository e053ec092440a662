package repository

import (
	"errors"
	"time"

	"github.com/riceboxdev/Velvet/app/models"
	"gorm.io/gorm"
)

// Typed failures raised by the ledger. NotFound surfaces as
// gorm.ErrRecordNotFound so callers keep a single errors.Is check.
var (
	// ErrDuplicateEmail is returned together with the existing record when a
	// join repeats a (waitlist, email) pair.
	ErrDuplicateEmail = errors.New("email already registered for this waitlist")
	// ErrAlreadyAdmitted is returned when offboarding an admitted signup.
	ErrAlreadyAdmitted = errors.New("signup already admitted")
)

// SignupListOptions control tenant-side listing of ledger records. Unknown
// sort fields fall back to position rather than erroring.
type SignupListOptions struct {
	Limit  int
	Offset int
	Status string
	SortBy string
	Order  string
}

// EffectiveLimit is the page size actually applied: defaulted when absent,
// capped when excessive.
func (o SignupListOptions) EffectiveLimit() int {
	return resolveListLimit(o.Limit)
}

// WaitlistStats is the full-scan aggregate over a waitlist's signups.
type WaitlistStats struct {
	TotalSignups   int64 `json:"total_signups"`
	Waiting        int64 `json:"waiting"`
	Verified       int64 `json:"verified"`
	Admitted       int64 `json:"admitted"`
	TotalReferrals int64 `json:"total_referrals"`
}

// WaitlistRepository owns waitlist entities, their settings document and API
// credentials.
type WaitlistRepository interface {
	Create(waitlist *models.Waitlist) error
	GetByID(id string) (*models.Waitlist, error)
	GetByAPIKey(apiKey string) (*models.Waitlist, error)
	GetByAutomationKey(automationKey string) (*models.Waitlist, error)
	GetByOwner(ownerID string) ([]models.Waitlist, error)
	CountByOwner(ownerID string) (int64, error)
	Update(waitlist *models.Waitlist) error
	SaveSettings(id string, settings models.WaitlistSettings) error
	RegenerateAPIKey(id string) (*models.Waitlist, error)
	RegenerateAutomationKey(id string) (*models.Waitlist, error)
	Delete(id string) error
}

// SignupRepository is the signup ledger: creation order, referral links and
// the contended priority/counter fields.
type SignupRepository interface {
	Create(signup *models.Signup) (*models.Signup, error)
	GetByID(id string) (*models.Signup, error)
	GetByEmail(waitlistID, email string) (*models.Signup, error)
	GetByReferralCode(referralCode string) (*models.Signup, error)
	ListByWaitlist(waitlistID string, opts SignupListOptions) ([]models.Signup, error)
	ApplyReferralBoost(referralCode string, boost int64) (*models.Signup, error)
	Verify(id string) (*models.Signup, error)
	Offboard(id string) (*models.Signup, error)
	AdvancePriority(id string, amount int64) (*models.Signup, error)
	Delete(id string) error
	CountByWaitlist(waitlistID, status string) (int64, error)
	CountCreatedSince(waitlistIDs []string, since time.Time) (int64, error)
	CountRankedAhead(waitlistID string, priority, position int64) (int64, error)
	Leaderboard(waitlistID string, limit int) ([]models.Signup, error)
	Stats(waitlistID string) (*WaitlistStats, error)
}

// WebhookRepository stores signed-delivery targets.
type WebhookRepository interface {
	Create(webhook *models.Webhook) error
	GetByID(id string) (*models.Webhook, error)
	GetByWaitlist(waitlistID string) ([]models.Webhook, error)
	GetActiveForEvent(waitlistID, event string) ([]models.Webhook, error)
	Update(webhook *models.Webhook) error
	Delete(id string) error
}

// AutomationHookRepository stores single-event automation subscriptions.
type AutomationHookRepository interface {
	Create(hook *models.AutomationHook) error
	GetByID(id string) (*models.AutomationHook, error)
	GetByWaitlist(waitlistID string) ([]models.AutomationHook, error)
	GetActiveForEvent(waitlistID, event string) ([]models.AutomationHook, error)
	Delete(id string) error
}

// SubscriptionRepository resolves a principal's active plan. The billing
// provider writes these rows through an external sync; this core only reads
// and administers them.
type SubscriptionRepository interface {
	CreatePlan(plan *models.SubscriptionPlan) error
	GetPlanByID(id string) (*models.SubscriptionPlan, error)
	GetActivePlans() ([]models.SubscriptionPlan, error)
	CreateSubscription(sub *models.Subscription) error
	GetActiveByPrincipal(principalID string) (*models.Subscription, error)
	CancelSubscription(id string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Waitlist       WaitlistRepository
	Signup         SignupRepository
	Webhook        WebhookRepository
	AutomationHook AutomationHookRepository
	Subscription   SubscriptionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Waitlist:       NewWaitlistRepository(db),
		Signup:         NewSignupRepository(db),
		Webhook:        NewWebhookRepository(db),
		AutomationHook: NewAutomationHookRepository(db),
		Subscription:   NewSubscriptionRepository(db),
	}
}
