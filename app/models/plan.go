package models

import "time"

const (
	BillingCycleMonthly = "monthly"
	BillingCycleAnnual  = "annual"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Capability flags a plan may grant. Gated endpoints check these through the
// limit gate rather than reading plans directly.
const (
	FeatureZapierIntegration = "zapier_integration"
	FeatureRemoveBranding    = "remove_branding"
	FeatureHidePositionCount = "hide_position_count"
	FeatureEmailBlasts       = "email_blasts"
	FeatureDeepAnalytics     = "analytics_deep"
	FeatureMultiUserTeam     = "multi_user_team"
	FeatureMoveUserPosition  = "move_user_position"
)

// SubscriptionPlan is a catalog entry mapping a plan to its entitlements.
// Nil limits mean unlimited.
type SubscriptionPlan struct {
	ID                 string      `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;primaryKey" json:"id"`
	Name               string      `gorm:"type:varchar(100);not null" json:"name"`
	Description        string      `gorm:"type:text" json:"description"`
	MonthlyPrice       int64       `gorm:"default:0" json:"monthly_price"`
	AnnualPrice        int64       `gorm:"default:0" json:"annual_price"`
	MaxWaitlists       *int64      `gorm:"default:null" json:"max_waitlists"`
	MaxSignupsPerMonth *int64      `gorm:"default:null" json:"max_signups_per_month"`
	MaxTeamMembers     *int64      `gorm:"default:null" json:"max_team_members"`
	Features           StringSlice `gorm:"type:json" json:"features"`
	IsActive           bool        `gorm:"default:true" json:"is_active"`
	SortOrder          int         `gorm:"default:0" json:"sort_order"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// Subscription links a principal to a plan. The billing provider lifecycle
// (checkout, portal, renewal) lives outside this core; only the resolved
// state is stored here.
type Subscription struct {
	ID                 string            `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;primaryKey" json:"id"`
	PrincipalID        string            `gorm:"type:varchar(191);not null;index:idx_subscriptions_principal_status,priority:1" json:"principal_id"`
	PlanID             string            `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;not null;index" json:"plan_id"`
	Plan               *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	BillingCycle       string            `gorm:"type:varchar(16);default:'monthly'" json:"billing_cycle"`
	Status             string            `gorm:"type:varchar(20);default:'active';index:idx_subscriptions_principal_status,priority:2" json:"status"`
	CurrentPeriodStart time.Time         `gorm:"autoCreateTime" json:"current_period_start"`
	CurrentPeriodEnd   time.Time         `json:"current_period_end"`
	CancelledAt        *time.Time        `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
