package limits

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/repository"
)

// Limit type identifiers, also used verbatim in 403 response bodies.
const (
	LimitMaxWaitlists       = "max_waitlists"
	LimitMaxSignupsPerMonth = "max_signups_per_month"
	LimitMaxTeamMembers     = "max_team_members"
)

// FreePlanName labels the implicit tier for principals without a subscription.
const FreePlanName = "Free"

// PlanLimits is the resolved entitlement snapshot for a principal. Nil limit
// values mean unlimited.
type PlanLimits struct {
	MaxWaitlists       *int64   `json:"max_waitlists"`
	MaxSignupsPerMonth *int64   `json:"max_signups_per_month"`
	MaxTeamMembers     *int64   `json:"max_team_members"`
	Features           []string `json:"features"`
	PlanName           string   `json:"plan_name"`
	HasSubscription    bool     `json:"has_subscription"`
}

// HasFeature reports whether the plan grants the named capability.
func (pl *PlanLimits) HasFeature(feature string) bool {
	for _, f := range pl.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Limit returns the value for a limit type; nil means unlimited.
func (pl *PlanLimits) Limit(limitType string) *int64 {
	switch limitType {
	case LimitMaxWaitlists:
		return pl.MaxWaitlists
	case LimitMaxSignupsPerMonth:
		return pl.MaxSignupsPerMonth
	case LimitMaxTeamMembers:
		return pl.MaxTeamMembers
	default:
		return nil
	}
}

// FreeTier returns the fixed default limits applied when a principal has no
// active subscription.
func FreeTier() *PlanLimits {
	one := int64(1)
	hundred := int64(100)
	return &PlanLimits{
		MaxWaitlists:       &one,
		MaxSignupsPerMonth: &hundred,
		MaxTeamMembers:     &one,
		Features:           []string{},
		PlanName:           FreePlanName,
	}
}

// LimitExceededError reports a quota breach for a specific limit type.
type LimitExceededError struct {
	LimitType string
	Limit     int64
	Usage     int64
	PlanName  string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit %s reached (%d/%d) on plan %s", e.LimitType, e.Usage, e.Limit, e.PlanName)
}

// FeatureRestrictedError reports a missing capability flag.
type FeatureRestrictedError struct {
	Feature  string
	PlanName string
}

func (e *FeatureRestrictedError) Error() string {
	return fmt.Sprintf("feature %s is not included in plan %s", e.Feature, e.PlanName)
}

// Gate resolves plan limits and enforces them before registry/ledger
// mutations. The quota check and the subsequent write are deliberately not
// one atomic unit; marginal over-allocation under concurrency is accepted.
type Gate struct {
	subscriptions repository.SubscriptionRepository
}

// NewGate creates a limit gate from an injected subscription repository.
func NewGate(subscriptions repository.SubscriptionRepository) *Gate {
	return &Gate{subscriptions: subscriptions}
}

// ResolveLimits returns the principal's entitlement snapshot, falling back to
// the free tier when no active subscription exists.
func (g *Gate) ResolveLimits(principalID string) (*PlanLimits, error) {
	sub, err := g.subscriptions.GetActiveByPrincipal(principalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FreeTier(), nil
		}
		return nil, err
	}
	if sub.Plan == nil {
		return FreeTier(), nil
	}

	features := []string(sub.Plan.Features)
	if features == nil {
		features = []string{}
	}
	return &PlanLimits{
		MaxWaitlists:       sub.Plan.MaxWaitlists,
		MaxSignupsPerMonth: sub.Plan.MaxSignupsPerMonth,
		MaxTeamMembers:     sub.Plan.MaxTeamMembers,
		Features:           features,
		PlanName:           sub.Plan.Name,
		HasSubscription:    true,
	}, nil
}

// EnforceLimit fails with LimitExceededError when current usage has reached
// the resolved limit. The usage accessor only runs for bounded limits.
func (g *Gate) EnforceLimit(principalID, limitType string, currentUsage func() (int64, error)) error {
	planLimits, err := g.ResolveLimits(principalID)
	if err != nil {
		return err
	}
	limit := planLimits.Limit(limitType)
	if limit == nil {
		return nil
	}
	usage, err := currentUsage()
	if err != nil {
		return err
	}
	if usage >= *limit {
		return &LimitExceededError{
			LimitType: limitType,
			Limit:     *limit,
			Usage:     usage,
			PlanName:  planLimits.PlanName,
		}
	}
	return nil
}

// RequireFeature fails with FeatureRestrictedError when the principal's plan
// does not grant the capability.
func (g *Gate) RequireFeature(principalID, feature string) error {
	planLimits, err := g.ResolveLimits(principalID)
	if err != nil {
		return err
	}
	if !planLimits.HasFeature(feature) {
		return &FeatureRestrictedError{Feature: feature, PlanName: planLimits.PlanName}
	}
	return nil
}
