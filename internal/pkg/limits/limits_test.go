package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
)

type stubSubscriptionRepo struct {
	subs map[string]*models.Subscription
}

func (s *stubSubscriptionRepo) CreatePlan(plan *models.SubscriptionPlan) error { return nil }
func (s *stubSubscriptionRepo) GetPlanByID(id string) (*models.SubscriptionPlan, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubSubscriptionRepo) GetActivePlans() ([]models.SubscriptionPlan, error) { return nil, nil }
func (s *stubSubscriptionRepo) CreateSubscription(sub *models.Subscription) error  { return nil }
func (s *stubSubscriptionRepo) CancelSubscription(id string) error                 { return nil }
func (s *stubSubscriptionRepo) GetActiveByPrincipal(principalID string) (*models.Subscription, error) {
	if sub, ok := s.subs[principalID]; ok {
		return sub, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newStubGate(subs map[string]*models.Subscription) *Gate {
	return NewGate(&stubSubscriptionRepo{subs: subs})
}

func TestResolveLimitsFreeTierDefault(t *testing.T) {
	gate := newStubGate(nil)

	planLimits, err := gate.ResolveLimits("usr_free")
	require.NoError(t, err)

	assert.Equal(t, FreePlanName, planLimits.PlanName)
	assert.False(t, planLimits.HasSubscription)
	require.NotNil(t, planLimits.MaxWaitlists)
	assert.EqualValues(t, 1, *planLimits.MaxWaitlists)
	require.NotNil(t, planLimits.MaxSignupsPerMonth)
	assert.EqualValues(t, 100, *planLimits.MaxSignupsPerMonth)
	assert.Empty(t, planLimits.Features)
}

func TestResolveLimitsFromActivePlan(t *testing.T) {
	ten := int64(10)
	gate := newStubGate(map[string]*models.Subscription{
		"usr_pro": {
			PrincipalID: "usr_pro",
			Status:      models.SubscriptionStatusActive,
			Plan: &models.SubscriptionPlan{
				Name:         "Advanced",
				MaxWaitlists: &ten,
				Features:     models.StringSlice{models.FeatureZapierIntegration},
			},
		},
	})

	planLimits, err := gate.ResolveLimits("usr_pro")
	require.NoError(t, err)
	assert.True(t, planLimits.HasSubscription)
	assert.Equal(t, "Advanced", planLimits.PlanName)
	assert.True(t, planLimits.HasFeature(models.FeatureZapierIntegration))
	assert.Nil(t, planLimits.MaxSignupsPerMonth, "unset plan limit means unlimited")
}

func TestEnforceLimitFreeTierSecondWaitlist(t *testing.T) {
	gate := newStubGate(nil)

	err := gate.EnforceLimit("usr_free", LimitMaxWaitlists, func() (int64, error) {
		return 1, nil
	})

	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, LimitMaxWaitlists, limitErr.LimitType)
	assert.EqualValues(t, 1, limitErr.Limit)
	assert.EqualValues(t, 1, limitErr.Usage)
}

func TestEnforceLimitUnderQuota(t *testing.T) {
	gate := newStubGate(nil)

	err := gate.EnforceLimit("usr_free", LimitMaxWaitlists, func() (int64, error) {
		return 0, nil
	})
	assert.NoError(t, err)
}

func TestEnforceLimitUnlimitedSkipsUsage(t *testing.T) {
	gate := newStubGate(map[string]*models.Subscription{
		"usr_scale": {
			PrincipalID: "usr_scale",
			Status:      models.SubscriptionStatusActive,
			Plan:        &models.SubscriptionPlan{Name: "Scale"},
		},
	})

	called := false
	err := gate.EnforceLimit("usr_scale", LimitMaxWaitlists, func() (int64, error) {
		called = true
		return 999, nil
	})
	require.NoError(t, err)
	assert.False(t, called, "usage accessor must not run for unlimited plans")
}

func TestRequireFeature(t *testing.T) {
	gate := newStubGate(nil)

	err := gate.RequireFeature("usr_free", models.FeatureZapierIntegration)
	var featureErr *FeatureRestrictedError
	require.ErrorAs(t, err, &featureErr)
	assert.Equal(t, models.FeatureZapierIntegration, featureErr.Feature)
	assert.Equal(t, FreePlanName, featureErr.PlanName)
}
