package repository

import (
	"time"

	"github.com/riceboxdev/Velvet/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// CreatePlan inserts a plan catalog entry
func (r *subscriptionRepository) CreatePlan(plan *models.SubscriptionPlan) error {
	if plan.ID == "" {
		id, err := models.NewEntityID()
		if err != nil {
			return err
		}
		plan.ID = id
	}
	return r.db.Create(plan).Error
}

// GetPlanByID retrieves a plan by its identifier
func (r *subscriptionRepository) GetPlanByID(id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActivePlans lists the purchasable plans in display order
func (r *subscriptionRepository) GetActivePlans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("sort_order ASC").Find(&plans).Error
	return plans, err
}

// CreateSubscription inserts a subscription row produced by the billing sync
func (r *subscriptionRepository) CreateSubscription(sub *models.Subscription) error {
	if sub.ID == "" {
		id, err := models.NewEntityID()
		if err != nil {
			return err
		}
		sub.ID = id
	}
	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusActive
	}
	return r.db.Create(sub).Error
}

// GetActiveByPrincipal returns the principal's active subscription with its
// plan preloaded, or gorm.ErrRecordNotFound when the principal is on the
// free tier.
func (r *subscriptionRepository) GetActiveByPrincipal(principalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").
		Where("principal_id = ? AND status = ?", principalID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription marks a subscription cancelled
func (r *subscriptionRepository) CancelSubscription(id string) error {
	now := time.Now()
	result := r.db.Model(&models.Subscription{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionStatusCancelled,
			"cancelled_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
