package repository

import (
	"github.com/riceboxdev/Velvet/app/models"
	"gorm.io/gorm"
)

// automationHookRepository implements the AutomationHookRepository interface
type automationHookRepository struct {
	db *gorm.DB
}

// NewAutomationHookRepository creates a new automation hook repository instance
func NewAutomationHookRepository(db *gorm.DB) AutomationHookRepository {
	return &automationHookRepository{db: db}
}

// Create inserts a new hook subscription
func (r *automationHookRepository) Create(hook *models.AutomationHook) error {
	return r.db.Create(hook).Error
}

// GetByID retrieves a hook by its identifier
func (r *automationHookRepository) GetByID(id string) (*models.AutomationHook, error) {
	var hook models.AutomationHook
	if err := r.db.Where("id = ?", id).First(&hook).Error; err != nil {
		return nil, err
	}
	return &hook, nil
}

// GetByWaitlist lists all hooks registered for a waitlist
func (r *automationHookRepository) GetByWaitlist(waitlistID string) ([]models.AutomationHook, error) {
	var hooks []models.AutomationHook
	err := r.db.Where("waitlist_id = ?", waitlistID).Find(&hooks).Error
	return hooks, err
}

// GetActiveForEvent returns active hooks subscribed to the given event
func (r *automationHookRepository) GetActiveForEvent(waitlistID, event string) ([]models.AutomationHook, error) {
	var hooks []models.AutomationHook
	err := r.db.Where("waitlist_id = ? AND event = ? AND is_active = ?", waitlistID, event, true).
		Find(&hooks).Error
	return hooks, err
}

// Delete removes a hook subscription
func (r *automationHookRepository) Delete(id string) error {
	result := r.db.Delete(&models.AutomationHook{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
