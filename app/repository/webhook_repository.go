package repository

import (
	"github.com/riceboxdev/Velvet/app/models"
	"gorm.io/gorm"
)

// webhookRepository implements the WebhookRepository interface
type webhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a new webhook repository instance
func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

// Create inserts a new webhook target
func (r *webhookRepository) Create(webhook *models.Webhook) error {
	return r.db.Create(webhook).Error
}

// GetByID retrieves a webhook by its identifier
func (r *webhookRepository) GetByID(id string) (*models.Webhook, error) {
	var webhook models.Webhook
	if err := r.db.Where("id = ?", id).First(&webhook).Error; err != nil {
		return nil, err
	}
	return &webhook, nil
}

// GetByWaitlist lists all webhooks registered for a waitlist
func (r *webhookRepository) GetByWaitlist(waitlistID string) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	err := r.db.Where("waitlist_id = ?", waitlistID).Find(&webhooks).Error
	return webhooks, err
}

// GetActiveForEvent returns the active webhooks subscribed to the event.
// Event membership is filtered in memory since events live in a JSON column.
func (r *webhookRepository) GetActiveForEvent(waitlistID, event string) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	err := r.db.Where("waitlist_id = ? AND is_active = ?", waitlistID, true).Find(&webhooks).Error
	if err != nil {
		return nil, err
	}
	subscribed := webhooks[:0]
	for _, wh := range webhooks {
		if wh.Events.Contains(event) {
			subscribed = append(subscribed, wh)
		}
	}
	return subscribed, nil
}

// Update persists url/events/active changes on a webhook
func (r *webhookRepository) Update(webhook *models.Webhook) error {
	return r.db.Save(webhook).Error
}

// Delete removes a webhook target
func (r *webhookRepository) Delete(id string) error {
	result := r.db.Delete(&models.Webhook{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
