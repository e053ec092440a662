package repository

import (
	"github.com/riceboxdev/Velvet/app/models"
	"gorm.io/gorm"
)

// waitlistRepository implements the WaitlistRepository interface
type waitlistRepository struct {
	db *gorm.DB
}

// NewWaitlistRepository creates a new waitlist repository instance
func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

// Create inserts a new waitlist
func (r *waitlistRepository) Create(waitlist *models.Waitlist) error {
	return r.db.Create(waitlist).Error
}

// GetByID retrieves a waitlist by its identifier
func (r *waitlistRepository) GetByID(id string) (*models.Waitlist, error) {
	var waitlist models.Waitlist
	if err := r.db.Where("id = ?", id).First(&waitlist).Error; err != nil {
		return nil, err
	}
	return &waitlist, nil
}

// GetByAPIKey resolves a waitlist-scoped API key
func (r *waitlistRepository) GetByAPIKey(apiKey string) (*models.Waitlist, error) {
	var waitlist models.Waitlist
	if err := r.db.Where("api_key = ?", apiKey).First(&waitlist).Error; err != nil {
		return nil, err
	}
	return &waitlist, nil
}

// GetByAutomationKey resolves an automation-platform key
func (r *waitlistRepository) GetByAutomationKey(automationKey string) (*models.Waitlist, error) {
	var waitlist models.Waitlist
	if err := r.db.Where("automation_key = ?", automationKey).First(&waitlist).Error; err != nil {
		return nil, err
	}
	return &waitlist, nil
}

// GetByOwner lists a principal's waitlists, newest first
func (r *waitlistRepository) GetByOwner(ownerID string) ([]models.Waitlist, error) {
	var waitlists []models.Waitlist
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&waitlists).Error
	return waitlists, err
}

// CountByOwner returns the number of waitlists a principal owns
func (r *waitlistRepository) CountByOwner(ownerID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Waitlist{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// Update persists name/description/active changes on a waitlist
func (r *waitlistRepository) Update(waitlist *models.Waitlist) error {
	return r.db.Save(waitlist).Error
}

// SaveSettings overwrites only the settings document
func (r *waitlistRepository) SaveSettings(id string, settings models.WaitlistSettings) error {
	result := r.db.Model(&models.Waitlist{}).Where("id = ?", id).Update("settings", settings)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RegenerateAPIKey replaces the API key; the old key stops resolving with the
// same statement, there is no grace period.
func (r *waitlistRepository) RegenerateAPIKey(id string) (*models.Waitlist, error) {
	newKey, err := models.NewAPIKey()
	if err != nil {
		return nil, err
	}
	result := r.db.Model(&models.Waitlist{}).Where("id = ?", id).Update("api_key", newKey)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// RegenerateAutomationKey replaces the automation key immediately.
func (r *waitlistRepository) RegenerateAutomationKey(id string) (*models.Waitlist, error) {
	newKey, err := models.NewAutomationKey()
	if err != nil {
		return nil, err
	}
	result := r.db.Model(&models.Waitlist{}).Where("id = ?", id).Update("automation_key", newKey)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// Delete removes the waitlist and cascades to all child records in one
// transaction; no foreign-key engine is assumed.
func (r *waitlistRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("waitlist_id = ?", id).Delete(&models.Signup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("waitlist_id = ?", id).Delete(&models.Webhook{}).Error; err != nil {
			return err
		}
		if err := tx.Where("waitlist_id = ?", id).Delete(&models.AutomationHook{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Waitlist{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
