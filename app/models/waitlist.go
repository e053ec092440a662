package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Waitlist is a tenant-owned signup collection with its own settings document
// and API credentials.
type Waitlist struct {
	ID            string           `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;primaryKey" json:"id"`
	OwnerID       string           `gorm:"type:varchar(191);not null;index" json:"owner_id"`
	Name          string           `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=1,max=150"`
	Description   string           `gorm:"type:text" json:"description" validate:"max=1000"`
	APIKey        string           `gorm:"type:varchar(64) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"api_key"`
	AutomationKey string           `gorm:"type:varchar(64) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"automation_key"`
	Settings      WaitlistSettings `gorm:"type:json" json:"settings"`
	TotalSignups  int64            `gorm:"default:0" json:"total_signups"`
	IsActive      bool             `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (w *Waitlist) Validate() error {
	v := validator.New()
	return v.Struct(w)
}

// NewWaitlist assembles a waitlist with fresh credentials and default
// settings. The caller persists it through the repository.
func NewWaitlist(name, description, ownerID string) (*Waitlist, error) {
	id, err := NewEntityID()
	if err != nil {
		return nil, err
	}
	apiKey, err := NewAPIKey()
	if err != nil {
		return nil, err
	}
	automationKey, err := NewAutomationKey()
	if err != nil {
		return nil, err
	}

	w := &Waitlist{
		ID:            id,
		OwnerID:       ownerID,
		Name:          name,
		Description:   description,
		APIKey:        apiKey,
		AutomationKey: automationKey,
		Settings:      DefaultWaitlistSettings(),
		IsActive:      true,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// BeforeCreate backfills credentials when a waitlist is inserted directly,
// e.g. from tests.
func (w *Waitlist) BeforeCreate(tx *gorm.DB) error {
	var err error
	if w.ID == "" {
		if w.ID, err = NewEntityID(); err != nil {
			return err
		}
	}
	if w.APIKey == "" {
		if w.APIKey, err = NewAPIKey(); err != nil {
			return err
		}
	}
	if w.AutomationKey == "" {
		if w.AutomationKey, err = NewAutomationKey(); err != nil {
			return err
		}
	}
	return nil
}
