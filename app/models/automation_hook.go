package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Automation channel event names.
const (
	AutomationEventNewSignup   = "new_signup"
	AutomationEventNewReferrer = "new_referrer"
	AutomationEventOffboard    = "offboard"
)

// AutomationEvents lists the event types an automation hook may subscribe to.
var AutomationEvents = []string{
	AutomationEventNewSignup,
	AutomationEventNewReferrer,
	AutomationEventOffboard,
}

// IsValidAutomationEvent reports whether event is a known automation trigger.
func IsValidAutomationEvent(event string) bool {
	for _, e := range AutomationEvents {
		if e == event {
			return true
		}
	}
	return false
}

// AutomationHook is a single-event REST-hook subscription registered by an
// automation platform (e.g. a Zapier trigger).
type AutomationHook struct {
	ID         string    `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;primaryKey" json:"id"`
	WaitlistID string    `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;not null;index" json:"waitlist_id"`
	HookURL    string    `gorm:"type:varchar(2048);not null" json:"hook_url" validate:"required,url"`
	Event      string    `gorm:"type:varchar(32);not null;index" json:"event"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (h *AutomationHook) Validate() error {
	if !IsValidAutomationEvent(h.Event) {
		return fmt.Errorf("invalid event type %q, must be one of %v", h.Event, AutomationEvents)
	}
	v := validator.New()
	return v.Struct(h)
}

// NewAutomationHook assembles a hook subscription for the given event.
func NewAutomationHook(waitlistID, hookURL, event string) (*AutomationHook, error) {
	id, err := NewEntityID()
	if err != nil {
		return nil, err
	}
	h := &AutomationHook{
		ID:         id,
		WaitlistID: waitlistID,
		HookURL:    hookURL,
		Event:      event,
		IsActive:   true,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// BeforeCreate backfills the identifier for directly inserted records.
func (h *AutomationHook) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		id, err := NewEntityID()
		if err != nil {
			return err
		}
		h.ID = id
	}
	return nil
}
