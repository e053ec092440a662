package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Webhook channel event names.
const (
	WebhookEventNewSignup  = "new_signup"
	WebhookEventOffboarded = "offboarded"
)

// StringSlice stores a list of strings as a JSON column.
type StringSlice []string

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source for string slice")
	}
	if len(bytes) == 0 {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Contains reports whether the slice holds the given value.
func (s StringSlice) Contains(value string) bool {
	for _, item := range s {
		if item == value {
			return true
		}
	}
	return false
}

// Webhook is a signed-delivery target registered by a tenant. Deliveries are
// best-effort and at-most-once.
type Webhook struct {
	ID         string      `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;primaryKey" json:"id"`
	WaitlistID string      `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;not null;index" json:"waitlist_id"`
	URL        string      `gorm:"type:varchar(2048);not null" json:"url" validate:"required,url"`
	Events     StringSlice `gorm:"type:json" json:"events"`
	Secret     string      `gorm:"type:varchar(64)" json:"secret"`
	IsActive   bool        `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (w *Webhook) Validate() error {
	v := validator.New()
	return v.Struct(w)
}

// NewWebhook assembles a webhook target with defaulted events and a fresh
// signing secret when none is supplied.
func NewWebhook(waitlistID, url string, events []string, secret string) (*Webhook, error) {
	id, err := NewEntityID()
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		events = []string{WebhookEventNewSignup, WebhookEventOffboarded}
	}
	if secret == "" {
		if secret, err = NewWebhookSecret(); err != nil {
			return nil, err
		}
	}
	w := &Webhook{
		ID:         id,
		WaitlistID: waitlistID,
		URL:        url,
		Events:     events,
		Secret:     secret,
		IsActive:   true,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// BeforeCreate backfills the identifier for directly inserted records.
func (w *Webhook) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		id, err := NewEntityID()
		if err != nil {
			return err
		}
		w.ID = id
	}
	return nil
}
