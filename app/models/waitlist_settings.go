package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// DefaultPriorityBoost is applied to a referrer when no per-waitlist value is
// configured.
const DefaultPriorityBoost = 30

// BrandingSettings control the hosted signup page appearance.
type BrandingSettings struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
}

// WidgetSettings control the embeddable signup widget.
type WidgetSettings struct {
	ButtonText     string `json:"button_text,omitempty"`
	SuccessMessage string `json:"success_message,omitempty"`
}

// SocialSettings hold share links surfaced after a signup.
type SocialSettings struct {
	TwitterURL   string `json:"twitter_url,omitempty"`
	WebsiteURL   string `json:"website_url,omitempty"`
	ShareMessage string `json:"share_message,omitempty"`
}

// CustomQuestion is an additional field collected at join time. Answers land
// in the signup metadata under the question key.
type CustomQuestion struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ConnectorToggle enables or disables an outbound integration channel.
type ConnectorToggle struct {
	Enabled bool `json:"enabled"`
}

// ConnectorSettings group the per-channel delivery toggles.
type ConnectorSettings struct {
	Zapier   ConnectorToggle `json:"zapier"`
	Webhooks ConnectorToggle `json:"webhooks"`
}

// WaitlistSettings is the typed settings document stored on a waitlist.
// Sections are explicit so a partial update can never erase or union keys it
// does not know about.
type WaitlistSettings struct {
	Branding          BrandingSettings  `json:"branding"`
	ShowLeaderboard   *bool             `json:"show_leaderboard,omitempty"`
	HidePositionCount bool              `json:"hide_position_count"`
	Widget            WidgetSettings    `json:"widget"`
	Social            SocialSettings    `json:"social"`
	Questions         []CustomQuestion  `json:"questions"`
	Connectors        ConnectorSettings `json:"connectors"`
	PriorityBoost     int               `json:"priority_boost"`
}

// WaitlistSettingsUpdate carries a partial settings change. Nil sections are
// left untouched; the questions array replaces the stored one wholesale.
type WaitlistSettingsUpdate struct {
	Branding          *BrandingSettings  `json:"branding,omitempty"`
	ShowLeaderboard   *bool              `json:"show_leaderboard,omitempty"`
	HidePositionCount *bool              `json:"hide_position_count,omitempty"`
	Widget            *WidgetSettings    `json:"widget,omitempty"`
	Social            *SocialSettings    `json:"social,omitempty"`
	Questions         *[]CustomQuestion  `json:"questions,omitempty"`
	Connectors        *ConnectorSettings `json:"connectors,omitempty"`
	PriorityBoost     *int               `json:"priority_boost,omitempty"`
}

// DefaultWaitlistSettings returns the settings document assigned at creation.
func DefaultWaitlistSettings() WaitlistSettings {
	return WaitlistSettings{
		Questions:     []CustomQuestion{},
		Connectors:    ConnectorSettings{Webhooks: ConnectorToggle{Enabled: true}},
		PriorityBoost: DefaultPriorityBoost,
	}
}

// Apply merges the update into the settings section-wise.
func (ws *WaitlistSettings) Apply(update WaitlistSettingsUpdate) {
	if update.Branding != nil {
		ws.Branding = *update.Branding
	}
	if update.ShowLeaderboard != nil {
		ws.ShowLeaderboard = update.ShowLeaderboard
	}
	if update.HidePositionCount != nil {
		ws.HidePositionCount = *update.HidePositionCount
	}
	if update.Widget != nil {
		ws.Widget = *update.Widget
	}
	if update.Social != nil {
		ws.Social = *update.Social
	}
	if update.Questions != nil {
		ws.Questions = *update.Questions
	}
	if update.Connectors != nil {
		ws.Connectors = *update.Connectors
	}
	if update.PriorityBoost != nil && *update.PriorityBoost >= 0 {
		ws.PriorityBoost = *update.PriorityBoost
	}
}

// LeaderboardEnabled reports whether the public leaderboard is visible.
// Unset means enabled.
func (ws *WaitlistSettings) LeaderboardEnabled() bool {
	return ws.ShowLeaderboard == nil || *ws.ShowLeaderboard
}

// EffectivePriorityBoost returns the referral boost for this waitlist.
func (ws *WaitlistSettings) EffectivePriorityBoost() int {
	if ws.PriorityBoost > 0 {
		return ws.PriorityBoost
	}
	return DefaultPriorityBoost
}

// Value implements driver.Valuer so the settings persist as a JSON column.
func (ws WaitlistSettings) Value() (driver.Value, error) {
	data, err := json.Marshal(ws)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (ws *WaitlistSettings) Scan(value interface{}) error {
	if value == nil {
		*ws = DefaultWaitlistSettings()
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source for waitlist settings")
	}
	if len(bytes) == 0 {
		*ws = DefaultWaitlistSettings()
		return nil
	}
	return json.Unmarshal(bytes, ws)
}
