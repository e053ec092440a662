package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	SignupStatusWaiting  = "waiting"
	SignupStatusVerified = "verified"
	SignupStatusAdmitted = "admitted"
)

// Metadata stores free-form signup answers as a JSON column.
type Metadata map[string]interface{}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source for metadata")
	}
	if len(bytes) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Signup is one registrant's record in a waitlist. Position is the immutable
// creation-order index; Priority only ever grows through referral boosts or
// explicit advances.
type Signup struct {
	ID            string     `gorm:"type:varchar(32) CHARACTER SET utf8 COLLATE utf8_bin;primaryKey" json:"id"`
	WaitlistID    string     `gorm:"type:char(20) CHARACTER SET utf8 COLLATE utf8_bin;not null;index;uniqueIndex:ux_signups_waitlist_email,priority:1" json:"waitlist_id"`
	Email         string     `gorm:"type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin;not null;uniqueIndex:ux_signups_waitlist_email,priority:2" json:"email" validate:"required,email"`
	ReferralCode  string     `gorm:"type:varchar(16) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"referral_code"`
	ReferredBy    string     `gorm:"type:varchar(16);default:null;index" json:"referred_by,omitempty"`
	ReferralCount int64      `gorm:"default:0" json:"referral_count"`
	Priority      int64      `gorm:"default:0;index:idx_signups_rank,priority:2" json:"priority"`
	Position      int64      `gorm:"not null" json:"position"`
	Status        string     `gorm:"type:varchar(20);default:'waiting';index:idx_signups_rank,priority:1" json:"status" validate:"omitempty,oneof=waiting verified admitted"`
	Metadata      Metadata   `gorm:"type:json" json:"metadata"`
	VerifiedAt    *time.Time `gorm:"type:timestamp;default:null" json:"verified_at,omitempty"`
	AdmittedAt    *time.Time `gorm:"type:timestamp;default:null" json:"admitted_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Signup) Validate() error {
	v := validator.New()
	return v.Struct(s)
}

// IsAdmitted reports whether the signup has left ranking consideration.
func (s *Signup) IsAdmitted() bool {
	return s.Status == SignupStatusAdmitted
}

// NormalizeEmail applies the case/whitespace normalization used for the
// per-waitlist uniqueness check.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail redacts an address for public leaderboard display, keeping the
// first three characters of the local part and the full domain.
func MaskEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "***@***"
	}
	if len(local) > 3 {
		local = local[:3]
	}
	return local + "***@" + domain
}
