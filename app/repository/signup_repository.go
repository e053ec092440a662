package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/riceboxdev/Velvet/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// signupRepository implements the SignupRepository interface
type signupRepository struct {
	db *gorm.DB
}

// NewSignupRepository creates a new signup repository instance
func NewSignupRepository(db *gorm.DB) SignupRepository {
	return &signupRepository{db: db}
}

// Create inserts a signup with its creation-order position. The whole
// read-then-write runs in one transaction holding a row lock on the owning
// waitlist, so concurrent joins cannot collide on position or lose counter
// increments. Returns the existing record with ErrDuplicateEmail when the
// email is already on the list.
func (r *signupRepository) Create(signup *models.Signup) (*models.Signup, error) {
	signup.Email = models.NormalizeEmail(signup.Email)
	signup.Status = models.SignupStatusWaiting
	if signup.Metadata == nil {
		signup.Metadata = models.Metadata{}
	}

	var err error
	if signup.ID == "" {
		if signup.ID, err = models.NewSignupID(); err != nil {
			return nil, err
		}
	}
	if signup.ReferralCode == "" {
		if signup.ReferralCode, err = models.NewReferralCode(); err != nil {
			return nil, err
		}
	}

	var existing *models.Signup
	err = r.db.Transaction(func(tx *gorm.DB) error {
		// Serializes joins per waitlist.
		var waitlist models.Waitlist
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", signup.WaitlistID).First(&waitlist).Error; err != nil {
			return err
		}

		var prior models.Signup
		err := tx.Where("waitlist_id = ? AND email = ?", signup.WaitlistID, signup.Email).
			First(&prior).Error
		if err == nil {
			existing = &prior
			return ErrDuplicateEmail
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&models.Signup{}).
			Where("waitlist_id = ?", signup.WaitlistID).Count(&count).Error; err != nil {
			return err
		}
		signup.Position = count + 1

		if err := tx.Create(signup).Error; err != nil {
			return err
		}

		return tx.Model(&models.Waitlist{}).Where("id = ?", signup.WaitlistID).
			UpdateColumn("total_signups", gorm.Expr("total_signups + ?", 1)).Error
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return existing, err
	}
	if err != nil {
		return nil, err
	}
	return signup, nil
}

// GetByID retrieves a signup by its identifier
func (r *signupRepository) GetByID(id string) (*models.Signup, error) {
	var signup models.Signup
	if err := r.db.Where("id = ?", id).First(&signup).Error; err != nil {
		return nil, err
	}
	return &signup, nil
}

// GetByEmail retrieves a signup by normalized email within a waitlist
func (r *signupRepository) GetByEmail(waitlistID, email string) (*models.Signup, error) {
	var signup models.Signup
	err := r.db.Where("waitlist_id = ? AND email = ?", waitlistID, models.NormalizeEmail(email)).
		First(&signup).Error
	if err != nil {
		return nil, err
	}
	return &signup, nil
}

// GetByReferralCode retrieves a signup by its globally unique referral code
func (r *signupRepository) GetByReferralCode(referralCode string) (*models.Signup, error) {
	var signup models.Signup
	if err := r.db.Where("referral_code = ?", referralCode).First(&signup).Error; err != nil {
		return nil, err
	}
	return &signup, nil
}

var signupSortFields = map[string]bool{
	"position":       true,
	"created_at":     true,
	"referral_count": true,
	"priority":       true,
}

// resolveListOrder maps caller-supplied sort options onto the whitelisted
// ORDER BY clause. Unknown fields silently fall back to position ascending.
func resolveListOrder(opts SignupListOptions) string {
	sortBy := opts.SortBy
	if !signupSortFields[sortBy] {
		sortBy = "position"
	}
	direction := "ASC"
	if strings.EqualFold(opts.Order, "desc") {
		direction = "DESC"
	}
	return sortBy + " " + direction
}

const (
	defaultListLimit = 100
	maxListLimit     = 200
)

// resolveListLimit clamps a caller-supplied page size into the allowed range.
func resolveListLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// ListByWaitlist returns a page of signups.
func (r *signupRepository) ListByWaitlist(waitlistID string, opts SignupListOptions) ([]models.Signup, error) {
	limit := opts.EffectiveLimit()

	query := r.db.Where("waitlist_id = ?", waitlistID)
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var signups []models.Signup
	err := query.Order(resolveListOrder(opts)).
		Offset(opts.Offset).Limit(limit).Find(&signups).Error
	return signups, err
}

// ApplyReferralBoost atomically increments the referrer's counters. Unknown
// codes return gorm.ErrRecordNotFound for the caller to ignore; referral
// attribution is best-effort.
func (r *signupRepository) ApplyReferralBoost(referralCode string, boost int64) (*models.Signup, error) {
	result := r.db.Model(&models.Signup{}).Where("referral_code = ?", referralCode).
		UpdateColumns(map[string]interface{}{
			"referral_count": gorm.Expr("referral_count + ?", 1),
			"priority":       gorm.Expr("priority + ?", boost),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByReferralCode(referralCode)
}

// Verify transitions waiting -> verified and stamps the verification time.
// Verifying an already verified signup is a no-op; an admitted signup is
// rejected.
func (r *signupRepository) Verify(id string) (*models.Signup, error) {
	signup, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	switch signup.Status {
	case models.SignupStatusAdmitted:
		return nil, ErrAlreadyAdmitted
	case models.SignupStatusVerified:
		return signup, nil
	}

	now := time.Now()
	err = r.db.Model(&models.Signup{}).
		Where("id = ? AND status = ?", id, models.SignupStatusWaiting).
		Updates(map[string]interface{}{
			"status":      models.SignupStatusVerified,
			"verified_at": now,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Offboard admits the signup, removing it from ranking consideration.
// Re-offboarding is a conflict, admitted is terminal.
func (r *signupRepository) Offboard(id string) (*models.Signup, error) {
	signup, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if signup.IsAdmitted() {
		return nil, ErrAlreadyAdmitted
	}

	now := time.Now()
	result := r.db.Model(&models.Signup{}).
		Where("id = ? AND status <> ?", id, models.SignupStatusAdmitted).
		Updates(map[string]interface{}{
			"status":      models.SignupStatusAdmitted,
			"admitted_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the race against a concurrent offboard.
		return nil, ErrAlreadyAdmitted
	}
	return r.GetByID(id)
}

// AdvancePriority adds amount (possibly negative) to the priority atomically.
func (r *signupRepository) AdvancePriority(id string, amount int64) (*models.Signup, error) {
	result := r.db.Model(&models.Signup{}).Where("id = ?", id).
		UpdateColumn("priority", gorm.Expr("priority + ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// Delete removes the record and decrements the waitlist counter, floored at
// zero.
func (r *signupRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var signup models.Signup
		if err := tx.Where("id = ?", id).First(&signup).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Signup{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&models.Waitlist{}).Where("id = ?", signup.WaitlistID).
			UpdateColumn("total_signups", gorm.Expr("GREATEST(total_signups - 1, 0)")).Error
	})
}

// CountByWaitlist counts signups, optionally filtered by status
func (r *signupRepository) CountByWaitlist(waitlistID, status string) (int64, error) {
	query := r.db.Model(&models.Signup{}).Where("waitlist_id = ?", waitlistID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountCreatedSince counts signups created after the cut-off across the given
// waitlists; this feeds the monthly signup quota.
func (r *signupRepository) CountCreatedSince(waitlistIDs []string, since time.Time) (int64, error) {
	if len(waitlistIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Signup{}).
		Where("waitlist_id IN ? AND created_at >= ?", waitlistIDs, since).
		Count(&count).Error
	return count, err
}

// CountRankedAhead counts the non-admitted signups ranked ahead of the given
// (priority, position) pair: strictly higher priority, or equal priority with
// an earlier join.
func (r *signupRepository) CountRankedAhead(waitlistID string, priority, position int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Signup{}).
		Where("waitlist_id = ? AND status <> ?", waitlistID, models.SignupStatusAdmitted).
		Where("priority > ? OR (priority = ? AND position < ?)", priority, priority, position).
		Count(&count).Error
	return count, err
}

// Leaderboard returns the top non-admitted signups ordered by priority, then
// referral count. Position breaks remaining ties so full ties rank in join
// order instead of whatever order the storage engine happens to return.
func (r *signupRepository) Leaderboard(waitlistID string, limit int) ([]models.Signup, error) {
	var signups []models.Signup
	err := r.db.Where("waitlist_id = ? AND status <> ?", waitlistID, models.SignupStatusAdmitted).
		Order("priority DESC, referral_count DESC, position ASC").
		Limit(limit).Find(&signups).Error
	return signups, err
}

// Stats aggregates counts by status and the referral sum in a single scan.
func (r *signupRepository) Stats(waitlistID string) (*WaitlistStats, error) {
	var stats WaitlistStats
	row := r.db.Model(&models.Signup{}).
		Select(
			"COUNT(*) AS total_signups",
			"COALESCE(SUM(status = 'waiting'), 0) AS waiting",
			"COALESCE(SUM(status = 'verified'), 0) AS verified",
			"COALESCE(SUM(status = 'admitted'), 0) AS admitted",
			"COALESCE(SUM(referral_count), 0) AS total_referrals",
		).
		Where("waitlist_id = ?", waitlistID)
	if err := row.Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
