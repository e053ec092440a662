package ranking

import (
	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
)

// MaxLeaderboardLimit caps caller-supplied leaderboard sizes.
const MaxLeaderboardLimit = 100

// DefaultLeaderboardLimit applies when the caller passes no limit.
const DefaultLeaderboardLimit = 10

// LeaderboardEntry is a public, email-masked leaderboard row. Rank is the
// 1-based index in the (priority desc, referral_count desc) ordering and is
// independent of CurrentPosition.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	Email         string `json:"email"`
	ReferralCount int64  `json:"referral_count"`
	Priority      int64  `json:"priority"`
}

// Engine computes live ranks from ledger state. Nothing is denormalized: every
// read recomputes against the store, so referral activity is reflected
// immediately without a re-indexing pass.
type Engine struct {
	signups repository.SignupRepository
}

// NewEngine creates a ranking engine over the given ledger.
func NewEngine(signups repository.SignupRepository) *Engine {
	return &Engine{signups: signups}
}

// PositionFor returns the live rank of the given signup among the waitlist's
// non-admitted records: everyone with higher priority, plus everyone with the
// same priority who joined earlier, plus one.
func (e *Engine) PositionFor(signup *models.Signup) (int64, error) {
	ahead, err := e.signups.CountRankedAhead(signup.WaitlistID, signup.Priority, signup.Position)
	if err != nil {
		return 0, err
	}
	return ahead + 1, nil
}

// CurrentPosition resolves a signup by email and returns it with its live
// rank. Unknown emails surface gorm.ErrRecordNotFound from the ledger.
func (e *Engine) CurrentPosition(waitlistID, email string) (*models.Signup, int64, error) {
	signup, err := e.signups.GetByEmail(waitlistID, email)
	if err != nil {
		return nil, 0, err
	}
	position, err := e.PositionFor(signup)
	if err != nil {
		return nil, 0, err
	}
	return signup, position, nil
}

// ClampLimit normalizes a caller-supplied leaderboard size to the allowed
// range.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

// Leaderboard returns the top non-admitted signups with masked emails.
func (e *Engine) Leaderboard(waitlistID string, limit int) ([]LeaderboardEntry, error) {
	limit = ClampLimit(limit)

	signups, err := e.signups.Leaderboard(waitlistID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(signups))
	for i, s := range signups {
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			Email:         models.MaskEmail(s.Email),
			ReferralCount: s.ReferralCount,
			Priority:      s.Priority,
		})
	}
	return entries, nil
}

// Stats aggregates signup counts by status and total referrals.
func (e *Engine) Stats(waitlistID string) (*repository.WaitlistStats, error) {
	return e.signups.Stats(waitlistID)
}
