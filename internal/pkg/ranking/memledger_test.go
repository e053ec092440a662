package ranking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
)

// memLedger is an in-memory SignupRepository with the same query semantics as
// the SQL implementation, used to exercise the ranking engine without a
// database.
type memLedger struct {
	mu      sync.Mutex
	seq     int
	signups []*models.Signup
}

var _ repository.SignupRepository = (*memLedger)(nil)

func (m *memLedger) Create(signup *models.Signup) (*models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	signup.Email = models.NormalizeEmail(signup.Email)
	for _, s := range m.signups {
		if s.WaitlistID == signup.WaitlistID && s.Email == signup.Email {
			return s, repository.ErrDuplicateEmail
		}
	}

	m.seq++
	if signup.ID == "" {
		signup.ID = fmt.Sprintf("sg_mem%04d", m.seq)
	}
	if signup.ReferralCode == "" {
		signup.ReferralCode = fmt.Sprintf("code%04d", m.seq)
	}
	signup.Status = models.SignupStatusWaiting

	var count int64
	for _, s := range m.signups {
		if s.WaitlistID == signup.WaitlistID {
			count++
		}
	}
	signup.Position = count + 1
	signup.CreatedAt = time.Now()
	m.signups = append(m.signups, signup)
	return signup, nil
}

func (m *memLedger) GetByID(id string) (*models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.signups {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memLedger) GetByEmail(waitlistID, email string) (*models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, s := range m.signups {
		if s.WaitlistID == waitlistID && s.Email == email {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memLedger) GetByReferralCode(referralCode string) (*models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.signups {
		if s.ReferralCode == referralCode {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memLedger) ListByWaitlist(waitlistID string, opts repository.SignupListOptions) ([]models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Signup
	for _, s := range m.signups {
		if s.WaitlistID == waitlistID && (opts.Status == "" || s.Status == opts.Status) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memLedger) ApplyReferralBoost(referralCode string, boost int64) (*models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.signups {
		if s.ReferralCode == referralCode {
			s.ReferralCount++
			s.Priority += boost
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memLedger) Verify(id string) (*models.Signup, error) {
	s, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if s.Status == models.SignupStatusAdmitted {
		return nil, repository.ErrAlreadyAdmitted
	}
	s.Status = models.SignupStatusVerified
	return s, nil
}

func (m *memLedger) Offboard(id string) (*models.Signup, error) {
	s, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if s.Status == models.SignupStatusAdmitted {
		return nil, repository.ErrAlreadyAdmitted
	}
	s.Status = models.SignupStatusAdmitted
	now := time.Now()
	s.AdmittedAt = &now
	return s, nil
}

func (m *memLedger) AdvancePriority(id string, amount int64) (*models.Signup, error) {
	s, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Priority += amount
	return s, nil
}

func (m *memLedger) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.signups {
		if s.ID == id {
			m.signups = append(m.signups[:i], m.signups[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memLedger) CountByWaitlist(waitlistID, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, s := range m.signups {
		if s.WaitlistID == waitlistID && (status == "" || s.Status == status) {
			count++
		}
	}
	return count, nil
}

func (m *memLedger) CountCreatedSince(waitlistIDs []string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[string]bool{}
	for _, id := range waitlistIDs {
		ids[id] = true
	}
	var count int64
	for _, s := range m.signups {
		if ids[s.WaitlistID] && !s.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memLedger) CountRankedAhead(waitlistID string, priority, position int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, s := range m.signups {
		if s.WaitlistID != waitlistID || s.Status == models.SignupStatusAdmitted {
			continue
		}
		if s.Priority > priority || (s.Priority == priority && s.Position < position) {
			count++
		}
	}
	return count, nil
}

func (m *memLedger) Leaderboard(waitlistID string, limit int) ([]models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ranked []models.Signup
	for _, s := range m.signups {
		if s.WaitlistID == waitlistID && s.Status != models.SignupStatusAdmitted {
			ranked = append(ranked, *s)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority > ranked[j].Priority
		}
		if ranked[i].ReferralCount != ranked[j].ReferralCount {
			return ranked[i].ReferralCount > ranked[j].ReferralCount
		}
		return ranked[i].Position < ranked[j].Position
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (m *memLedger) Stats(waitlistID string) (*repository.WaitlistStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &repository.WaitlistStats{}
	for _, s := range m.signups {
		if s.WaitlistID != waitlistID {
			continue
		}
		stats.TotalSignups++
		switch s.Status {
		case models.SignupStatusWaiting:
			stats.Waiting++
		case models.SignupStatusVerified:
			stats.Verified++
		case models.SignupStatusAdmitted:
			stats.Admitted++
		}
		stats.TotalReferrals += s.ReferralCount
	}
	return stats, nil
}
