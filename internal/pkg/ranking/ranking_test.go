package ranking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
)

const testWaitlist = "wltest00000000000001"

func join(t *testing.T, ledger *memLedger, email string) *models.Signup {
	t.Helper()
	signup, err := ledger.Create(&models.Signup{WaitlistID: testWaitlist, Email: email})
	require.NoError(t, err)
	return signup
}

func TestReferralScenarioReordersLeaderboard(t *testing.T) {
	ledger := &memLedger{}
	engine := NewEngine(ledger)

	a := join(t, ledger, "alice@example.com")
	b := join(t, ledger, "bob@example.com")
	c := join(t, ledger, "carol@example.com")

	// Initial order is pure join order.
	for i, s := range []*models.Signup{a, b, c} {
		pos, err := engine.PositionFor(s)
		require.NoError(t, err)
		assert.EqualValues(t, i+1, pos)
	}

	// D joins through C's referral code with the default boost.
	d, err := ledger.Create(&models.Signup{
		WaitlistID: testWaitlist,
		Email:      "dave@example.com",
		ReferredBy: c.ReferralCode,
	})
	require.NoError(t, err)
	boosted, err := ledger.ApplyReferralBoost(c.ReferralCode, models.DefaultPriorityBoost)
	require.NoError(t, err)

	assert.EqualValues(t, 30, boosted.Priority)
	assert.EqualValues(t, 1, boosted.ReferralCount)

	want := map[*models.Signup]int64{c: 1, a: 2, b: 3, d: 4}
	for s, expected := range want {
		pos, err := engine.PositionFor(s)
		require.NoError(t, err)
		assert.Equal(t, expected, pos, "position of %s", s.Email)
	}

	entries, err := engine.Leaderboard(testWaitlist, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "car***@example.com", entries[0].Email)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "ali***@example.com", entries[1].Email)
}

func TestLeaderboardFullTiesRankInJoinOrder(t *testing.T) {
	ledger := &memLedger{}
	engine := NewEngine(ledger)

	a := join(t, ledger, "early@example.com")
	b := join(t, ledger, "later@example.com")
	c := join(t, ledger, "last@example.com")

	// Equal priority and equal referral count across all three.
	for _, s := range []*models.Signup{a, b, c} {
		_, err := ledger.AdvancePriority(s.ID, 25)
		require.NoError(t, err)
	}

	entries, err := engine.Leaderboard(testWaitlist, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.MaskEmail(a.Email), entries[0].Email)
	assert.Equal(t, models.MaskEmail(b.Email), entries[1].Email)
	assert.Equal(t, models.MaskEmail(c.Email), entries[2].Email)
}

func TestOrderingInvariant(t *testing.T) {
	ledger := &memLedger{}
	engine := NewEngine(ledger)

	var signups []*models.Signup
	for i := 0; i < 6; i++ {
		signups = append(signups, join(t, ledger, fmt.Sprintf("user%d@example.com", i)))
	}
	// Spread priorities, including ties.
	_, err := ledger.AdvancePriority(signups[2].ID, 50)
	require.NoError(t, err)
	_, err = ledger.AdvancePriority(signups[4].ID, 50)
	require.NoError(t, err)
	_, err = ledger.AdvancePriority(signups[5].ID, 10)
	require.NoError(t, err)

	positions := map[string]int64{}
	for _, s := range signups {
		pos, err := engine.PositionFor(s)
		require.NoError(t, err)
		positions[s.ID] = pos
	}

	for _, s1 := range signups {
		for _, s2 := range signups {
			if s1 == s2 {
				continue
			}
			if s1.Priority > s2.Priority {
				assert.Less(t, positions[s1.ID], positions[s2.ID])
			}
			if s1.Priority == s2.Priority && s1.Position < s2.Position {
				assert.Less(t, positions[s1.ID], positions[s2.ID])
			}
		}
	}
}

func TestAdmittedExcludedEverywhere(t *testing.T) {
	ledger := &memLedger{}
	engine := NewEngine(ledger)

	first := join(t, ledger, "first@example.com")
	second := join(t, ledger, "second@example.com")
	third := join(t, ledger, "third@example.com")

	_, err := ledger.Offboard(first.ID)
	require.NoError(t, err)

	// The admitted signup no longer counts ahead of anyone.
	pos, err := engine.PositionFor(second)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pos)
	pos, err = engine.PositionFor(third)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pos)

	entries, err := engine.Leaderboard(testWaitlist, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.NotEqual(t, models.MaskEmail("first@example.com"), entry.Email)
	}
}

func TestReferralBoostImprovesReferrerPosition(t *testing.T) {
	ledger := &memLedger{}
	engine := NewEngine(ledger)

	join(t, ledger, "front@example.com")
	referrer := join(t, ledger, "middle@example.com")

	before, err := engine.PositionFor(referrer)
	require.NoError(t, err)
	assert.EqualValues(t, 2, before)

	_, err = ledger.Create(&models.Signup{
		WaitlistID: testWaitlist,
		Email:      "friend@example.com",
		ReferredBy: referrer.ReferralCode,
	})
	require.NoError(t, err)
	_, err = ledger.ApplyReferralBoost(referrer.ReferralCode, models.DefaultPriorityBoost)
	require.NoError(t, err)

	after, err := engine.PositionFor(referrer)
	require.NoError(t, err)
	assert.Less(t, after, before)
	assert.EqualValues(t, 1, after)
}

func TestLeaderboardLimitCapped(t *testing.T) {
	ledger := &memLedger{}
	engine := NewEngine(ledger)

	for i := 0; i < 120; i++ {
		join(t, ledger, fmt.Sprintf("bulk%03d@example.com", i))
	}

	entries, err := engine.Leaderboard(testWaitlist, 500)
	require.NoError(t, err)
	assert.Len(t, entries, MaxLeaderboardLimit)

	entries, err = engine.Leaderboard(testWaitlist, 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLeaderboardLimit)
}

func TestStatsEmptyWaitlist(t *testing.T) {
	ledger := &memLedger{}
	engine := NewEngine(ledger)

	stats, err := engine.Stats(testWaitlist)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalSignups)

	entries, err := engine.Leaderboard(testWaitlist, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIdempotentJoinReturnsExistingRecord(t *testing.T) {
	ledger := &memLedger{}

	first, err := ledger.Create(&models.Signup{WaitlistID: testWaitlist, Email: "Dup@Example.com"})
	require.NoError(t, err)

	again, err := ledger.Create(&models.Signup{WaitlistID: testWaitlist, Email: "dup@example.com "})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	assert.Equal(t, first.ID, again.ID)

	count, err := ledger.CountByWaitlist(testWaitlist, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
