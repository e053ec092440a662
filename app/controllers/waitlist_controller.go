package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/cache"
	"github.com/riceboxdev/Velvet/internal/pkg/ranking"
)

// publicReadCacheTTL bounds how stale the hosted-page aggregates may get. Both
// reads recompute over the full ledger, so hot pages are served from the
// shared cache instead.
const publicReadCacheTTL = 30 * time.Second

func statsCacheKey(waitlistID string) string {
	return "waitlist:stats:" + waitlistID
}

func leaderboardCacheKey(waitlistID string, limit int) string {
	return "waitlist:leaderboard:" + waitlistID + ":" + strconv.Itoa(limit)
}

// sendCachedJSON replays a cached response body verbatim.
func sendCachedJSON(c *fiber.Ctx, body string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(body)
}

// invalidateStatsCache drops the cached aggregates after a mutation that
// should be visible before the TTL runs out.
func invalidateStatsCache(waitlistID string) {
	if err := cache.Delete(statsCacheKey(waitlistID)); err != nil {
		fiberlog.Warnf("[Waitlist] invalidating stats cache for %s: %v", waitlistID, err)
	}
}

// HandleGetWaitlistPublic returns the metadata a hosted signup page needs:
// name, description and the display-facing settings subset. Credentials and
// connector configuration never leave the tenant API.
func HandleGetWaitlistPublic(c *fiber.Ctx) error {
	waitlist, err := loadActiveWaitlist(c)
	if waitlist == nil {
		return err
	}
	return c.JSON(fiber.Map{"data": publicWaitlistBody(waitlist)})
}

// publicWaitlistBody renders the display-facing view of a waitlist, shared by
// the hosted page and the embedded widget.
func publicWaitlistBody(waitlist *models.Waitlist) fiber.Map {
	body := fiber.Map{
		"id":          waitlist.ID,
		"name":        waitlist.Name,
		"description": waitlist.Description,
		"settings": fiber.Map{
			"branding":            waitlist.Settings.Branding,
			"widget":              waitlist.Settings.Widget,
			"social":              waitlist.Settings.Social,
			"questions":           waitlist.Settings.Questions,
			"show_leaderboard":    waitlist.Settings.LeaderboardEnabled(),
			"hide_position_count": waitlist.Settings.HidePositionCount,
		},
	}
	if !waitlist.Settings.HidePositionCount {
		body["total_signups"] = waitlist.TotalSignups
	}
	return body
}

// HandleGetLeaderboard returns the top referrers with masked emails.
func HandleGetLeaderboard(c *fiber.Ctx) error {
	waitlist, err := loadActiveWaitlist(c)
	if waitlist == nil {
		return err
	}
	if !waitlist.Settings.LeaderboardEnabled() {
		return respondForbidden(c, "Leaderboard is disabled for this waitlist")
	}

	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(ranking.DefaultLeaderboardLimit)))
	limit = ranking.ClampLimit(limit)

	key := leaderboardCacheKey(waitlist.ID, limit)
	if cached, err := cache.Get(key); err == nil {
		return sendCachedJSON(c, cached)
	}

	engine := ranking.NewEngine(repository.GetGlobalFactory().GetSignupRepository())
	entries, err := engine.Leaderboard(waitlist.ID, limit)
	if err != nil {
		return respondInternalError(c, "Failed to load leaderboard")
	}

	body := fiber.Map{"data": entries}
	if encoded, err := json.Marshal(body); err == nil {
		if err := cache.Set(key, encoded, publicReadCacheTTL); err != nil {
			fiberlog.Warnf("[Waitlist] caching leaderboard for %s: %v", waitlist.ID, err)
		}
	}
	return c.JSON(body)
}

// HandleGetWaitlistStats returns public aggregates for a waitlist.
func HandleGetWaitlistStats(c *fiber.Ctx) error {
	waitlist, err := loadActiveWaitlist(c)
	if waitlist == nil {
		return err
	}

	key := statsCacheKey(waitlist.ID)
	if cached, err := cache.Get(key); err == nil {
		return sendCachedJSON(c, cached)
	}

	engine := ranking.NewEngine(repository.GetGlobalFactory().GetSignupRepository())
	stats, err := engine.Stats(waitlist.ID)
	if err != nil {
		return respondInternalError(c, "Failed to load stats")
	}

	body := fiber.Map{"data": stats}
	if encoded, err := json.Marshal(body); err == nil {
		if err := cache.Set(key, encoded, publicReadCacheTTL); err != nil {
			fiberlog.Warnf("[Waitlist] caching stats for %s: %v", waitlist.ID, err)
		}
	}
	return c.JSON(body)
}

func loadActiveWaitlist(c *fiber.Ctx) (*models.Waitlist, error) {
	waitlist, err := repository.GetGlobalFactory().GetWaitlistRepository().GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, respondNotFound(c, "Waitlist not found")
		}
		return nil, respondInternalError(c, "Failed to load waitlist")
	}
	if !waitlist.IsActive {
		return nil, respondNotFound(c, "Waitlist not found")
	}
	return waitlist, nil
}
