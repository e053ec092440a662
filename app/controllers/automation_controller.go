package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/middleware"
	"github.com/riceboxdev/Velvet/internal/pkg/notify"
)

// pollLimit is how many recent records the polling triggers return. The
// automation platform only needs samples for setup and testing.
const pollLimit = 3

// HandleAutomationPollSignups returns the most recent signups.
func HandleAutomationPollSignups(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}

	records, err := repository.GetGlobalFactory().GetSignupRepository().ListByWaitlist(waitlist.ID, repository.SignupListOptions{
		Limit:  pollLimit,
		SortBy: "created_at",
		Order:  "desc",
	})
	if err != nil {
		return respondInternalError(c, "Failed to load signups")
	}
	return c.JSON(automationSignups(records, waitlist))
}

// HandleAutomationPollReferrers returns the most recent signups that have
// referred at least one other signup.
func HandleAutomationPollReferrers(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}

	records, err := repository.GetGlobalFactory().GetSignupRepository().ListByWaitlist(waitlist.ID, repository.SignupListOptions{
		Limit:  50,
		SortBy: "referral_count",
		Order:  "desc",
	})
	if err != nil {
		return respondInternalError(c, "Failed to load referrers")
	}

	var referrers []models.Signup
	for _, s := range records {
		if s.ReferralCount > 0 {
			referrers = append(referrers, s)
			if len(referrers) == pollLimit {
				break
			}
		}
	}
	return c.JSON(automationSignups(referrers, waitlist))
}

// HandleAutomationPollOffboarded returns the most recently admitted signups.
func HandleAutomationPollOffboarded(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}

	records, err := repository.GetGlobalFactory().GetSignupRepository().ListByWaitlist(waitlist.ID, repository.SignupListOptions{
		Limit:  pollLimit,
		Status: models.SignupStatusAdmitted,
		SortBy: "created_at",
		Order:  "desc",
	})
	if err != nil {
		return respondInternalError(c, "Failed to load offboarded signups")
	}
	return c.JSON(automationSignups(records, waitlist))
}

type subscribeHookRequest struct {
	HookURL string `json:"hookUrl"`
	Event   string `json:"event"`
}

// HandleAutomationSubscribe registers a REST hook for one event type.
func HandleAutomationSubscribe(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}

	var req subscribeHookRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}
	if req.HookURL == "" {
		return respondBadRequest(c, "hookUrl is required")
	}
	if !models.IsValidAutomationEvent(req.Event) {
		return respondBadRequest(c, "Invalid event type. Must be one of: "+strings.Join(models.AutomationEvents, ", "))
	}

	hook, err := models.NewAutomationHook(waitlist.ID, req.HookURL, req.Event)
	if err != nil {
		return respondBadRequest(c, "Invalid hook subscription")
	}
	if err := repository.GetGlobalFactory().GetAutomationHookRepository().Create(hook); err != nil {
		return respondInternalError(c, "Failed to create hook")
	}

	fiberlog.Infof("[Automation] New hook subscription: %s -> %s", hook.Event, hook.HookURL)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":       hook.ID,
			"event":    hook.Event,
			"hook_url": hook.HookURL,
		},
	})
}

// HandleAutomationUnsubscribe removes a REST hook subscription.
func HandleAutomationUnsubscribe(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}

	repo := repository.GetGlobalFactory().GetAutomationHookRepository()
	hook, err := repo.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondNotFound(c, "Hook not found")
		}
		return respondInternalError(c, "Failed to load hook")
	}
	if hook.WaitlistID != waitlist.ID {
		return respondForbidden(c, "Access denied")
	}

	if err := repo.Delete(hook.ID); err != nil {
		return respondInternalError(c, "Failed to delete hook")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Hook unsubscribed"})
}

// HandleAutomationListHooks lists the waitlist's hook subscriptions.
func HandleAutomationListHooks(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}

	hooks, err := repository.GetGlobalFactory().GetAutomationHookRepository().GetByWaitlist(waitlist.ID)
	if err != nil {
		return respondInternalError(c, "Failed to list hooks")
	}
	return c.JSON(fiber.Map{"success": true, "data": hooks})
}

// automationSignups renders signups in the flat shape automation consumers
// map fields from. The list is always non-nil so an empty waitlist serializes
// as [] instead of null.
func automationSignups(records []models.Signup, waitlist *models.Waitlist) []fiber.Map {
	out := make([]fiber.Map, 0, len(records))
	for i := range records {
		s := &records[i]
		entry := fiber.Map{
			"id":              s.ID,
			"email":           s.Email,
			"position":        s.Position,
			"priority":        s.Priority,
			"status":          s.Status,
			"verified":        s.Status == models.SignupStatusVerified || s.VerifiedAt != nil,
			"referral_code":   s.ReferralCode,
			"referral_token":  s.ReferralCode,
			"referral_link":   notify.ReferralLink(waitlist.ID, s.ReferralCode),
			"referral_count":  s.ReferralCount,
			"amount_referred": s.ReferralCount,
			"referred_by":     s.ReferredBy,
			"metadata":        s.Metadata,
			"created_at":      s.CreatedAt,
			"verified_at":     s.VerifiedAt,
			"admitted_at":     s.AdmittedAt,
			"waitlist_id":     waitlist.ID,
			"waitlist_name":   waitlist.Name,
		}
		if s.IsAdmitted() {
			entry["removed_date"] = s.AdmittedAt
			entry["removed_priority"] = s.Priority
		}
		out = append(out, entry)
	}
	return out
}
