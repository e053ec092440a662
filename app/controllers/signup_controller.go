package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/limits"
	"github.com/riceboxdev/Velvet/internal/pkg/notify"
	"github.com/riceboxdev/Velvet/internal/pkg/ranking"
)

// notifier delivers lifecycle events. Main wires the real dispatcher at
// startup; a nil notifier silently skips delivery so tests can run without it.
var notifier *notify.Dispatcher

// SetNotifier installs the shared event dispatcher.
func SetNotifier(d *notify.Dispatcher) {
	notifier = d
}

type createSignupRequest struct {
	Email        string          `json:"email"`
	WaitlistID   string          `json:"waitlist_id"`
	ReferralLink string          `json:"referral_link"`
	Metadata     models.Metadata `json:"metadata"`
}

// HandleCreateSignup joins an email to a waitlist. Repeated joins return the
// existing record with 409 instead of erroring.
func HandleCreateSignup(c *fiber.Ctx) error {
	var req createSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.WaitlistID == "" {
		return respondBadRequest(c, "email and waitlist_id are required")
	}

	factory := repository.GetGlobalFactory()
	waitlists := factory.GetWaitlistRepository()
	signups := factory.GetSignupRepository()

	waitlist, err := waitlists.GetByID(req.WaitlistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondNotFound(c, "Waitlist not found")
		}
		return respondInternalError(c, "Failed to load waitlist")
	}
	if !waitlist.IsActive {
		return respondBadRequest(c, "Waitlist is closed for signups")
	}

	if err := enforceMonthlySignupQuota(waitlist.OwnerID, waitlists, signups); err != nil {
		return limits.RespondGateError(c, err)
	}

	signup := &models.Signup{
		WaitlistID: waitlist.ID,
		Email:      models.NormalizeEmail(req.Email),
		ReferredBy: extractReferralCode(req.ReferralLink),
		Metadata:   req.Metadata,
	}
	if err := signup.Validate(); err != nil {
		return respondBadRequest(c, "Invalid email address")
	}

	created, err := signups.Create(signup)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "already_registered",
				"message": "Email already registered for this waitlist",
				"data":    signupResponse(created),
			})
		}
		return respondInternalError(c, "Failed to create signup")
	}

	attributeReferral(waitlist, created)

	if notifier != nil {
		notifier.SignupCreated(waitlist, created)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": signupResponse(created)})
}

// attributeReferral credits the referrer when the new signup carries a valid
// referral code from the same waitlist. Invalid codes are dropped silently.
func attributeReferral(waitlist *models.Waitlist, created *models.Signup) {
	if created.ReferredBy == "" {
		return
	}
	signups := repository.GetGlobalFactory().GetSignupRepository()

	referrer, err := signups.GetByReferralCode(created.ReferredBy)
	if err != nil || referrer.WaitlistID != waitlist.ID || referrer.ID == created.ID {
		return
	}

	boost := int64(waitlist.Settings.EffectivePriorityBoost())
	boosted, err := signups.ApplyReferralBoost(referrer.ReferralCode, boost)
	if err != nil {
		fiberlog.Errorf("[Signup] referral boost for %s failed: %v", referrer.ID, err)
		return
	}

	if notifier != nil {
		notifier.ReferralAttributed(waitlist, boosted)
	}
}

// enforceMonthlySignupQuota counts the owner's signups across all their
// waitlists since the start of the current month.
func enforceMonthlySignupQuota(ownerID string, waitlists repository.WaitlistRepository, signups repository.SignupRepository) error {
	gate := limits.NewGate(repository.GetGlobalFactory().GetSubscriptionRepository())
	return gate.EnforceLimit(ownerID, limits.LimitMaxSignupsPerMonth, func() (int64, error) {
		owned, err := waitlists.GetByOwner(ownerID)
		if err != nil {
			return 0, err
		}
		ids := make([]string, 0, len(owned))
		for _, wl := range owned {
			ids = append(ids, wl.ID)
		}
		now := time.Now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return signups.CountCreatedSince(ids, monthStart)
	})
}

// HandleGetSignupByReferralCode returns a signup's own record, looked up by
// the referral code embedded in its share link.
func HandleGetSignupByReferralCode(c *fiber.Ctx) error {
	code := c.Params("referralCode")

	signups := repository.GetGlobalFactory().GetSignupRepository()
	signup, err := signups.GetByReferralCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondNotFound(c, "Signup not found")
		}
		return respondInternalError(c, "Failed to load signup")
	}

	engine := ranking.NewEngine(signups)
	position, err := engine.PositionFor(signup)
	if err != nil {
		return respondInternalError(c, "Failed to compute position")
	}

	resp := signupResponse(signup)
	resp["current_position"] = position
	return c.JSON(fiber.Map{"data": resp})
}

// HandleCheckSignup reports whether an email is already registered.
func HandleCheckSignup(c *fiber.Ctx) error {
	waitlistID := c.Params("waitlistId")
	email, err := decodeEmailParam(c.Params("email"))
	if err != nil {
		return respondBadRequest(c, "Invalid email parameter")
	}

	signups := repository.GetGlobalFactory().GetSignupRepository()
	signup, err := signups.GetByEmail(waitlistID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"registered": false})
		}
		return respondInternalError(c, "Failed to check signup")
	}

	return c.JSON(fiber.Map{"registered": true, "data": signupResponse(signup)})
}

// signupResponse is the public representation of a signup, including its
// share link.
func signupResponse(signup *models.Signup) fiber.Map {
	if signup == nil {
		return fiber.Map{}
	}
	return fiber.Map{
		"id":             signup.ID,
		"waitlist_id":    signup.WaitlistID,
		"email":          signup.Email,
		"position":       signup.Position,
		"priority":       signup.Priority,
		"status":         signup.Status,
		"referral_code":  signup.ReferralCode,
		"referral_link":  notify.ReferralLink(signup.WaitlistID, signup.ReferralCode),
		"referral_count": signup.ReferralCount,
		"metadata":       signup.Metadata,
		"created_at":     signup.CreatedAt,
	}
}
