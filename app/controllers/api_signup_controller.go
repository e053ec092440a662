package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
)

// HandleAPIListSignups lists a waitlist's signups with paging, status filter
// and sorting.
func HandleAPIListSignups(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	opts := repository.SignupListOptions{
		Limit:  limit,
		Offset: offset,
		Status: c.Query("status"),
		SortBy: c.Query("sort_by", "position"),
		Order:  c.Query("order", "asc"),
	}

	signups := repository.GetGlobalFactory().GetSignupRepository()
	records, err := signups.ListByWaitlist(waitlist.ID, opts)
	if err != nil {
		return respondInternalError(c, "Failed to list signups")
	}
	total, err := signups.CountByWaitlist(waitlist.ID, opts.Status)
	if err != nil {
		return respondInternalError(c, "Failed to count signups")
	}

	return c.JSON(fiber.Map{
		"data": records,
		"pagination": fiber.Map{
			"total":    total,
			"limit":    opts.EffectiveLimit(),
			"offset":   opts.Offset,
			"has_more": int64(opts.Offset+len(records)) < total,
		},
	})
}

// HandleAPIOffboardSignup admits a signup off the waitlist and announces it.
func HandleAPIOffboardSignup(c *fiber.Ctx) error {
	signup, waitlist, err := requireOwnedSignup(c, c.Params("id"))
	if signup == nil {
		return err
	}

	admitted, err := repository.GetGlobalFactory().GetSignupRepository().Offboard(signup.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyAdmitted) {
			return respondBadRequest(c, "Signup is already admitted")
		}
		return respondInternalError(c, "Failed to offboard signup")
	}

	invalidateStatsCache(waitlist.ID)
	if notifier != nil {
		notifier.SignupOffboarded(waitlist, admitted)
	}
	return c.JSON(fiber.Map{"data": admitted})
}

// HandleAPIVerifySignup marks a signup's email as verified. Verifying twice
// is a no-op.
func HandleAPIVerifySignup(c *fiber.Ctx) error {
	signup, _, err := requireOwnedSignup(c, c.Params("id"))
	if signup == nil {
		return err
	}

	verified, err := repository.GetGlobalFactory().GetSignupRepository().Verify(signup.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyAdmitted) {
			return respondBadRequest(c, "Signup is already admitted")
		}
		return respondInternalError(c, "Failed to verify signup")
	}
	return c.JSON(fiber.Map{"data": verified})
}

type advanceSignupRequest struct {
	Amount int64 `json:"amount"`
}

// HandleAPIAdvanceSignup manually adjusts a signup's priority. Positive
// amounts move it up the ranking.
func HandleAPIAdvanceSignup(c *fiber.Ctx) error {
	signup, _, err := requireOwnedSignup(c, c.Params("id"))
	if signup == nil {
		return err
	}

	var req advanceSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}
	if req.Amount == 0 {
		return respondBadRequest(c, "amount must be non-zero")
	}

	advanced, err := repository.GetGlobalFactory().GetSignupRepository().AdvancePriority(signup.ID, req.Amount)
	if err != nil {
		return respondInternalError(c, "Failed to advance signup")
	}
	return c.JSON(fiber.Map{"data": advanced})
}

// HandleAPIDeleteSignup removes a signup from the ledger entirely.
func HandleAPIDeleteSignup(c *fiber.Ctx) error {
	signup, waitlist, err := requireOwnedSignup(c, c.Params("id"))
	if signup == nil {
		return err
	}

	if err := repository.GetGlobalFactory().GetSignupRepository().Delete(signup.ID); err != nil {
		return respondInternalError(c, "Failed to delete signup")
	}
	invalidateStatsCache(waitlist.ID)
	return c.JSON(fiber.Map{"message": "Signup deleted"})
}

// requireOwnedSignup loads a signup and checks the authenticated principal
// owns its waitlist. Both missing and foreign signups answer 404.
func requireOwnedSignup(c *fiber.Ctx, id string) (*models.Signup, *models.Waitlist, error) {
	signup, err := repository.GetGlobalFactory().GetSignupRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, respondNotFound(c, "Signup not found")
		}
		return nil, nil, respondInternalError(c, "Failed to load signup")
	}

	waitlist, werr := requireOwnedWaitlist(c, signup.WaitlistID)
	if waitlist == nil {
		return nil, nil, werr
	}
	return signup, waitlist, nil
}
