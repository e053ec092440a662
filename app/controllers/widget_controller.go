package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/middleware"
	"github.com/riceboxdev/Velvet/internal/pkg/ranking"
)

// The widget surface is scoped to the waitlist resolved from the caller's API
// key, so none of these handlers take a waitlist id.

// HandleWidgetGetWaitlist returns the keyed waitlist's display view.
func HandleWidgetGetWaitlist(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}
	return c.JSON(fiber.Map{"data": publicWaitlistBody(waitlist)})
}

// HandleWidgetGetSignup looks up a signup by email on the keyed waitlist and
// reports its current position.
func HandleWidgetGetSignup(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}

	email, err := decodeEmailParam(c.Params("email"))
	if err != nil {
		return respondBadRequest(c, "Invalid email parameter")
	}

	signups := repository.GetGlobalFactory().GetSignupRepository()
	signup, err := signups.GetByEmail(waitlist.ID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"registered": false})
		}
		return respondInternalError(c, "Failed to load signup")
	}

	position, err := ranking.NewEngine(signups).PositionFor(signup)
	if err != nil {
		return respondInternalError(c, "Failed to compute position")
	}

	resp := signupResponse(signup)
	resp["current_position"] = position
	return c.JSON(fiber.Map{"registered": true, "data": resp})
}

// HandleWidgetOffboardSignup admits a signup by email, for backends that act
// on their waitlist with the API key instead of a dashboard session.
func HandleWidgetOffboardSignup(c *fiber.Ctx) error {
	waitlist := middleware.WaitlistFromLocals(c)
	if waitlist == nil {
		return respondInternalError(c, "Waitlist missing from request")
	}

	email, err := decodeEmailParam(c.Params("email"))
	if err != nil {
		return respondBadRequest(c, "Invalid email parameter")
	}

	signups := repository.GetGlobalFactory().GetSignupRepository()
	signup, err := signups.GetByEmail(waitlist.ID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondNotFound(c, "Signup not found")
		}
		return respondInternalError(c, "Failed to load signup")
	}

	admitted, err := signups.Offboard(signup.ID)
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
