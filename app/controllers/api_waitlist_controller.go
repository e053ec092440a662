package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/limits"
	"github.com/riceboxdev/Velvet/internal/pkg/principalcontext"
)

type createWaitlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateWaitlistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// HandleAPICreateWaitlist creates a waitlist for the authenticated principal.
// The plan's waitlist quota is enforced by the CheckLimit middleware in front
// of this handler.
func HandleAPICreateWaitlist(c *fiber.Ctx) error {
	var req createWaitlistRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	waitlist, err := models.NewWaitlist(req.Name, req.Description, principalcontext.PrincipalID(c))
	if err != nil {
		return respondBadRequest(c, "Invalid waitlist: name must be 1-150 characters")
	}

	if err := repository.GetGlobalFactory().GetWaitlistRepository().Create(waitlist); err != nil {
		return respondInternalError(c, "Failed to create waitlist")
	}

	body := fiber.Map{"data": waitlist}
	// CheckLimit resolved the plan already; echo it so dashboards can refresh
	// their quota display without a second request.
	if planLimits := limits.FromContext(c); planLimits != nil {
		body["plan"] = planLimits
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

// HandleAPIListWaitlists lists the principal's waitlists.
func HandleAPIListWaitlists(c *fiber.Ctx) error {
	waitlists, err := repository.GetGlobalFactory().GetWaitlistRepository().GetByOwner(principalcontext.PrincipalID(c))
	if err != nil {
		return respondInternalError(c, "Failed to list waitlists")
	}
	return c.JSON(fiber.Map{"data": waitlists})
}

// HandleAPIGetWaitlist returns one owned waitlist, credentials included.
func HandleAPIGetWaitlist(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}
	return c.JSON(fiber.Map{"data": waitlist})
}

// HandleAPIUpdateWaitlist updates name, description or the active flag.
func HandleAPIUpdateWaitlist(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}

	var req updateWaitlistRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	if req.Name != nil {
		waitlist.Name = *req.Name
	}
	if req.Description != nil {
		waitlist.Description = *req.Description
	}
	if req.IsActive != nil {
		waitlist.IsActive = *req.IsActive
	}
	if err := waitlist.Validate(); err != nil {
		return respondBadRequest(c, "Invalid waitlist: name must be 1-150 characters")
	}

	if err := repository.GetGlobalFactory().GetWaitlistRepository().Update(waitlist); err != nil {
		return respondInternalError(c, "Failed to update waitlist")
	}
	return c.JSON(fiber.Map{"data": waitlist})
}

// HandleAPIDeleteWaitlist deletes a waitlist and everything attached to it.
func HandleAPIDeleteWaitlist(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}

	if err := repository.GetGlobalFactory().GetWaitlistRepository().Delete(waitlist.ID); err != nil {
		return respondInternalError(c, "Failed to delete waitlist")
	}
	return c.JSON(fiber.Map{"message": "Waitlist deleted"})
}

// HandleAPIUpdateSettings applies a partial settings update. Sections absent
// from the body are left untouched. Gated sections check the owner's plan.
func HandleAPIUpdateSettings(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}

	var update models.WaitlistSettingsUpdate
	if err := c.BodyParser(&update); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	gate := limits.NewGate(repository.GetGlobalFactory().GetSubscriptionRepository())
	principalID := principalcontext.PrincipalID(c)
	if update.HidePositionCount != nil && *update.HidePositionCount {
		if err := gate.RequireFeature(principalID, models.FeatureHidePositionCount); err != nil {
			return limits.RespondGateError(c, err)
		}
	}
	if update.Connectors != nil && update.Connectors.Zapier.Enabled {
		if err := gate.RequireFeature(principalID, models.FeatureZapierIntegration); err != nil {
			return limits.RespondGateError(c, err)
		}
	}

	waitlist.Settings.Apply(update)

	repo := repository.GetGlobalFactory().GetWaitlistRepository()
	if err := repo.SaveSettings(waitlist.ID, waitlist.Settings); err != nil {
		return respondInternalError(c, "Failed to save settings")
	}
	return c.JSON(fiber.Map{"data": waitlist.Settings})
}

// HandleAPIRegenerateAPIKey rotates the waitlist API key. The old key stops
// working immediately.
func HandleAPIRegenerateAPIKey(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}

	updated, err := repository.GetGlobalFactory().GetWaitlistRepository().RegenerateAPIKey(waitlist.ID)
	if err != nil {
		return respondInternalError(c, "Failed to regenerate API key")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"api_key": updated.APIKey}})
}

// HandleAPIRegenerateAutomationKey rotates the automation-platform key.
func HandleAPIRegenerateAutomationKey(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}

	updated, err := repository.GetGlobalFactory().GetWaitlistRepository().RegenerateAutomationKey(waitlist.ID)
	if err != nil {
		return respondInternalError(c, "Failed to regenerate automation key")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"automation_key": updated.AutomationKey}})
}

// HandleAPIAccountLimits returns the principal's resolved plan limits and
// current usage against them.
func HandleAPIAccountLimits(c *fiber.Ctx) error {
	factory := repository.GetGlobalFactory()
	principalID := principalcontext.PrincipalID(c)

	gate := limits.NewGate(factory.GetSubscriptionRepository())
	planLimits, err := gate.ResolveLimits(principalID)
	if err != nil {
		return respondInternalError(c, "Failed to resolve plan limits")
	}

	waitlistCount, err := factory.GetWaitlistRepository().CountByOwner(principalID)
	if err != nil {
		return respondInternalError(c, "Failed to count waitlists")
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"plan":  planLimits,
			"usage": fiber.Map{"waitlists": waitlistCount},
		},
	})
}
