package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/limits"
	"github.com/riceboxdev/Velvet/internal/pkg/principalcontext"
)

// APIKeyAuthMiddleware authenticates requests carrying a waitlist API key and
// stores the resolved waitlist on the request.
func APIKeyAuthMiddleware(waitlists repository.WaitlistRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		waitlist, err := waitlists.GetByAPIKey(apiKey)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
			}
			fiberlog.Errorf("[Auth] api key lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "API key verification failed"})
		}

		if !waitlist.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Waitlist inactive"})
		}

		c.Locals(principalcontext.KeyWaitlist, waitlist)
		return c.Next()
	}
}

// AutomationKeyAuthMiddleware authenticates automation-platform requests by
// automation key. Requires the zapier connector toggle and the owning plan's
// integration feature.
func AutomationKeyAuthMiddleware(waitlists repository.WaitlistRepository, gate *limits.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := extractAPIKeyFromHeader(c)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing automation key"})
		}

		waitlist, err := waitlists.GetByAutomationKey(key)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid automation key"})
			}
			fiberlog.Errorf("[Auth] automation key lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Automation key verification failed"})
		}

		if !waitlist.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Waitlist inactive"})
		}
		if !waitlist.Settings.Connectors.Zapier.Enabled {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Automation connector disabled for this waitlist"})
		}

		if err := gate.RequireFeature(waitlist.OwnerID, models.FeatureZapierIntegration); err != nil {
			return limits.RespondGateError(c, err)
		}

		c.Locals(principalcontext.KeyWaitlist, waitlist)
		return c.Next()
	}
}

// WaitlistFromLocals returns the waitlist stored by the key middlewares.
func WaitlistFromLocals(c *fiber.Ctx) *models.Waitlist {
	if wl, ok := c.Locals(principalcontext.KeyWaitlist).(*models.Waitlist); ok {
		return wl
	}
	return nil
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-Api-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
