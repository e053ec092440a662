package limits

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/principalcontext"
)

// Locals key carrying the resolved PlanLimits for downstream handlers.
const LocalsKey = "PLAN_LIMITS"

// FromContext returns the PlanLimits attached by a gate middleware, or nil.
func FromContext(c *fiber.Ctx) *PlanLimits {
	if v, ok := c.Locals(LocalsKey).(*PlanLimits); ok {
		return v
	}
	return nil
}

// RespondLimitExceeded writes the canonical 403 body for a quota breach.
func RespondLimitExceeded(c *fiber.Ctx, err *LimitExceededError) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error":            "limit_exceeded",
		"limit_type":       err.LimitType,
		"limit":            err.Limit,
		"current_usage":    err.Usage,
		"current_plan":     err.PlanName,
		"upgrade_required": true,
		"message":          "You've reached your plan limit. Please upgrade to create more.",
	})
}

// RespondFeatureRestricted writes the canonical 403 body for a missing
// capability.
func RespondFeatureRestricted(c *fiber.Ctx, err *FeatureRestrictedError) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error":            "feature_restricted",
		"feature":          err.Feature,
		"current_plan":     err.PlanName,
		"upgrade_required": true,
		"message":          "This feature requires a higher plan.",
	})
}

// RespondGateError maps any gate failure to its HTTP response, falling back
// to 500 for store errors.
func RespondGateError(c *fiber.Ctx, err error) error {
	var limitErr *LimitExceededError
	if errors.As(err, &limitErr) {
		return RespondLimitExceeded(c, limitErr)
	}
	var featureErr *FeatureRestrictedError
	if errors.As(err, &featureErr) {
		return RespondFeatureRestricted(c, featureErr)
	}
	log.Printf("limit gate error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to verify plan limits"})
}

// CheckLimit returns middleware that enforces a quota before the guarded
// mutation runs. Usage accessors are wired per limit type.
func CheckLimit(gate *Gate, repos *repository.Repositories, limitType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principalID := principalcontext.PrincipalID(c)
		if principalID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
		}

		err := gate.EnforceLimit(principalID, limitType, func() (int64, error) {
			switch limitType {
			case LimitMaxWaitlists:
				return repos.Waitlist.CountByOwner(principalID)
			case LimitMaxTeamMembers:
				// Team membership lives outside this core; a principal always
				// counts as one seat.
				return 1, nil
			default:
				return 0, nil
			}
		})
		if err != nil {
			return RespondGateError(c, err)
		}

		if planLimits, err := gate.ResolveLimits(principalID); err == nil {
			c.Locals(LocalsKey, planLimits)
		}
		return c.Next()
	}
}

// RequireFeature returns middleware that rejects principals whose plan lacks
// the capability.
func RequireFeature(gate *Gate, feature string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principalID := principalcontext.PrincipalID(c)
		if principalID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
		}
		if err := gate.RequireFeature(principalID, feature); err != nil {
			return RespondGateError(c, err)
		}
		return c.Next()
	}
}
