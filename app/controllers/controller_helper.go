package controllers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/principalcontext"
)

func respondNotFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": message})
}

func respondBadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": message})
}

func respondInternalError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": message})
}

func respondForbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": message})
}

// requireOwnedWaitlist loads a waitlist and verifies the authenticated
// principal owns it. Foreign waitlists answer 404, not 403, so tenants cannot
// probe for other tenants' ids.
func requireOwnedWaitlist(c *fiber.Ctx, id string) (*models.Waitlist, error) {
	waitlist, err := repository.GetGlobalFactory().GetWaitlistRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, respondNotFound(c, "Waitlist not found")
		}
		return nil, respondInternalError(c, "Failed to load waitlist")
	}
	if waitlist.OwnerID != principalcontext.PrincipalID(c) {
		return nil, respondNotFound(c, "Waitlist not found")
	}
	return waitlist, nil
}

// decodeEmailParam unescapes an email passed as a path segment.
func decodeEmailParam(raw string) (string, error) {
	email, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	email = models.NormalizeEmail(email)
	if email == "" {
		return "", errors.New("empty email")
	}
	return email, nil
}

// extractReferralCode accepts either a bare referral code or a full referral
// link and returns the code.
func extractReferralCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "ref=") {
		if u, err := url.Parse(raw); err == nil {
			if ref := u.Query().Get("ref"); ref != "" {
				return ref
			}
		}
	}
	return raw
}
