package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/riceboxdev/Velvet/internal/pkg/env"
	"github.com/riceboxdev/Velvet/internal/pkg/principalcontext"
	"github.com/riceboxdev/Velvet/internal/pkg/security"
)

// PrincipalAuthMiddleware authenticates tenant API requests carrying a signed
// bearer token. Tokens are minted by the upstream identity service; this core
// only verifies them.
func PrincipalAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Missing bearer token",
			})
		}

		secret := env.GetEnv("PRINCIPAL_TOKEN_SECRET", "")
		if secret == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal_server_error",
				"message": "Token verification unavailable",
			})
		}

		claims, err := security.VerifyPrincipalToken(token, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid or expired token",
			})
		}

		principalcontext.Set(c, principalcontext.PrincipalContext{
			PrincipalID:     claims.PrincipalID,
			IsAuthenticated: true,
		})

		return c.Next()
	}
}

// RequirePrincipal rejects requests that reached a protected route without an
// authenticated principal.
func RequirePrincipal(c *fiber.Ctx) error {
	if !principalcontext.Get(c).IsAuthenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Authentication required",
		})
	}
	return c.Next()
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
