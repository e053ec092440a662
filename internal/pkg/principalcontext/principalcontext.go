package principalcontext

import "github.com/gofiber/fiber/v2"

// Shared Locals keys used across controllers and middlewares
const (
	ContextKey  = "PRINCIPAL_CONTEXT"
	KeyWaitlist = "WAITLIST"
)

// PrincipalContext represents the authenticated tenant principal for a
// request. The identity has already been verified upstream; only the opaque
// identifier travels through the core.
type PrincipalContext struct {
	PrincipalID     string `json:"principal_id"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// Get retrieves the principal context from fiber context.
// Returns an anonymous context if none is set.
func Get(c *fiber.Ctx) PrincipalContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		return ctx.(PrincipalContext)
	}
	return PrincipalContext{}
}

// Set stores the principal context on the request.
func Set(c *fiber.Ctx, pc PrincipalContext) {
	c.Locals(ContextKey, pc)
}

// PrincipalID returns the current principal's identifier, or empty when the
// request is unauthenticated.
func PrincipalID(c *fiber.Ctx) string {
	return Get(c).PrincipalID
}
