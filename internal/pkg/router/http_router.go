package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riceboxdev/Velvet/app/controllers"
	"github.com/riceboxdev/Velvet/internal/pkg/middleware"
)

// HttpRouter installs the public, unauthenticated surface: joining a
// waitlist and the hosted-page reads.
type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	signupLimiter := middleware.SignupRateLimiter()

	app.Post("/signup", signupLimiter, controllers.HandleCreateSignup)
	app.Get("/signup/check/:waitlistId/:email", controllers.HandleCheckSignup)
	app.Get("/signup/:referralCode", controllers.HandleGetSignupByReferralCode)

	app.Get("/waitlist/:id", controllers.HandleGetWaitlistPublic)
	app.Get("/waitlist/:id/leaderboard", controllers.HandleGetLeaderboard)
	app.Get("/waitlist/:id/stats", controllers.HandleGetWaitlistStats)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
