package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/riceboxdev/Velvet/app/controllers"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/middleware"
)

// WidgetRouter installs the surface embedded widgets and tenant backends call
// with the waitlist-scoped API key.
type WidgetRouter struct {
}

func (h WidgetRouter) InstallRouter(app *fiber.App) {
	repos := repository.GetGlobalRepositories()

	widget := app.Group("/api/widget", limiter.New(), middleware.APIKeyAuthMiddleware(repos.Waitlist))

	widget.Get("/waitlist", controllers.HandleWidgetGetWaitlist)
	widget.Get("/signups/:email", controllers.HandleWidgetGetSignup)
	widget.Post("/signups/:email/offboard", controllers.HandleWidgetOffboardSignup)
}

func NewWidgetRouter() *WidgetRouter {
	return &WidgetRouter{}
}
