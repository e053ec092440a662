package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/riceboxdev/Velvet/app/controllers"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/limits"
	"github.com/riceboxdev/Velvet/internal/pkg/middleware"
)

// AutomationRouter installs the automation-platform surface: polling
// triggers and REST hook subscriptions, authenticated by automation key.
type AutomationRouter struct {
}

func (h AutomationRouter) InstallRouter(app *fiber.App) {
	repos := repository.GetGlobalRepositories()
	gate := limits.NewGate(repos.Subscription)

	automation := app.Group("/api/automation", limiter.New(), middleware.AutomationKeyAuthMiddleware(repos.Waitlist, gate))

	automation.Get("/signups", controllers.HandleAutomationPollSignups)
	automation.Get("/referrers", controllers.HandleAutomationPollReferrers)
	automation.Get("/offboarded", controllers.HandleAutomationPollOffboarded)

	automation.Post("/hooks", controllers.HandleAutomationSubscribe)
	automation.Get("/hooks", controllers.HandleAutomationListHooks)
	automation.Delete("/hooks/:id", controllers.HandleAutomationUnsubscribe)
}

func NewAutomationRouter() *AutomationRouter {
	return &AutomationRouter{}
}
