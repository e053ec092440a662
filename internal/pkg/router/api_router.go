package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/riceboxdev/Velvet/app/controllers"
	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/limits"
	"github.com/riceboxdev/Velvet/internal/pkg/middleware"
)

// ApiRouter installs the tenant API behind bearer principal auth.
type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	repos := repository.GetGlobalRepositories()
	gate := limits.NewGate(repos.Subscription)

	api := app.Group("/api", limiter.New())
	v1 := api.Group("/v1", middleware.PrincipalAuthMiddleware(), middleware.RequirePrincipal)

	waitlists := v1.Group("/waitlists")
	waitlists.Post("/", limits.CheckLimit(gate, repos, limits.LimitMaxWaitlists), controllers.HandleAPICreateWaitlist)
	waitlists.Get("/", controllers.HandleAPIListWaitlists)
	waitlists.Get("/:id", controllers.HandleAPIGetWaitlist)
	waitlists.Put("/:id", controllers.HandleAPIUpdateWaitlist)
	waitlists.Delete("/:id", controllers.HandleAPIDeleteWaitlist)
	waitlists.Put("/:id/settings", controllers.HandleAPIUpdateSettings)
	waitlists.Post("/:id/api-key/regenerate", controllers.HandleAPIRegenerateAPIKey)
	waitlists.Post("/:id/automation-key/regenerate", controllers.HandleAPIRegenerateAutomationKey)
	waitlists.Get("/:id/signups", controllers.HandleAPIListSignups)
	waitlists.Get("/:id/webhooks", controllers.HandleAPIListWebhooks)
	waitlists.Post("/:id/webhooks", controllers.HandleAPICreateWebhook)

	signups := v1.Group("/signups")
	signups.Post("/:id/offboard", controllers.HandleAPIOffboardSignup)
	signups.Post("/:id/verify", controllers.HandleAPIVerifySignup)
	signups.Post("/:id/advance",
		limits.RequireFeature(gate, models.FeatureMoveUserPosition),
		controllers.HandleAPIAdvanceSignup)
	signups.Delete("/:id", controllers.HandleAPIDeleteSignup)

	v1.Delete("/webhooks/:id", controllers.HandleAPIDeleteWebhook)
	v1.Get("/account/limits", controllers.HandleAPIAccountLimits)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
