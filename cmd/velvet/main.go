package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/riceboxdev/Velvet/app/controllers"
	"github.com/riceboxdev/Velvet/app/repository"
	"github.com/riceboxdev/Velvet/internal/pkg/cache"
	"github.com/riceboxdev/Velvet/internal/pkg/database"
	"github.com/riceboxdev/Velvet/internal/pkg/env"
	"github.com/riceboxdev/Velvet/internal/pkg/notify"
	"github.com/riceboxdev/Velvet/internal/pkg/router"
)

func main() {
	app, notifier := NewApplication()
	if err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))); err != nil {
		log.Fatal(err)
	}
	// Listener stopped; let in-flight webhook deliveries drain.
	notifier.Wait()
}

func NewApplication() (*fiber.App, *notify.Dispatcher) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())

	repos := repository.GetGlobalRepositories()
	notifier := notify.NewDispatcher(repos.Webhook, repos.AutomationHook)
	controllers.SetNotifier(notifier)

	app := fiber.New(fiber.Config{
		AppName: "Velvet",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app, notifier
}
