package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"leadflow/config"
	controller "leadflow/controllers"
	"leadflow/enrich"
	"leadflow/middleware"
	"leadflow/notify"
	"leadflow/store"
)

// Deps carries the shared services the route handlers need.
type Deps struct {
	DB          *gorm.DB
	Leads       *store.LeadStore
	Analyzer    enrich.Analyzer
	Notifier    notify.Notifier
	DeadLetters *store.DeadLetterStore
	StatusCache *store.StatusCache
}

func SetupRoutes(app *fiber.App, deps Deps) {
	webhookController := controller.NewWebhookController(
		deps.Leads, deps.Analyzer, deps.Notifier, deps.DeadLetters, deps.StatusCache)
	lineController := controller.NewLineController(deps.Leads, deps.Notifier)
	leadController := controller.NewLeadController(deps.Leads)
	dashboardController := controller.NewDashboardController(deps.DB, deps.Leads)
	teamController := controller.NewTeamController(deps.DB)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		health := fiber.Map{"status": "ok"}

		sqlDB, err := deps.DB.DB()
		if err != nil || sqlDB.PingContext(c.Context()) != nil {
			health["status"] = "degraded"
			health["database"] = "down"
		} else {
			health["database"] = "up"
		}

		if config.Redis != nil {
			if err := config.Redis.Ping(c.Context()).Err(); err != nil {
				health["redis"] = "down"
			} else {
				health["redis"] = "up"
			}
		} else {
			health["redis"] = "disabled"
		}

		status := fiber.StatusOK
		if health["status"] != "ok" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	})

	// Webhook surface: secret-keyed, rate limited, no JWT.
	webhook := app.Group("/webhook",
		middleware.WebhookRateLimiter(120),
		logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	webhook.Post("/campaign", middleware.CampaignWebhookAuth(), webhookController.HandleCampaignEvent)
	webhook.Post("/line", middleware.LineWebhookAuth(), lineController.HandleLineWebhook)
	webhook.Get("/status/:id", middleware.CampaignWebhookAuth(), webhookController.GetPipelineStatus)

	// Dashboard API: bearer token, role checks on team management.
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetDashboardStats)
	dashboard.Get("/events", dashboardController.GetEventVolume)

	lead := api.Group("/leads")
	lead.Get("/", leadController.GetLeads)
	lead.Get("/export", leadController.ExportLeads)
	lead.Get("/:id", leadController.GetLead)
	lead.Get("/:id/history", leadController.GetLeadHistory)
	lead.Put("/:id/status", leadController.UpdateLeadStatus)

	team := api.Group("/team")
	team.Get("/", teamController.GetReps)
	team.Post("/", middleware.AdminOnly(), teamController.AddRep)
	team.Delete("/:id", middleware.AdminOnly(), teamController.DeactivateRep)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
