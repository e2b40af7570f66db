package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"leadflow/config"
	"leadflow/enrich"
	"leadflow/middleware"
	"leadflow/models"
	"leadflow/notify"
	"leadflow/routes"
	"leadflow/store"
	"leadflow/worker"
)

func main() {
	// Load configuration; missing credentials must stop the process here.
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if config.AppConfig.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logrus.Fatalf("Failed to initialize Sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.CreateDefaultSalesTeam(config.DB); err != nil {
		logrus.Fatalf("Failed to seed sales team: %v", err)
	}

	// Redis is optional; the dead-letter list and status cache degrade to
	// bounded in-memory fallbacks without it.
	if err := config.ConnectRedis(); err != nil {
		logrus.Warnf("Redis unavailable, continuing with fallbacks: %v", err)
		config.Redis = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared services
	leads := store.NewLeadStore(config.DB)
	deadLetters := store.NewDeadLetterStore(config.Redis, config.DB, config.AppConfig.DeadLetterCap)
	statusCache := store.NewStatusCache(config.Redis, config.AppConfig.StatusCacheTTL, 1000)

	var analyzer enrich.Analyzer
	if config.AppConfig.Gemini.APIKey != "" {
		dbd := enrich.NewDBDClient(config.AppConfig.DBDBaseURL, 10*time.Second)
		geminiAnalyzer, err := enrich.NewGeminiAnalyzer(ctx, enrich.GeminiConfig{
			APIKey:  config.AppConfig.Gemini.APIKey,
			Model:   config.AppConfig.Gemini.Model,
			Timeout: config.AppConfig.Gemini.Timeout,
		}, dbd)
		if err != nil {
			logrus.Fatalf("Failed to initialize Gemini analyzer: %v", err)
		}
		analyzer = geminiAnalyzer
	} else {
		logrus.Warn("GEMINI_API_KEY not set, leads will get default analysis")
		analyzer = enrich.NewNoopAnalyzer()
	}

	notifier, err := notify.NewLineNotifier(
		config.AppConfig.Line.ChannelToken,
		config.AppConfig.Line.SalesGroupID,
	)
	if err != nil {
		logrus.Fatalf("Failed to initialize LINE notifier: %v", err)
	}

	// Create Fiber app
	app := fiber.New()
	app.Use(middleware.CORS())

	// Start the dead-letter replay worker
	deadLetterWorker := worker.NewDeadLetterWorker(deadLetters, leads, notifier)
	go deadLetterWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		DB:          config.DB,
		Leads:       leads,
		Analyzer:    analyzer,
		Notifier:    notifier,
		DeadLetters: deadLetters,
		StatusCache: statusCache,
	})

	// Start server
	logrus.Infof("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
