package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"photogroup/config"
	"photogroup/middleware"
	"photogroup/routes"
	"photogroup/utils"
	"photogroup/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "PHOTOGROUP: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Error reporting (optional)
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.Printf("Failed to initialize Sentry: %v", err)
		}
	}

	// Initialize database connection
	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Upload directory accessor
	store, err := utils.NewFileStore(cfg.UploadDir)
	if err != nil {
		logger.Fatalf("Failed to initialize file store: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: (cfg.UploadMaxMB + 1) << 20,
	})

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Start the orphaned-file sweeper
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleanupWorker := worker.NewCleanupWorker(db, store, cfg.CleanupInterval, log.New(os.Stdout, "CLEANUP: ", log.LstdFlags))
	go cleanupWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, db, cfg, store)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
