package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/saeid-a/GymDashBack/internal/config"
	"github.com/saeid-a/GymDashBack/internal/database"
	"github.com/saeid-a/GymDashBack/internal/logger"
	"github.com/saeid-a/GymDashBack/internal/routes"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		logger.L().Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(ctx, cfg.DBUrl); err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB()

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "GymDashBack",
		BodyLimit: 12 * 1024 * 1024,
	})

	// Middleware
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(ctx, app, cfg, database.DB); err != nil {
		logger.L().Fatal("failed to register routes", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		logger.L().Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.L().Error("server shutdown failed", zap.Error(err))
		}
	}()

	// 4. Start Server
	logger.L().Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.L().Fatal("server failed to start", zap.Error(err))
	}
}
