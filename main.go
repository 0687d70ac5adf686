package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-bridge/config"
	"fleet-bridge/database"
	"fleet-bridge/handlers"
	"fleet-bridge/logging"
	"fleet-bridge/messaging"
	"fleet-bridge/redis"
	"fleet-bridge/services"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewLogger(cfg.LogLevel)

	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Messaging pipeline: both broker clients feed one handler.
	pubsub := messaging.NewPubSubClient(cfg, logger)
	bus := messaging.NewCommandBusClient(cfg, logger)
	messageHandler := messaging.NewMessageHandler(
		db.RobotRepo, db.ComponentRepo, db.ActionRepo, db.StepRepo,
		db.CommandRepo, db.AlertRepo, db.TelemetryRepo,
		redisClient, pubsub, logger,
	)
	messagingService := messaging.NewService(pubsub, bus, messageHandler, logger)
	if err := messagingService.Start(); err != nil {
		logger.Error("Failed to start messaging service", "error", err)
		os.Exit(1)
	}
	defer messagingService.Stop()

	robotService := services.NewRobotService(
		db.RobotRepo, db.CommandRepo, db.TelemetryRepo, db.AlertRepo,
		redisClient, cfg, logger,
	)
	commandService := services.NewCommandService(
		db.CommandRepo, db.RobotRepo, db.AlertRepo, messagingService, logger,
	)
	fleetService := services.NewFleetService(
		db.RobotRepo, db.ComponentRepo, db.ActionRepo, db.StepRepo, logger,
	)

	apiHandler := handlers.NewAPIHandler(robotService, commandService, fleetService)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request",
				"method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.CORS())
	apiHandler.RegisterRoutes(e)

	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
