package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/temperature-predictor/internal/api"
	"github.com/bobby-s-dev/temperature-predictor/internal/config"
	"github.com/bobby-s-dev/temperature-predictor/internal/logging"
	"github.com/bobby-s-dev/temperature-predictor/internal/scheduler"
	"github.com/bobby-s-dev/temperature-predictor/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger until the configured one is built
	bootstrap, _ := zap.NewProduction()
	zap.ReplaceGlobals(bootstrap)

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		bootstrap.Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	logger.Info("Starting temperature prediction service")

	// The model is loaded once; without a reloader it is fixed for the
	// life of the process.
	predictor, err := services.NewPredictor(cfg.Model.Path, cfg.Model.TempScale, cfg.Cache.MaxSize, logger)
	if err != nil {
		logger.Fatal("Failed to load model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}

	reloader := scheduler.NewReloader(predictor, cfg.Reload.Schedule, cfg.Reload.Watch, logger)
	if err := reloader.Start(); err != nil {
		logger.Fatal("Failed to start model reloader", zap.Error(err))
	}

	app := api.NewApp(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	handler := api.NewHandler(predictor, reloader, logger)
	api.SetupRoutes(app, handler, logger)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reloader.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
