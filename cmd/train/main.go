package main

import (
	"fmt"

	"github.com/bobby-s-dev/temperature-predictor/internal/config"
	"github.com/bobby-s-dev/temperature-predictor/internal/logging"
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

	trainer := services.NewTrainer(cfg.Model.TrainingDataPath, cfg.Model.Path, cfg.Model.TempScale, logger)
	result, err := trainer.Train()
	if err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}

	fmt.Println("Model trained and saved to", result.Path)
}
