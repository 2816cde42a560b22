package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/temperature-predictor/internal/config"
	"github.com/bobby-s-dev/temperature-predictor/internal/logging"
	"github.com/bobby-s-dev/temperature-predictor/internal/services"
	"github.com/bobby-s-dev/temperature-predictor/pkg/client"
	"go.uber.org/zap"
)

type predictFunc func(month, hour int) (float64, error)

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

	predict, err := newPredictFunc(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}

	if err := run(os.Stdin, os.Stdout, predict); err != nil {
		logger.Fatal("Prediction failed", zap.Error(err))
	}
}

// newPredictFunc uses the local artifact unless a predictor API URL is set.
func newPredictFunc(cfg *config.Config, logger *zap.Logger) (predictFunc, error) {
	if cfg.Client.URL != "" {
		c := client.NewPredictorClient(cfg.Client.URL, client.ClientConfig{
			Timeout:        cfg.Client.Timeout,
			MaxRetries:     cfg.Retry.MaxRetries,
			RetryDelay:     cfg.Retry.Delay,
			Multiplier:     cfg.Retry.Multiplier,
			BreakerTimeout: cfg.CircuitBreaker.Timeout,
		}, logger)
		return func(month, hour int) (float64, error) {
			return c.Predict(context.Background(), month, hour)
		}, nil
	}

	predictor, err := services.NewPredictor(cfg.Model.Path, cfg.Model.TempScale, 0, logger)
	if err != nil {
		return nil, err
	}
	return predictor.Predict, nil
}

func run(in io.Reader, out io.Writer, predict predictFunc) error {
	reader := bufio.NewReader(in)

	month, err := promptInt(reader, out, "Enter month (1-12): ")
	if err != nil {
		return err
	}
	hour, err := promptInt(reader, out, "Enter hour (0-23): ")
	if err != nil {
		return err
	}

	temp, err := predict(month, hour)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "Predicted temperature for month %d, hour %d: %.2f°C\n", month, hour, temp)
	return err
}

func promptInt(reader *bufio.Reader, out io.Writer, prompt string) (int, error) {
	if _, err := io.WriteString(out, prompt); err != nil {
		return 0, err
	}
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, fmt.Errorf("reading input: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", strings.TrimSpace(line), err)
	}
	return v, nil
}
