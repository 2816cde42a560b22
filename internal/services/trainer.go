package services

import (
	"fmt"
	"time"

	"github.com/bobby-s-dev/temperature-predictor/internal/dataset"
	"github.com/bobby-s-dev/temperature-predictor/internal/model"
	"go.uber.org/zap"
)

type TrainResult struct {
	Samples   int
	R2        float64
	Coef      []float64
	Intercept float64
	Path      string
	Duration  time.Duration
}

type Trainer struct {
	dataPath  string
	modelPath string
	scale     float64
	logger    *zap.Logger
}

func NewTrainer(dataPath, modelPath string, scale float64, logger *zap.Logger) *Trainer {
	return &Trainer{
		dataPath:  dataPath,
		modelPath: modelPath,
		scale:     scale,
		logger:    logger,
	}
}

// Train fits a fresh pipeline on the whole data file and overwrites the
// artifact.
func (t *Trainer) Train() (*TrainResult, error) {
	start := time.Now()

	records, err := dataset.Load(t.dataPath, t.scale)
	if err != nil {
		return nil, err
	}
	t.logger.Info("Training data loaded",
		zap.String("path", t.dataPath),
		zap.Int("records", len(records)))

	x, y := dataset.Features(records)
	pipeline := model.NewPipeline()
	if err := pipeline.Fit(x, y); err != nil {
		return nil, fmt.Errorf("fitting model: %w", err)
	}

	r2, err := pipeline.Score(x, y)
	if err != nil {
		return nil, fmt.Errorf("scoring model: %w", err)
	}

	if err := model.Save(t.modelPath, pipeline); err != nil {
		return nil, err
	}

	result := &TrainResult{
		Samples:   len(records),
		R2:        r2,
		Coef:      pipeline.Regressor.Coef,
		Intercept: pipeline.Regressor.Intercept,
		Path:      t.modelPath,
		Duration:  time.Since(start),
	}
	t.logger.Info("Model trained",
		zap.Int("samples", result.Samples),
		zap.Float64("r2", result.R2),
		zap.Float64s("coef", result.Coef),
		zap.Float64("intercept", result.Intercept),
		zap.Duration("duration", result.Duration))
	return result, nil
}
