package services

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobby-s-dev/temperature-predictor/internal/model"
	"github.com/bobby-s-dev/temperature-predictor/internal/models"
	"go.uber.org/zap"
)

type loadedModel struct {
	pipeline   *model.Pipeline
	generation uint64
	loadedAt   time.Time
}

// Predictor serves predictions from a fitted pipeline shared read-only by
// all callers. Reload swaps the pipeline atomically; requests already holding
// the previous one finish with it.
type Predictor struct {
	current atomic.Pointer[loadedModel]
	cache   *PredictionCache
	logger  *zap.Logger
	path    string
	scale   float64

	reloadMu sync.Mutex
	reloads  int
	predicts atomic.Int64
	failures atomic.Int64
}

// NewPredictor loads the artifact at path. A missing or undecodable artifact
// is returned as an error for the caller to treat as fatal.
func NewPredictor(path string, scale float64, cacheSize int, logger *zap.Logger) (*Predictor, error) {
	pipeline, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	p, err := NewPredictorFromPipeline(pipeline, scale, cacheSize, logger)
	if err != nil {
		return nil, err
	}
	p.path = path

	logger.Info("Model loaded",
		zap.String("path", path),
		zap.Float64s("coef", pipeline.Regressor.Coef),
		zap.Float64("intercept", pipeline.Regressor.Intercept))
	return p, nil
}

func NewPredictorFromPipeline(pipeline *model.Pipeline, scale float64, cacheSize int, logger *zap.Logger) (*Predictor, error) {
	if pipeline == nil {
		return nil, errors.New("nil pipeline")
	}
	cache, err := NewPredictionCache(cacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("creating prediction cache: %w", err)
	}
	p := &Predictor{
		cache:  cache,
		logger: logger,
		scale:  scale,
	}
	p.current.Store(&loadedModel{pipeline: pipeline, generation: 1, loadedAt: time.Now()})
	return p, nil
}

// Predict returns the model output for (month, hour) multiplied by the
// temperature scale. It is unrounded.
func (p *Predictor) Predict(month, hour int) (float64, error) {
	m := p.current.Load()
	if m == nil {
		return 0, &InferenceError{Err: errors.New("no model loaded")}
	}

	if v, ok := p.cache.Get(m.generation, month, hour); ok {
		p.predicts.Add(1)
		return v, nil
	}

	raw, err := m.pipeline.PredictOne(month, hour)
	if err != nil {
		p.failures.Add(1)
		return 0, &InferenceError{Err: err}
	}
	v := raw * p.scale
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p.failures.Add(1)
		return 0, &InferenceError{Err: fmt.Errorf("non-finite prediction %v", v)}
	}

	p.cache.Set(m.generation, month, hour, v)
	p.predicts.Add(1)
	return v, nil
}

// Reload reads the artifact from the path the predictor was created with.
func (p *Predictor) Reload() error {
	if p.path == "" {
		return errors.New("predictor has no artifact path")
	}
	return p.ReloadFrom(p.path)
}

// ReloadFrom loads a new artifact and swaps it in. On failure the current
// model stays in place.
func (p *Predictor) ReloadFrom(path string) error {
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	pipeline, err := model.Load(path)
	if err != nil {
		p.logger.Error("Model reload failed, keeping current model",
			zap.String("path", path),
			zap.Error(err))
		return err
	}

	prev := p.current.Load()
	next := &loadedModel{
		pipeline:   pipeline,
		generation: prev.generation + 1,
		loadedAt:   time.Now(),
	}
	p.current.Store(next)
	p.cache.Purge()
	p.reloads++

	p.logger.Info("Model reloaded",
		zap.String("path", path),
		zap.Uint64("generation", next.generation),
		zap.Float64s("coef", pipeline.Regressor.Coef),
		zap.Float64("intercept", pipeline.Regressor.Intercept))
	return nil
}

func (p *Predictor) Path() string { return p.path }

func (p *Predictor) Status() models.ModelStatus {
	p.reloadMu.Lock()
	reloads := p.reloads
	p.reloadMu.Unlock()

	m := p.current.Load()
	return models.ModelStatus{
		Path:     p.path,
		LoadedAt: m.loadedAt,
		Reloads:  reloads,
	}
}

func (p *Predictor) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"predictions": p.predicts.Load(),
		"failures":    p.failures.Load(),
		"cache":       p.cache.GetStats(),
	}
}
