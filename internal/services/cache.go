package services

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

type cacheKey struct {
	generation uint64
	month      int
	hour       int
}

// PredictionCache memoizes scaled predictions. Keys carry the model
// generation, so an entry written by a request that raced a reload can never
// be served for the new model.
type PredictionCache struct {
	items  *lru.Cache[cacheKey, float64]
	logger *zap.Logger
	size   int
}

// NewPredictionCache returns nil when size is not positive; a nil cache is a
// valid, always-missing cache.
func NewPredictionCache(size int, logger *zap.Logger) (*PredictionCache, error) {
	if size <= 0 {
		return nil, nil
	}
	items, err := lru.New[cacheKey, float64](size)
	if err != nil {
		return nil, err
	}
	return &PredictionCache{items: items, logger: logger, size: size}, nil
}

func (c *PredictionCache) Get(generation uint64, month, hour int) (float64, bool) {
	if c == nil {
		return 0, false
	}
	return c.items.Get(cacheKey{generation, month, hour})
}

func (c *PredictionCache) Set(generation uint64, month, hour int, value float64) {
	if c == nil {
		return
	}
	if evicted := c.items.Add(cacheKey{generation, month, hour}, value); evicted {
		c.logger.Debug("Evicted oldest prediction from cache")
	}
}

func (c *PredictionCache) Purge() {
	if c == nil {
		return
	}
	n := c.items.Len()
	c.items.Purge()
	c.logger.Debug("Prediction cache purged", zap.Int("count", n))
}

func (c *PredictionCache) GetStats() map[string]interface{} {
	if c == nil {
		return map[string]interface{}{"enabled": false}
	}
	return map[string]interface{}{
		"enabled":  true,
		"items":    c.items.Len(),
		"max_size": c.size,
	}
}
