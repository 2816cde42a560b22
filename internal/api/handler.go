package api

import (
	"errors"
	"math"
	"time"

	"github.com/bobby-s-dev/temperature-predictor/internal/models"
	"github.com/bobby-s-dev/temperature-predictor/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var startTime = time.Now()

// StatusReporter describes background reload state for the health endpoint.
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

type Handler struct {
	predictor *services.Predictor
	reloader  StatusReporter
	logger    *zap.Logger
}

// NewHandler accepts a nil reloader when model reload is not wired.
func NewHandler(predictor *services.Predictor, reloader StatusReporter, logger *zap.Logger) *Handler {
	return &Handler{
		predictor: predictor,
		reloader:  reloader,
		logger:    logger,
	}
}

// Predict handles POST /predict
func (h *Handler) Predict(c *fiber.Ctx) error {
	req, err := services.ParseRequest(c.Body())
	if err != nil {
		return h.writeError(c, err)
	}

	temp, err := h.predictor.Predict(req.Month, req.Hour)
	if err != nil {
		return h.writeError(c, err)
	}

	h.logger.Debug("Prediction served",
		zap.Int("month", req.Month),
		zap.Int("hour", req.Hour),
		zap.Float64("temperature", temp))

	return c.JSON(models.PredictionResponse{
		PredictedTemperature: round2(temp),
	})
}

// GetHealth handles GET /health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	status := h.predictor.Status()

	body := fiber.Map{
		"status":          "healthy",
		"timestamp":       time.Now(),
		"uptime":          time.Since(startTime).String(),
		"model_path":      status.Path,
		"model_loaded_at": status.LoadedAt,
		"model_reloads":   status.Reloads,
		"stats":           h.predictor.GetStats(),
	}
	if h.reloader != nil {
		body["reloader"] = h.reloader.GetStatus()
	}
	return c.JSON(body)
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: validationErr.Error(),
		})
	}

	h.logger.Error("Prediction failed",
		zap.String("request_id", requestID(c)),
		zap.Error(err))

	// Same status as bad input; the detail stays in the log.
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: "prediction failed",
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
