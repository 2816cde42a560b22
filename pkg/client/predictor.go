package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bobby-s-dev/temperature-predictor/internal/models"
	"go.uber.org/zap"
)

// PredictorClient calls a running HTTP predictor.
type PredictorClient struct {
	*BaseClient
	baseURL string
}

// APIError carries the error message a predictor returned with a 4xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("predictor returned %d: %s", e.StatusCode, e.Message)
}

func NewPredictorClient(baseURL string, config ClientConfig, logger *zap.Logger) *PredictorClient {
	return &PredictorClient{
		BaseClient: NewBaseClient("predictor", config, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *PredictorClient) Predict(ctx context.Context, month, hour int) (float64, error) {
	body, err := json.Marshal(models.PredictionRequest{Month: month, Hour: hour})
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}

	resp, err := c.PostWithRetry(ctx, c.baseURL+"/predict", body)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != 200 {
		var apiErr models.ErrorResponse
		if err := json.Unmarshal(resp.Body, &apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(resp.Body))
		}
		return 0, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	var out models.PredictionResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return 0, fmt.Errorf("decoding prediction: %w", err)
	}
	return out.PredictedTemperature, nil
}
