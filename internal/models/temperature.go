package models

import (
	"time"
)

// Record is one row of the training history. Temp is in degrees, already
// divided by the file's scale.
type Record struct {
	Month int     `json:"month"`
	Hour  int     `json:"hour"`
	Temp  float64 `json:"temp"`
}

type PredictionRequest struct {
	Month int `json:"month"`
	Hour  int `json:"hour"`
}

type PredictionResponse struct {
	PredictedTemperature float64 `json:"predicted_temperature"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ModelStatus struct {
	Path     string    `json:"path"`
	LoadedAt time.Time `json:"loaded_at"`
	Reloads  int       `json:"reloads"`
}
