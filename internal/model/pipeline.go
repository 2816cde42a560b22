// Package model holds the regression pipeline used to predict temperature
// from (MONTH, HOUR) and its on-disk artifact format.
package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var DefaultFeatures = []string{"MONTH", "HOUR"}

// Pipeline applies a StandardScaler before a LinearRegression. Once fitted it
// is never mutated.
type Pipeline struct {
	Features  []string
	Scaler    StandardScaler
	Regressor LinearRegression
}

func NewPipeline() *Pipeline {
	return &Pipeline{Features: append([]string(nil), DefaultFeatures...)}
}

func (p *Pipeline) Fit(x [][]float64, y []float64) error {
	if err := p.Scaler.Fit(x); err != nil {
		return err
	}
	scaled, err := p.Scaler.Transform(x)
	if err != nil {
		return err
	}
	if err := p.Regressor.Fit(scaled, y); err != nil {
		return err
	}
	for _, c := range p.Regressor.Coef {
		if !finite(c) {
			return errors.New("pipeline: fitted coefficients are not finite")
		}
	}
	if !finite(p.Regressor.Intercept) {
		return errors.New("pipeline: fitted intercept is not finite")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p *Pipeline) Predict(x [][]float64) ([]float64, error) {
	if len(p.Scaler.Mean) == 0 {
		return nil, errors.New("pipeline is not fitted")
	}
	scaled, err := p.Scaler.Transform(x)
	if err != nil {
		return nil, err
	}
	return p.Regressor.Predict(scaled)
}

// PredictOne returns the raw model output for a single (month, hour) pair.
func (p *Pipeline) PredictOne(month, hour int) (float64, error) {
	out, err := p.Predict([][]float64{{float64(month), float64(hour)}})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Score returns the coefficient of determination on (x, y).
func (p *Pipeline) Score(x [][]float64, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("score: %d samples but %d targets", len(x), len(y))
	}
	pred, err := p.Predict(x)
	if err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(pred, y, nil), nil
}
