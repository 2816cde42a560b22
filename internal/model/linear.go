package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearRegression is an ordinary least squares fit with intercept.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
}

// Fit centers the data and solves the least squares problem through an SVD,
// so a rank deficient design yields the minimum norm solution.
func (l *LinearRegression) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 {
		return errors.New("regression: no samples")
	}
	if len(y) != n {
		return fmt.Errorf("regression: %d samples but %d targets", n, len(y))
	}
	p := len(x[0])

	xMean := make([]float64, p)
	for _, row := range x {
		if len(row) != p {
			return fmt.Errorf("regression: inconsistent feature count")
		}
		floats.Add(xMean, row)
	}
	floats.Scale(1/float64(n), xMean)
	yMean := stat.Mean(y, nil)

	a := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range x {
		for j, v := range row {
			a.Set(i, j, v-xMean[j])
		}
		b.SetVec(i, y[i]-yMean)
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return errors.New("regression: SVD factorization failed")
	}

	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(n, p))

	coef := make([]float64, p)
	if rank := svd.Rank(rcond); rank > 0 {
		var solution mat.VecDense
		svd.SolveVecTo(&solution, b, rank)
		for j := range coef {
			coef[j] = solution.AtVec(j)
		}
	}

	l.Coef = coef
	l.Intercept = yMean - floats.Dot(xMean, coef)
	return nil
}

func (l *LinearRegression) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(l.Coef) {
			return nil, fmt.Errorf("regression: row %d has %d features, expected %d", i, len(row), len(l.Coef))
		}
		out[i] = l.Intercept + floats.Dot(row, l.Coef)
	}
	return out, nil
}
