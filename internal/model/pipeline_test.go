package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// syntheticData returns a full month/hour grid where the target is exactly
// 2*month + 0.5*hour.
func syntheticData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for m := 1; m <= 12; m++ {
		for h := 0; h < 24; h++ {
			x = append(x, []float64{float64(m), float64(h)})
			y = append(y, 2*float64(m)+0.5*float64(h))
		}
	}
	return x, y
}

func closeTo(a, b, rel float64) bool {
	return math.Abs(a-b) <= rel*math.Max(1, math.Abs(b))
}

func TestPipelineRecoversLinearTarget(t *testing.T) {
	x, y := syntheticData()
	p := NewPipeline()
	if err := p.Fit(x, y); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	for _, tc := range []struct{ month, hour int }{{6, 12}, {1, 0}, {12, 23}} {
		got, err := p.PredictOne(tc.month, tc.hour)
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		want := 2*float64(tc.month) + 0.5*float64(tc.hour)
		if !closeTo(got, want, 1e-6) {
			t.Errorf("predict(%d,%d) = %v, want %v", tc.month, tc.hour, got, want)
		}
	}

	r2, err := p.Score(x, y)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if !closeTo(r2, 1, 1e-9) {
		t.Errorf("expected R2 of 1, got %v", r2)
	}
}

func TestPipelineExtrapolates(t *testing.T) {
	x, y := syntheticData()
	p := NewPipeline()
	if err := p.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	got, err := p.PredictOne(15, 30)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(got, 45, 1e-6) {
		t.Errorf("expected linear extrapolation 45, got %v", got)
	}
}

func TestScalerConstantFeature(t *testing.T) {
	x := [][]float64{{1, 5}, {2, 5}, {3, 5}}
	var s StandardScaler
	if err := s.Fit(x); err != nil {
		t.Fatal(err)
	}
	if s.Scale[1] != 1 {
		t.Errorf("constant feature should keep unit scale, got %v", s.Scale[1])
	}
	if !closeTo(s.Scale[0], math.Sqrt(2.0/3.0), 1e-12) {
		t.Errorf("expected population std, got %v", s.Scale[0])
	}
}

func TestPipelineRankDeficient(t *testing.T) {
	x := [][]float64{{1, 12}, {2, 12}, {3, 12}, {4, 12}}
	y := []float64{3, 5, 7, 9}
	p := NewPipeline()
	if err := p.Fit(x, y); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if !closeTo(p.Regressor.Coef[1], 0, 1e-12) {
		t.Errorf("constant feature should get zero weight, got %v", p.Regressor.Coef[1])
	}
	got, _ := p.PredictOne(5, 12)
	if !closeTo(got, 11, 1e-9) {
		t.Errorf("expected 11, got %v", got)
	}
}

func TestPipelineSingleSample(t *testing.T) {
	p := NewPipeline()
	if err := p.Fit([][]float64{{6, 12}}, []float64{21.5}); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	got, _ := p.PredictOne(1, 1)
	if got != 21.5 {
		t.Errorf("expected intercept-only model, got %v", got)
	}
}

func TestPipelineErrors(t *testing.T) {
	p := NewPipeline()
	if _, err := p.PredictOne(1, 1); err == nil {
		t.Error("expected error from unfitted pipeline")
	}
	if err := p.Fit(nil, nil); err == nil {
		t.Error("expected error fitting no samples")
	}

	x, y := syntheticData()
	if err := p.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Predict([][]float64{{1}}); err == nil {
		t.Error("expected error for wrong feature count")
	}
}

func TestSaveLoadDeterministic(t *testing.T) {
	x, y := syntheticData()
	p := NewPipeline()
	if err := p.Fit(x, y); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "temp", "predictor", "model.pkl")
	if err := Save(path, p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	first, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want, _ := p.PredictOne(6, 12)
	a, _ := first.PredictOne(6, 12)
	b, _ := second.PredictOne(6, 12)
	if a != want || b != want {
		t.Errorf("loaded models disagree: %v %v, want %v", a, b, want)
	}
	if len(first.Features) != 2 || first.Features[0] != "MONTH" {
		t.Errorf("features not persisted: %v", first.Features)
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.pkl")

	p1 := NewPipeline()
	if err := p1.Fit([][]float64{{1, 1}}, []float64{1}); err != nil {
		t.Fatal(err)
	}
	p2 := NewPipeline()
	if err := p2.Fit([][]float64{{1, 1}}, []float64{2}); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, p1); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, p2); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := loaded.PredictOne(1, 1); got != 2 {
		t.Errorf("expected overwritten model, got %v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the artifact in dir, found %d entries", len(entries))
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.pkl")
	if err := os.WriteFile(path, []byte("not a model"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error loading corrupt artifact")
	}
}

func TestPipelineRejectsNonFiniteFit(t *testing.T) {
	x := [][]float64{{1, 0}, {2, 5}, {3, 7}}
	y := []float64{10, math.NaN(), 12}

	p := NewPipeline()
	if err := p.Fit(x, y); err == nil {
		t.Fatal("expected error for non-finite fit")
	}
}
