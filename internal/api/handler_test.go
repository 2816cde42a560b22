package api

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobby-s-dev/temperature-predictor/internal/model"
	"github.com/bobby-s-dev/temperature-predictor/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, pipeline *model.Pipeline) *fiber.App {
	t.Helper()
	predictor, err := services.NewPredictorFromPipeline(pipeline, 10, 64, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	app := NewApp(0, 0)
	SetupRoutes(app, NewHandler(predictor, nil, zap.NewNop()), zap.NewNop())
	return app
}

// linearPipeline predicts (2*month + 0.5*hour) before scaling.
func linearPipeline(t *testing.T) *model.Pipeline {
	t.Helper()
	var x [][]float64
	var y []float64
	for m := 1; m <= 12; m++ {
		for h := 0; h < 24; h++ {
			x = append(x, []float64{float64(m), float64(h)})
			y = append(y, 2*float64(m)+0.5*float64(h))
		}
	}
	p := model.NewPipeline()
	if err := p.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	return p
}

func postPredict(t *testing.T, app *fiber.App, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("invalid json %q: %v", raw, err)
	}
	return resp.StatusCode, payload
}

func TestPredictValidGrid(t *testing.T) {
	app := newTestApp(t, linearPipeline(t))

	for m := 1; m <= 12; m++ {
		for h := 0; h < 24; h++ {
			body, _ := json.Marshal(map[string]int{"month": m, "hour": h})
			code, payload := postPredict(t, app, string(body))
			if code != http.StatusOK {
				t.Fatalf("month=%d hour=%d: expected 200, got %d (%v)", m, h, code, payload)
			}
			got, ok := payload["predicted_temperature"].(float64)
			if !ok {
				t.Fatalf("missing predicted_temperature in %v", payload)
			}
			want := 20*float64(m) + 5*float64(h)
			if math.Abs(got-want) > 0.005 {
				t.Errorf("month=%d hour=%d: got %v, want %v", m, h, got, want)
			}
		}
	}
}

func TestPredictRoundsToTwoDecimals(t *testing.T) {
	p := &model.Pipeline{
		Features:  model.DefaultFeatures,
		Scaler:    model.StandardScaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}},
		Regressor: model.LinearRegression{Coef: []float64{0.123456, 0}, Intercept: 0},
	}
	app := newTestApp(t, p)

	code, payload := postPredict(t, app, `{"month": 1, "hour": 0}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if payload["predicted_temperature"].(float64) != 1.23 {
		t.Errorf("expected 1.23, got %v", payload["predicted_temperature"])
	}
}

func TestPredictDeterministic(t *testing.T) {
	app := newTestApp(t, linearPipeline(t))

	_, first := postPredict(t, app, `{"month": 6, "hour": 12}`)
	for i := 0; i < 5; i++ {
		_, next := postPredict(t, app, `{"month": 6, "hour": 12}`)
		if next["predicted_temperature"] != first["predicted_temperature"] {
			t.Fatalf("prediction changed: %v vs %v", next, first)
		}
	}
}

func TestPredictBadRequests(t *testing.T) {
	app := newTestApp(t, linearPipeline(t))

	tests := []struct {
		name string
		body string
	}{
		{"missing month", `{"hour": 12}`},
		{"missing hour", `{"month": 6}`},
		{"non-numeric", `{"month": "abc", "hour": 12}`},
		{"malformed json", `{"month": 6,`},
		{"empty body", ``},
		{"trailing data", `{"month": 6, "hour": 12} this is not json`},
		{"two objects", `{"month": 6, "hour": 12}{"month": 1, "hour": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, payload := postPredict(t, app, tt.body)
			if code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", code)
			}
			if _, ok := payload["error"].(string); !ok {
				t.Errorf("expected error field, got %v", payload)
			}
		})
	}
}

func TestPredictInferenceFailureIsSanitized(t *testing.T) {
	p := &model.Pipeline{
		Features:  model.DefaultFeatures,
		Scaler:    model.StandardScaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}},
		Regressor: model.LinearRegression{Coef: []float64{math.Inf(1), 0}},
	}
	app := newTestApp(t, p)

	code, payload := postPredict(t, app, `{"month": 1, "hour": 1}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
	if payload["error"] != "prediction failed" {
		t.Errorf("expected sanitized message, got %v", payload["error"])
	}
}

func TestCORS(t *testing.T) {
	app := newTestApp(t, linearPipeline(t))

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected any origin allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"month": 1, "hour": 1}`))
	req.Header.Set("Origin", "https://other.example")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected any origin allowed on POST, got %q", got)
	}
}

func TestHealthAndNotFound(t *testing.T) {
	app := newTestApp(t, linearPipeline(t))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from health, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/forecast", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

type staticStatus map[string]interface{}

func (s staticStatus) GetStatus() map[string]interface{} { return s }

func TestHealthReportsReloader(t *testing.T) {
	predictor, err := services.NewPredictorFromPipeline(linearPipeline(t), 10, 0, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	app := NewApp(0, 0)
	reloader := staticStatus{"running": true, "schedule": "@every 1m"}
	SetupRoutes(app, NewHandler(predictor, reloader, zap.NewNop()), zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	status, ok := payload["reloader"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected reloader status in %v", payload)
	}
	if status["running"] != true || status["schedule"] != "@every 1m" {
		t.Errorf("unexpected reloader status %v", status)
	}
}
