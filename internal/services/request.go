package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/temperature-predictor/internal/models"
)

// ParseRequest decodes a {"month", "hour"} body. Values are coerced to
// integers without range checks.
func ParseRequest(body []byte) (models.PredictionRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return models.PredictionRequest{}, &ValidationError{Msg: "request body must be a JSON object"}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.PredictionRequest{}, &ValidationError{Msg: "request body must be a JSON object"}
	}

	month, err := intField(payload, "month")
	if err != nil {
		return models.PredictionRequest{}, err
	}
	hour, err := intField(payload, "hour")
	if err != nil {
		return models.PredictionRequest{}, err
	}
	return models.PredictionRequest{Month: month, Hour: hour}, nil
}

func intField(payload map[string]interface{}, key string) (int, error) {
	raw, ok := payload[key]
	if !ok {
		return 0, &ValidationError{Field: key, Msg: "missing key: " + key}
	}
	v, ok := coerceInt(raw)
	if !ok {
		return 0, &ValidationError{
			Field: key,
			Msg:   fmt.Sprintf("invalid value for %s: %s", key, describe(raw)),
		}
	}
	return v, nil
}

func coerceInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return truncate(f)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	// float64(math.MaxInt64) rounds up to 2^63, which is out of range.
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int(t), true
}

func describe(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		if len(v) > 32 {
			v = v[:32] + "..."
		}
		return strconv.Quote(v)
	case json.Number:
		return v.String()
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%v", v)
	}
}
