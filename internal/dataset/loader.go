package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/temperature-predictor/internal/models"
)

const (
	ColumnMonth = "MONTH"
	ColumnHour  = "HOUR"
	ColumnTemp  = "TEMP"
)

var ErrEmpty = errors.New("training data has no rows")

type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads a whitespace separated history file and divides TEMP by scale.
func Load(path string, scale float64) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening training data: %w", err)
	}
	defer f.Close()

	return Parse(f, scale)
}

// Parse expects a header row naming at least MONTH, HOUR and TEMP. Extra
// columns are ignored. Blank lines are skipped.
func Parse(r io.Reader, scale float64) ([]models.Record, error) {
	if scale == 0 {
		return nil, errors.New("temperature scale must be non-zero")
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		columns map[string]int
		width   int
		line    int
		records []models.Record
	)

	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if columns == nil {
			var err error
			if columns, err = parseHeader(fields, line); err != nil {
				return nil, err
			}
			width = len(fields)
			continue
		}

		if len(fields) != width {
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("expected %d fields, got %d", width, len(fields)),
			}
		}

		rec, err := parseRow(fields, columns, line, scale)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading training data: %w", err)
	}
	if columns == nil {
		return nil, &ParseError{Line: line, Err: errors.New("missing header row")}
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

func parseHeader(fields []string, line int) (map[string]int, error) {
	columns := make(map[string]int, len(fields))
	for i, name := range fields {
		columns[name] = i
	}
	for _, required := range []string{ColumnMonth, ColumnHour, ColumnTemp} {
		if _, ok := columns[required]; !ok {
			return nil, &ParseError{Line: line, Column: required, Err: errors.New("column missing from header")}
		}
	}
	return columns, nil
}

func parseRow(fields []string, columns map[string]int, line int, scale float64) (models.Record, error) {
	month, err := parseNumber(fields[columns[ColumnMonth]])
	if err != nil {
		return models.Record{}, &ParseError{Line: line, Column: ColumnMonth, Err: err}
	}
	hour, err := parseNumber(fields[columns[ColumnHour]])
	if err != nil {
		return models.Record{}, &ParseError{Line: line, Column: ColumnHour, Err: err}
	}
	temp, err := parseNumber(fields[columns[ColumnTemp]])
	if err != nil {
		return models.Record{}, &ParseError{Line: line, Column: ColumnTemp, Err: err}
	}

	return models.Record{
		Month: int(month),
		Hour:  int(hour),
		Temp:  temp / scale,
	}, nil
}

func parseNumber(s string) (float64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return f, nil
}

// Features splits records into the (MONTH, HOUR) design rows and the target.
func Features(records []models.Record) ([][]float64, []float64) {
	x := make([][]float64, len(records))
	y := make([]float64, len(records))
	for i, rec := range records {
		x[i] = []float64{float64(rec.Month), float64(rec.Hour)}
		y[i] = rec.Temp
	}
	return x, y
}
