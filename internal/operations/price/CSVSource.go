package price

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"TradeSimulator/internal/models"
)

var csvDateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05", "2006/01/02"}

// CSVSource reads daily bars from <dir>/<symbol>.csv files with a
// Date,Open,High,Low,Close[,Volume] header.
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

func (s *CSVSource) FetchDailyBars(ctx context.Context, symbol string, since time.Time) ([]models.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if symbol == "" || strings.ContainsAny(symbol, `/\`) {
		return nil, fmt.Errorf("%w: invalid symbol %q", models.ErrInvalidInput, symbol)
	}

	file, err := os.Open(filepath.Join(s.dir, symbol+".csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no price data for %s: %w", symbol, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	bars, err := ParseCSV(file, symbol)
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		return bars, nil
	}
	for i, bar := range bars {
		if !bar.Date.Before(since) {
			return bars[i:], nil
		}
	}
	return nil, nil
}

// ParseCSV decodes a daily bar file. Rows with a missing or non-numeric
// price are skipped.
func ParseCSV(r io.Reader, symbol string) ([]models.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header for %s: %w", symbol, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: csv for %s is missing column %q", models.ErrInvalidInput, symbol, required)
		}
	}

	var bars []models.PriceBar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv for %s: %w", symbol, err)
		}

		date, ok := parseDate(field(record, columns, "date"))
		if !ok {
			continue
		}
		bar := models.PriceBar{Symbol: symbol, Date: date}
		if !parseNumber(field(record, columns, "open"), &bar.Open) ||
			!parseNumber(field(record, columns, "high"), &bar.High) ||
			!parseNumber(field(record, columns, "low"), &bar.Low) ||
			!parseNumber(field(record, columns, "close"), &bar.Close) {
			continue
		}
		parseNumber(field(record, columns, "volume"), &bar.Volume)
		bars = append(bars, bar)
	}
	return bars, nil
}

func field(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

func parseNumber(raw string, dst *float64) bool {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != v {
		return false
	}
	*dst = v
	return true
}
