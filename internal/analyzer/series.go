package analyzer

import (
	"math"

	"tradelens/pkg/model"
)

type column int

const (
	colOpen column = iota
	colHigh
	colLow
	colClose
	colVolume
)

var allColumns = []column{colOpen, colHigh, colLow, colClose, colVolume}

func (c column) String() string {
	switch c {
	case colOpen:
		return "open"
	case colHigh:
		return "high"
	case colLow:
		return "low"
	case colClose:
		return "close"
	case colVolume:
		return "volume"
	}
	return "unknown"
}

func (c column) value(k model.Candle) float64 {
	switch c {
	case colOpen:
		return k.Open
	case colHigh:
		return k.High
	case colLow:
		return k.Low
	case colClose:
		return k.Close
	case colVolume:
		return k.Volume
	}
	return math.NaN()
}

// requireColumns fails with ErrMissingColumn on the first NaN field among cols
func requireColumns(op string, candles []model.Candle, cols ...column) error {
	for i, k := range candles {
		for _, c := range cols {
			if math.IsNaN(c.value(k)) {
				return NewError(op, ErrMissingColumn, "%s missing at row %d", c, i)
			}
		}
	}
	return nil
}

// ValidateSeries checks ordering, uniqueness and the OHLC envelope of a
// candle series
func ValidateSeries(candles []model.Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return NewError("validate", ErrInvalidParameter, "row %d: %v", i, err)
		}
		if i > 0 && !candles[i-1].Time.Before(c.Time) {
			return NewError("validate", ErrInvalidParameter, "row %d: timestamp %s not after %s",
				i, c.Time.Format("2006-01-02"), candles[i-1].Time.Format("2006-01-02"))
		}
	}
	return nil
}

// Candles strips the indicator snapshots from an enriched series
func Candles(series []model.EnrichedCandle) []model.Candle {
	out := make([]model.Candle, len(series))
	for i, e := range series {
		out[i] = e.Candle
	}
	return out
}

// Tail returns the last n rows, or all rows if there are fewer
func Tail[T any](rows []T, n int) []T {
	if n <= 0 || len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}

func ptr(v float64) *float64 {
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
