package analyzer

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"tradelens/pkg/model"
)

const day = 24 * time.Hour

var testStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// randomWalk creates a reproducible daily series around 100
func randomWalk(n int, seed int64) []model.Candle {
	rng := rand.New(rand.NewSource(seed))
	candles := make([]model.Candle, n)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		closePrice := open * (1 + rng.NormFloat64()*0.015)
		high := math.Max(open, closePrice) * (1 + rng.Float64()*0.01)
		low := math.Min(open, closePrice) * (1 - rng.Float64()*0.01)
		candles[i] = model.Candle{
			Time:   testStart.AddDate(0, 0, i),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: 1_000_000 + float64(rng.Intn(200_000)),
			Symbol: "TEST",
		}
		price = closePrice
	}
	return candles
}

// fromCloses builds candles with a fixed half-point range around each close
func fromCloses(closes []float64, spacing time.Duration) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Time:   testStart.Add(time.Duration(i) * spacing),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return candles
}

// linear appends evenly spaced points from a to b over steps rows,
// excluding a itself
func linear(dst []float64, a, b float64, steps int) []float64 {
	for k := 1; k <= steps; k++ {
		dst = append(dst, a+(b-a)*float64(k)/float64(steps))
	}
	return dst
}

func assertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: expected %.10f, got %.10f (diff %.2e)", name, want, got, math.Abs(got-want))
	}
}

func mustEnrich(t *testing.T, candles []model.Candle) []model.EnrichedCandle {
	t.Helper()
	series, err := AddCoreIndicators(candles)
	if err != nil {
		t.Fatalf("AddCoreIndicators: %v", err)
	}
	return series
}
