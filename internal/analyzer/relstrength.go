package analyzer

import (
	"math"

	"tradelens/pkg/model"
)

// DefaultRSPeriods are roughly one month, one quarter, half a year and a year
// of trading days
var DefaultRSPeriods = []int{21, 63, 126, 252}

// RelativeStrength compares trailing returns of stock against benchmark for
// each period. Periods longer than either series are skipped; an empty map
// means no period had enough history.
func RelativeStrength(stock, benchmark []model.Candle, periods []int) (map[int]model.RSPeriod, error) {
	const op = "relative_strength"

	if err := requireColumns(op, stock, colClose); err != nil {
		return nil, err
	}
	if err := requireColumns(op, benchmark, colClose); err != nil {
		return nil, err
	}

	out := make(map[int]model.RSPeriod, len(periods))
	for _, p := range periods {
		if p <= 0 {
			return nil, NewError(op, ErrInvalidParameter, "period must be positive, got %d", p)
		}
		if len(stock) <= p || len(benchmark) <= p {
			continue
		}

		stockRet, err := periodReturn(op, stock, p)
		if err != nil {
			return nil, err
		}
		benchRet, err := periodReturn(op, benchmark, p)
		if err != nil {
			return nil, err
		}

		excess := stockRet - benchRet
		out[p] = model.RSPeriod{
			Period:          p,
			Score:           math.Min(99, math.Max(1, 50+excess)),
			StockReturn:     stockRet,
			BenchmarkReturn: benchRet,
			ExcessReturn:    excess,
		}
	}

	return out, nil
}

// periodReturn is the percent change from close[-1-p] to close[-1]
func periodReturn(op string, candles []model.Candle, p int) (float64, error) {
	base := candles[len(candles)-1-p].Close
	if base == 0 {
		return 0, NewError(op, ErrComputation, "zero close %d rows back", p)
	}
	return (candles[len(candles)-1].Close/base - 1) * 100, nil
}

// RSRating labels an RS score
func RSRating(score float64) string {
	switch {
	case score >= 80:
		return "Strong Outperformance"
	case score >= 65:
		return "Moderate Outperformance"
	case score >= 50:
		return "Slight Outperformance"
	case score >= 35:
		return "Slight Underperformance"
	case score >= 20:
		return "Moderate Underperformance"
	default:
		return "Strong Underperformance"
	}
}
