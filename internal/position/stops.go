package position

import (
	"math"

	"tradelens/internal/analyzer"
	"tradelens/pkg/model"
)

// MinStopRows is the shortest series SuggestStopLevels accepts
const MinStopRows = 20

// SuggestStopLevels proposes stop prices below the latest close: ATR
// multiples, fixed percentages, the moving averages and the recent swing low.
// Without an ATR the average daily range of the last 20 rows stands in.
func SuggestStopLevels(series []model.EnrichedCandle) (*model.StopLevels, error) {
	const op = "suggest_stop_levels"

	if len(series) < MinStopRows {
		return nil, analyzer.NewError(op, analyzer.ErrInsufficientData, "need at least %d rows, got %d", MinStopRows, len(series))
	}

	recent := analyzer.Tail(series, MinStopRows)
	for i, e := range recent {
		if math.IsNaN(e.High) || math.IsNaN(e.Low) || math.IsNaN(e.Close) {
			return nil, analyzer.NewError(op, analyzer.ErrMissingColumn, "high/low/close missing at row %d", len(series)-MinStopRows+i)
		}
	}

	last := series[len(series)-1]
	price := last.Close
	ind := last.Indicators

	var atr float64
	if ind.ATR != nil {
		atr = *ind.ATR
	} else {
		var sum float64
		for _, e := range recent {
			sum += e.High - e.Low
		}
		atr = sum / float64(len(recent))
	}

	swing := recent[0].Low
	for _, e := range recent[1:] {
		swing = math.Min(swing, e.Low)
	}

	return &model.StopLevels{
		CurrentPrice: price,
		ATR1x:        price - atr,
		ATR2x:        price - 2*atr,
		ATR3x:        price - 3*atr,
		Percent2:     price * 0.98,
		Percent5:     price * 0.95,
		Percent8:     price * 0.92,
		SMA20:        copyPtr(ind.SMA20),
		SMA50:        copyPtr(ind.SMA50),
		SMA200:       copyPtr(ind.SMA200),
		RecentSwing:  &swing,
	}, nil
}

func copyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
