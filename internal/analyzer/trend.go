package analyzer

import "tradelens/pkg/model"

// CheckTrendStatus classifies the latest row of an enriched series
func CheckTrendStatus(series []model.EnrichedCandle) (*model.TrendStatus, error) {
	if len(series) == 0 {
		return nil, NewError("check_trend_status", ErrEmptySeries, "no rows")
	}

	last := series[len(series)-1]
	ind := last.Indicators

	status := &model.TrendStatus{
		AboveSMA20:    above(&last.Close, ind.SMA20),
		AboveSMA50:    above(&last.Close, ind.SMA50),
		AboveSMA200:   above(&last.Close, ind.SMA200),
		SMA20Above50:  above(ind.SMA20, ind.SMA50),
		SMA50Above200: above(ind.SMA50, ind.SMA200),
		MACDBullish:   valueOr(ind.MACD, 0) > valueOr(ind.MACDSignal, 0),
	}
	if ind.RSI != nil {
		status.RSI = ptr(*ind.RSI)
	}

	return status, nil
}

// above is false whenever either side is absent
func above(a, b *float64) bool {
	if a == nil || b == nil {
		return false
	}
	return *a > *b
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
