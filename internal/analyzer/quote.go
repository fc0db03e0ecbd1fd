package analyzer

import "tradelens/pkg/model"

// LatestQuote summarizes the last bar against the one before it. A single
// bar has zero change.
func LatestQuote(symbol string, candles []model.Candle) (*model.Quote, error) {
	const op = "latest_quote"

	if len(candles) == 0 {
		return nil, NewError(op, ErrEmptySeries, "no rows for %s", symbol)
	}
	if err := requireColumns(op, Tail(candles, 2), colClose); err != nil {
		return nil, err
	}

	last := candles[len(candles)-1]
	q := &model.Quote{
		Symbol: symbol,
		Time:   last.Time,
		Price:  last.Close,
		Volume: last.Volume,
	}
	if len(candles) > 1 {
		prev := candles[len(candles)-2].Close
		q.Change = last.Close - prev
		if prev != 0 {
			q.ChangePercent = q.Change / prev * 100
		}
	}
	return q, nil
}
