package analyzer

import (
	"math"

	"tradelens/pkg/model"
)

// Indicator parameters
const (
	ATRPeriod    = 14
	RSIPeriod    = 14
	MACDFast     = 12
	MACDSlow     = 26
	MACDSignal   = 9
	RangeWindow  = 20
	VolumeWindow = 20
)

// SMAPeriods are the simple moving average lengths computed per row
var SMAPeriods = [3]int{20, 50, 200}

// AddCoreIndicators returns a copy of candles with SMA 20/50/200, ATR(14),
// RSI(14), MACD(12,26,9), ADRP and 20-day average volume attached to each
// row. Indicators are nil until their window has filled.
func AddCoreIndicators(candles []model.Candle) ([]model.EnrichedCandle, error) {
	const op = "add_core_indicators"

	if err := requireColumns(op, candles, allColumns...); err != nil {
		return nil, err
	}

	sma := [3]*rollingMean{}
	for i, p := range SMAPeriods {
		sma[i] = newRollingMean(p)
	}
	avgRange := newRollingMean(RangeWindow)
	avgVol := newRollingMean(VolumeWindow)
	atr := newWilder(ATRPeriod)
	gain := newWilder(RSIPeriod)
	loss := newWilder(RSIPeriod)
	fast := newEMA(MACDFast)
	slow := newEMA(MACDSlow)
	signal := newEMA(MACDSignal)

	out := make([]model.EnrichedCandle, len(candles))
	for i, c := range candles {
		var snap model.IndicatorSnapshot

		if v, ok := sma[0].push(c.Close); ok {
			snap.SMA20 = ptr(v)
		}
		if v, ok := sma[1].push(c.Close); ok {
			snap.SMA50 = ptr(v)
		}
		if v, ok := sma[2].push(c.Close); ok {
			snap.SMA200 = ptr(v)
		}

		// mean range over the window, as a percent of the current close
		if v, ok := avgRange.push(c.High - c.Low); ok {
			snap.ADRP = ptr(v / c.Close * 100)
		}
		if v, ok := avgVol.push(c.Volume); ok {
			snap.AvgVolume20 = ptr(v)
		}

		if i > 0 {
			prev := candles[i-1].Close

			tr := math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prev), math.Abs(c.Low-prev)))
			if v, ok := atr.push(tr); ok {
				snap.ATR = ptr(v)
			}

			change := c.Close - prev
			g, gok := gain.push(math.Max(change, 0))
			l, _ := loss.push(math.Max(-change, 0))
			if gok {
				snap.RSI = ptr(rsiFromAverages(g, l))
			}
		}

		f, fok := fast.push(c.Close)
		s, sok := slow.push(c.Close)
		if fok && sok {
			line := f - s
			snap.MACD = ptr(line)
			if sig, ok := signal.push(line); ok {
				snap.MACDSignal = ptr(sig)
				snap.MACDHistogram = ptr(line - sig)
			}
		}

		if err := checkSnapshot(op, i, &snap); err != nil {
			return nil, err
		}
		out[i] = model.EnrichedCandle{Candle: c, Indicators: snap}
	}

	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func checkSnapshot(op string, row int, s *model.IndicatorSnapshot) error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"sma_20", s.SMA20}, {"sma_50", s.SMA50}, {"sma_200", s.SMA200},
		{"atr", s.ATR}, {"rsi", s.RSI},
		{"macd", s.MACD}, {"macd_signal", s.MACDSignal}, {"macd_histogram", s.MACDHistogram},
		{"adrp", s.ADRP}, {"avg_volume_20", s.AvgVolume20},
	}
	for _, f := range fields {
		if f.v != nil && !finite(*f.v) {
			return NewError(op, ErrComputation, "%s is %v at row %d", f.name, *f.v, row)
		}
	}
	return nil
}
