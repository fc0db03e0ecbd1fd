package analyzer

import (
	"math"

	"tradelens/pkg/model"
)

// TechnicalAnalyzer builds the technical summary for one symbol
type TechnicalAnalyzer struct{}

// NewTechnicalAnalyzer creates a new technical analyzer
func NewTechnicalAnalyzer() *TechnicalAnalyzer {
	return &TechnicalAnalyzer{}
}

// Analyze enriches candles and summarizes the latest row
func (t *TechnicalAnalyzer) Analyze(symbol string, candles []model.Candle) (*model.TechnicalAnalysis, []model.EnrichedCandle, error) {
	series, err := AddCoreIndicators(candles)
	if err != nil {
		return nil, nil, err
	}
	status, err := CheckTrendStatus(series)
	if err != nil {
		return nil, nil, err
	}

	last := series[len(series)-1]
	ind := last.Indicators
	analysis := &model.TechnicalAnalysis{
		Symbol:      symbol,
		Date:        last.Time,
		LatestPrice: last.Close,
		Indicators:  ind,
		Trend:       *status,
	}

	if ind.RSI != nil {
		analysis.RSISignal = t.getRSISignal(*ind.RSI)
	}
	if ind.AvgVolume20 != nil && *ind.AvgVolume20 > 0 {
		analysis.VolumeRatio = math.Round(last.Volume / *ind.AvgVolume20 * 100) / 100
		analysis.VolumeSignal = t.getVolumeSignal(analysis.VolumeRatio)
	}
	analysis.PriceVsSMA20 = t.priceVsMA(last.Close, ind.SMA20)
	analysis.PriceVsSMA50 = t.priceVsMA(last.Close, ind.SMA50)
	analysis.TrendSignal = t.getTrendSignal(analysis.PriceVsSMA20, analysis.PriceVsSMA50)

	return analysis, series, nil
}

// getRSISignal interprets RSI value
func (t *TechnicalAnalyzer) getRSISignal(rsi float64) string {
	if rsi < 30 {
		return "oversold"
	} else if rsi > 70 {
		return "overbought"
	}
	return "neutral"
}

// getVolumeSignal interprets today's volume against the 20-day average
func (t *TechnicalAnalyzer) getVolumeSignal(ratio float64) string {
	if ratio < 0.7 {
		return "low"
	} else if ratio > 1.5 {
		return "high"
	}
	return "normal"
}

// priceVsMA is the close's distance from a moving average in percent
func (t *TechnicalAnalyzer) priceVsMA(price float64, ma *float64) *float64 {
	if ma == nil || *ma == 0 {
		return nil
	}
	v := math.Round((price-*ma)/ *ma*10000) / 100 // percentage with 2 decimals
	return &v
}

// getTrendSignal determines trend from the distance to SMA20 and SMA50
func (t *TechnicalAnalyzer) getTrendSignal(vs20, vs50 *float64) string {
	if vs20 == nil || vs50 == nil {
		return "neutral"
	}
	if *vs20 > 1 && *vs50 > 1 {
		return "uptrend"
	} else if *vs20 < -1 && *vs50 < -1 {
		return "downtrend"
	}
	return "neutral"
}
