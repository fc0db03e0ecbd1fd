package model

import (
	"fmt"
	"math"
	"time"
)

// Candle represents a single daily OHLCV bar.
// A field the data source did not supply is NaN.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Symbol string    `json:"symbol,omitempty"`
}

// Validate checks the OHLC envelope and non-negativity of a candle
func (c Candle) Validate() error {
	for name, v := range map[string]float64{"open": c.Open, "high": c.High, "low": c.Low, "close": c.Close, "volume": c.Volume} {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 {
			return fmt.Errorf("%s is negative (%g)", name, v)
		}
	}
	if math.IsNaN(c.High) || math.IsNaN(c.Low) {
		return nil
	}
	if c.High < c.Low {
		return fmt.Errorf("high %g below low %g", c.High, c.Low)
	}
	for _, v := range []float64{c.Open, c.Close} {
		if math.IsNaN(v) {
			continue
		}
		if v > c.High || v < c.Low {
			return fmt.Errorf("open/close %g outside [%g, %g]", v, c.Low, c.High)
		}
	}
	return nil
}

// Stock represents basic instrument information
type Stock struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"` // NYSE, NASDAQ, CRYPTO
}

// IndicatorSnapshot holds the per-row indicator values. Nil means the
// indicator has not warmed up yet at this row.
type IndicatorSnapshot struct {
	SMA20         *float64 `json:"sma_20,omitempty"`
	SMA50         *float64 `json:"sma_50,omitempty"`
	SMA200        *float64 `json:"sma_200,omitempty"`
	ATR           *float64 `json:"atr,omitempty"`
	RSI           *float64 `json:"rsi,omitempty"`
	MACD          *float64 `json:"macd,omitempty"`
	MACDSignal    *float64 `json:"macd_signal,omitempty"`
	MACDHistogram *float64 `json:"macd_histogram,omitempty"`
	ADRP          *float64 `json:"adrp,omitempty"`
	AvgVolume20   *float64 `json:"avg_volume_20,omitempty"`
}

// EnrichedCandle is a candle with its indicator snapshot
type EnrichedCandle struct {
	Candle
	Indicators IndicatorSnapshot `json:"indicators"`
}

// TrendStatus is the moving-average/momentum checklist for the latest row
type TrendStatus struct {
	AboveSMA20    bool     `json:"above_20sma"`
	AboveSMA50    bool     `json:"above_50sma"`
	AboveSMA200   bool     `json:"above_200sma"`
	SMA20Above50  bool     `json:"20_50_bullish"`
	SMA50Above200 bool     `json:"50_200_bullish"`
	RSI           *float64 `json:"rsi"`
	MACDBullish   bool     `json:"macd_bullish"`
}

// RSPeriod is the relative strength of a symbol against a benchmark over
// one lookback period
type RSPeriod struct {
	Period          int     `json:"period"`
	Score           float64 `json:"rs_score"`
	StockReturn     float64 `json:"stock_return"`
	BenchmarkReturn float64 `json:"benchmark_return"`
	ExcessReturn    float64 `json:"excess_return"`
}

// VolumeBin is one price bucket of a volume profile
type VolumeBin struct {
	PriceLow      float64 `json:"price_low"`
	PriceHigh     float64 `json:"price_high"`
	PriceMid      float64 `json:"price_mid"`
	Volume        float64 `json:"volume"`
	VolumePercent float64 `json:"volume_percent"`
}

// VolumeProfile is the volume distribution over price buckets
type VolumeProfile struct {
	PriceMin       float64     `json:"price_min"`
	PriceMax       float64     `json:"price_max"`
	BinWidth       float64     `json:"bin_width"`
	Bins           []VolumeBin `json:"bins"`
	PointOfControl float64     `json:"point_of_control"`
	ValueAreaLow   float64     `json:"value_area_low"`
	ValueAreaHigh  float64     `json:"value_area_high"`
}

// PatternType names a detected chart pattern
type PatternType string

const (
	PatternDoubleBottom       PatternType = "Double Bottom"
	PatternDoubleTop          PatternType = "Double Top"
	PatternResistanceBreakout PatternType = "Resistance Breakout"
	PatternSupportBreakdown   PatternType = "Support Breakdown"
)

// Confidence grades a detected pattern
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Pattern is a single detected chart pattern
type Pattern struct {
	Type       PatternType `json:"type"`
	StartDate  *time.Time  `json:"start_date,omitempty"`
	EndDate    *time.Time  `json:"end_date,omitempty"`
	PriceLevel float64     `json:"price_level"`
	Confidence Confidence  `json:"confidence"`
}

// PatternDetection is the detector output. Message is set when the
// series was too short to scan.
type PatternDetection struct {
	Patterns []Pattern `json:"patterns"`
	Message  string    `json:"message,omitempty"`
}

// PositionSize is the risk-based sizing for one trade
type PositionSize struct {
	RecommendedShares    int     `json:"recommended_shares"`
	DollarRisk           float64 `json:"dollar_risk"`
	RiskPerShare         float64 `json:"risk_per_share"`
	PositionCost         float64 `json:"position_cost"`
	AccountPercentRisked float64 `json:"account_percent_risked"`
	R1                   float64 `json:"r_multiple_1"`
	R2                   float64 `json:"r_multiple_2"`
	R3                   float64 `json:"r_multiple_3"`
}

// StopLevels are candidate stop-loss prices below the latest close
type StopLevels struct {
	CurrentPrice float64  `json:"current_price"`
	ATR1x        float64  `json:"atr_1x"`
	ATR2x        float64  `json:"atr_2x"`
	ATR3x        float64  `json:"atr_3x"`
	Percent2     float64  `json:"percent_2"`
	Percent5     float64  `json:"percent_5"`
	Percent8     float64  `json:"percent_8"`
	SMA20        *float64 `json:"sma_20,omitempty"`
	SMA50        *float64 `json:"sma_50,omitempty"`
	SMA200       *float64 `json:"sma_200,omitempty"`
	RecentSwing  *float64 `json:"recent_swing,omitempty"`
}

// Quote is the latest price with the change from the prior session
type Quote struct {
	Symbol        string    `json:"symbol"`
	Time          time.Time `json:"time"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
}

// TechnicalAnalysis is the single-symbol technical summary: latest bar,
// indicator snapshot, trend checklist and interpretive signals
type TechnicalAnalysis struct {
	Symbol       string            `json:"symbol"`
	Date         time.Time         `json:"date"`
	LatestPrice  float64           `json:"latest_price"`
	Indicators   IndicatorSnapshot `json:"indicators"`
	Trend        TrendStatus       `json:"trend"`
	RSISignal    string            `json:"rsi_signal,omitempty"`
	VolumeRatio  float64           `json:"volume_ratio,omitempty"`
	VolumeSignal string            `json:"volume_signal,omitempty"`
	PriceVsSMA20 *float64          `json:"price_vs_sma_20,omitempty"` // percent
	PriceVsSMA50 *float64          `json:"price_vs_sma_50,omitempty"`
	TrendSignal  string            `json:"trend_signal"`
}
