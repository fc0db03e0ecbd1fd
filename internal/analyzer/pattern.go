package analyzer

import (
	"fmt"
	"math"
	"time"

	"tradelens/pkg/model"
)

// PatternConfig holds chart pattern detection thresholds
type PatternConfig struct {
	Window          int     // trailing rows scanned
	ExtremaRadius   int     // rows on each side of a local extremum
	PriceTolerance  float64 // max relative gap between twin extrema
	MinGapDays      float64
	MaxGapDays      float64
	ReboundFraction float64 // required excursion between twin extrema
	LevelLookback   int     // rows for the breakout/breakdown level

	BreakoutLow   float64 // close/high band for Resistance Breakout
	BreakoutHigh  float64
	BreakdownLow  float64 // close/low band for Support Breakdown
	BreakdownHigh float64
}

// DefaultPatternConfig returns the standard detector thresholds
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		Window:          60,
		ExtremaRadius:   2,
		PriceTolerance:  0.03,
		MinGapDays:      10,
		MaxGapDays:      60,
		ReboundFraction: 0.05,
		LevelLookback:   20,
		BreakoutLow:     0.99,
		BreakoutHigh:    1.02,
		BreakdownLow:    0.98,
		BreakdownHigh:   1.01,
	}
}

// PatternDetector finds double bottoms/tops and breakouts/breakdowns near
// the recent range
type PatternDetector struct {
	config PatternConfig
}

// NewPatternDetector creates a new pattern detector
func NewPatternDetector(cfg PatternConfig) *PatternDetector {
	return &PatternDetector{config: cfg}
}

// DetectPatterns runs the default detector
func DetectPatterns(candles []model.Candle) (*model.PatternDetection, error) {
	return NewPatternDetector(DefaultPatternConfig()).Detect(candles)
}

// Detect scans the trailing window of candles. A series shorter than the
// window is not an error: it yields no patterns and an explanatory message.
func (d *PatternDetector) Detect(candles []model.Candle) (*model.PatternDetection, error) {
	const op = "detect_patterns"

	if len(candles) < d.config.Window {
		return &model.PatternDetection{
			Patterns: []model.Pattern{},
			Message:  fmt.Sprintf("Not enough data for pattern detection (need %d rows, got %d)", d.config.Window, len(candles)),
		}, nil
	}

	window := Tail(candles, d.config.Window)
	if err := requireColumns(op, window, colHigh, colLow, colClose); err != nil {
		return nil, err
	}

	lows := make([]float64, len(window))
	highs := make([]float64, len(window))
	for i, c := range window {
		lows[i] = c.Low
		highs[i] = c.High
	}

	minima := d.extrema(lows, func(v, ref float64) bool { return v < ref })
	maxima := d.extrema(highs, func(v, ref float64) bool { return v > ref })

	patterns := []model.Pattern{}
	patterns = append(patterns, d.twins(window, minima, lows, model.PatternDoubleBottom)...)
	patterns = append(patterns, d.twins(window, maxima, highs, model.PatternDoubleTop)...)

	last := window[len(window)-1]
	recent := Tail(window, d.config.LevelLookback)
	end := last.Time

	resistance := math.Inf(-1)
	support := math.Inf(1)
	for _, c := range recent {
		resistance = math.Max(resistance, c.High)
		support = math.Min(support, c.Low)
	}

	if last.Close >= resistance*d.config.BreakoutLow && last.Close <= resistance*d.config.BreakoutHigh {
		patterns = append(patterns, model.Pattern{
			Type:       model.PatternResistanceBreakout,
			EndDate:    &end,
			PriceLevel: resistance,
			Confidence: model.ConfidenceMedium,
		})
	}
	if last.Close >= support*d.config.BreakdownLow && last.Close <= support*d.config.BreakdownHigh {
		patterns = append(patterns, model.Pattern{
			Type:       model.PatternSupportBreakdown,
			EndDate:    &end,
			PriceLevel: support,
			Confidence: model.ConfidenceMedium,
		})
	}

	return &model.PatternDetection{Patterns: patterns}, nil
}

// extrema returns indices whose value is the extreme of the centered window.
// Rows without a full window on both sides are never extrema.
func (d *PatternDetector) extrema(values []float64, beats func(v, ref float64) bool) []int {
	r := d.config.ExtremaRadius
	var idx []int
	for i := r; i < len(values)-r; i++ {
		extreme := values[i-r]
		for k := i - r + 1; k <= i+r; k++ {
			if beats(values[k], extreme) {
				extreme = values[k]
			}
		}
		if values[i] == extreme {
			idx = append(idx, i)
		}
	}
	return idx
}

// twins pairs extrema at a similar price that are separated by a large
// enough move in the opposite direction
func (d *PatternDetector) twins(window []model.Candle, idx []int, prices []float64, kind model.PatternType) []model.Pattern {
	var out []model.Pattern
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			i, j := idx[a], idx[b]
			pi, pj := prices[i], prices[j]
			if pi == 0 || math.Abs(pi-pj)/pi >= d.config.PriceTolerance {
				continue
			}

			gap := window[j].Time.Sub(window[i].Time).Hours() / 24
			if gap < d.config.MinGapDays || gap > d.config.MaxGapDays {
				continue
			}

			if !d.separated(window[i+1:j], pi, kind) {
				continue
			}

			start, end := window[i].Time, window[j].Time
			out = append(out, model.Pattern{
				Type:       kind,
				StartDate:  timePtr(start),
				EndDate:    timePtr(end),
				PriceLevel: (pi + pj) / 2,
				Confidence: model.ConfidenceMedium,
			})
		}
	}
	return out
}

// separated reports whether the rows between two twin extrema move far
// enough away from the first extremum's price
func (d *PatternDetector) separated(between []model.Candle, p float64, kind model.PatternType) bool {
	if len(between) == 0 {
		return false
	}
	switch kind {
	case model.PatternDoubleBottom:
		peak := math.Inf(-1)
		for _, c := range between {
			peak = math.Max(peak, c.High)
		}
		return peak > p*(1+d.config.ReboundFraction)
	case model.PatternDoubleTop:
		trough := math.Inf(1)
		for _, c := range between {
			trough = math.Min(trough, c.Low)
		}
		return trough < p*(1-d.config.ReboundFraction)
	}
	return false
}

func timePtr(t time.Time) *time.Time {
	return &t
}
