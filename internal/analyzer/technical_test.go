package analyzer

import (
	"errors"
	"testing"
)

func TestTechnicalAnalyzer_Analyze(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	analysis, series, err := NewTechnicalAnalyzer().Analyze("TEST", fromCloses(closes, day))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(series) != 80 {
		t.Errorf("Expected 80 enriched rows, got %d", len(series))
	}
	if analysis.LatestPrice != 179 {
		t.Errorf("Expected latest price 179, got %f", analysis.LatestPrice)
	}
	if analysis.RSISignal != "overbought" {
		t.Errorf("Expected overbought, got %s", analysis.RSISignal)
	}
	if analysis.VolumeRatio != 1 || analysis.VolumeSignal != "normal" {
		t.Errorf("Expected volume ratio 1 (normal), got %f (%s)", analysis.VolumeRatio, analysis.VolumeSignal)
	}
	if analysis.TrendSignal != "uptrend" {
		t.Errorf("Expected uptrend, got %s", analysis.TrendSignal)
	}
	if !analysis.Trend.AboveSMA20 || analysis.Trend.AboveSMA200 {
		t.Errorf("Unexpected trend flags %+v", analysis.Trend)
	}
}

func TestTechnicalAnalyzer_Signals(t *testing.T) {
	ta := NewTechnicalAnalyzer()

	tests := []struct {
		rsi  float64
		want string
	}{
		{25, "oversold"},
		{50, "neutral"},
		{75, "overbought"},
	}
	for _, tt := range tests {
		if got := ta.getRSISignal(tt.rsi); got != tt.want {
			t.Errorf("RSI %v: expected %s, got %s", tt.rsi, tt.want, got)
		}
	}

	if got := ta.getTrendSignal(nil, nil); got != "neutral" {
		t.Errorf("Expected neutral without averages, got %s", got)
	}
}

func TestTechnicalAnalyzer_Empty(t *testing.T) {
	_, _, err := NewTechnicalAnalyzer().Analyze("TEST", nil)
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("Expected ErrEmptySeries, got %v", err)
	}
}
