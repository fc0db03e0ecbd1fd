package analyzer

import (
	"errors"
	"testing"

	"tradelens/pkg/model"
)

func TestCheckTrendStatus_Uptrend(t *testing.T) {
	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = 100 + 0.01*float64(i*i)
	}
	series := mustEnrich(t, fromCloses(closes, day))

	status, err := CheckTrendStatus(series)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	checks := map[string]bool{
		"above_20sma":    status.AboveSMA20,
		"above_50sma":    status.AboveSMA50,
		"above_200sma":   status.AboveSMA200,
		"20_50_bullish":  status.SMA20Above50,
		"50_200_bullish": status.SMA50Above200,
		"macd_bullish":   status.MACDBullish,
	}
	for name, v := range checks {
		if !v {
			t.Errorf("Expected %s to be true", name)
		}
	}
	if status.RSI == nil || *status.RSI != 100 {
		t.Errorf("Expected RSI 100 for a series with no down days, got %v", status.RSI)
	}
}

func TestCheckTrendStatus_NoSMA200(t *testing.T) {
	closes := make([]float64, 150)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := mustEnrich(t, fromCloses(closes, day))

	status, err := CheckTrendStatus(series)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.AboveSMA200 {
		t.Error("Expected above_200sma to be false without an SMA200")
	}
	if status.SMA50Above200 {
		t.Error("Expected 50_200_bullish to be false without an SMA200")
	}
	if !status.AboveSMA20 || !status.AboveSMA50 || !status.SMA20Above50 {
		t.Errorf("Expected short-term flags to be true, got %+v", status)
	}
}

func TestCheckTrendStatus_Empty(t *testing.T) {
	_, err := CheckTrendStatus(nil)
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("Expected ErrEmptySeries, got %v", err)
	}
}

func TestCheckTrendStatus_MACDFallback(t *testing.T) {
	pos, neg := 0.4, -0.2

	tests := []struct {
		name   string
		macd   *float64
		signal *float64
		want   bool
	}{
		{"both missing", nil, nil, false},
		{"positive line without signal", &pos, nil, true},
		{"negative line without signal", &neg, nil, false},
		{"line above signal", &pos, &neg, true},
		{"line below signal", &neg, &pos, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := []model.EnrichedCandle{{
				Candle:     model.Candle{Close: 10},
				Indicators: model.IndicatorSnapshot{MACD: tt.macd, MACDSignal: tt.signal},
			}}
			status, err := CheckTrendStatus(series)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if status.MACDBullish != tt.want {
				t.Errorf("Expected macd_bullish=%v, got %v", tt.want, status.MACDBullish)
			}
			if status.RSI != nil {
				t.Errorf("Expected nil RSI, got %f", *status.RSI)
			}
		})
	}
}
