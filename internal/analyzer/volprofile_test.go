package analyzer

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"tradelens/pkg/model"
)

func TestAnalyzeVolumeProfile_Structure(t *testing.T) {
	candles := randomWalk(60, 40)

	profile, err := AnalyzeVolumeProfile(candles, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(profile.Bins) != 10 {
		t.Fatalf("Expected 10 bins, got %d", len(profile.Bins))
	}
	assertClose(t, "bin_width", profile.BinWidth, (profile.PriceMax-profile.PriceMin)/10, 1e-12)

	for i, b := range profile.Bins {
		if b.VolumePercent < 0 || b.VolumePercent > 100 {
			t.Errorf("Bin %d: volume percent %f out of range", i, b.VolumePercent)
		}
		if i > 0 {
			assertClose(t, "contiguous", b.PriceLow, profile.Bins[i-1].PriceHigh, 1e-9)
		}
	}
	assertClose(t, "first bin low", profile.Bins[0].PriceLow, profile.PriceMin, 1e-12)
	assertClose(t, "last bin high", profile.Bins[9].PriceHigh, profile.PriceMax, 1e-9)

	if !(profile.ValueAreaLow <= profile.PointOfControl && profile.PointOfControl <= profile.ValueAreaHigh) {
		t.Errorf("Expected VAL <= POC <= VAH, got %f <= %f <= %f",
			profile.ValueAreaLow, profile.PointOfControl, profile.ValueAreaHigh)
	}
}

func TestAnalyzeVolumeProfile_PointOfControl(t *testing.T) {
	candles := make([]model.Candle, 20)
	for i := range candles {
		candles[i] = model.Candle{
			Time: testStart.AddDate(0, 0, i), Open: 10.2, High: 10.5, Low: 10, Close: 10.2, Volume: 100,
		}
	}
	candles[19] = model.Candle{Time: testStart.AddDate(0, 0, 19), Open: 15, High: 20, Low: 10, Close: 15, Volume: 1}

	profile, err := AnalyzeVolumeProfile(candles, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	assertClose(t, "bin 0 volume", profile.Bins[0].Volume, 1901, 0)
	for i := 1; i < 10; i++ {
		assertClose(t, "upper bin volume", profile.Bins[i].Volume, 1, 0)
	}
	assertClose(t, "point_of_control", profile.PointOfControl, 10.5, 1e-12)
	assertClose(t, "value_area_low", profile.ValueAreaLow, 10, 1e-12)
	assertClose(t, "value_area_high", profile.ValueAreaHigh, 11, 1e-12)
}

func TestAnalyzeVolumeProfile_OverlapCounting(t *testing.T) {
	candles := make([]model.Candle, 20)
	for i := range candles {
		candles[i] = model.Candle{
			Time: testStart.AddDate(0, 0, i), Open: 15, High: 20, Low: 10, Close: 15, Volume: 1,
		}
	}

	profile, err := AnalyzeVolumeProfile(candles, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// every candle spans both buckets, each holding the whole series volume
	var total, pct float64
	for _, b := range profile.Bins {
		assertClose(t, "bin volume", b.Volume, 20, 0)
		assertClose(t, "bin percent", b.VolumePercent, 100, 1e-12)
		total += b.Volume
		pct += b.VolumePercent
	}
	if total != 40 {
		t.Errorf("Expected bin volumes to sum to 40, got %f", total)
	}
	assertClose(t, "percent sum", pct, 200, 1e-9)
	assertClose(t, "point_of_control", profile.PointOfControl, 12.5, 1e-12)
	assertClose(t, "value_area_low", profile.ValueAreaLow, 10, 0)
	assertClose(t, "value_area_high", profile.ValueAreaHigh, 15, 0)
}

func TestAnalyzeVolumeProfile_EqualVolumeTenBins(t *testing.T) {
	candles := randomWalk(20, 45)
	for i := range candles {
		candles[i].Volume = 500
	}

	profile, err := AnalyzeVolumeProfile(candles, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var sum float64
	for i, b := range profile.Bins {
		covered := false
		for _, c := range candles {
			if c.Low <= b.PriceHigh && c.High >= b.PriceLow {
				covered = true
				break
			}
		}
		if covered && b.VolumePercent <= 0 {
			t.Errorf("Bin %d overlaps candles but has volume percent %f", i, b.VolumePercent)
		}
		sum += b.VolumePercent
	}
	if sum < 100-1e-9 {
		t.Errorf("Expected bin percents to sum to at least 100, got %f", sum)
	}
}

func TestAnalyzeVolumeProfile_ValueAreaMinimal(t *testing.T) {
	rng := rand.New(rand.NewSource(46))

	for iter := 0; iter < 50; iter++ {
		candles := randomWalk(20+rng.Intn(200), rng.Int63())
		numBins := 1 + rng.Intn(MaxVolumeBins)

		profile, err := AnalyzeVolumeProfile(candles, numBins)
		if err != nil {
			t.Fatalf("iter %d: unexpected error: %v", iter, err)
		}

		order := make([]int, len(profile.Bins))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return profile.Bins[order[a]].Volume > profile.Bins[order[b]].Volume
		})

		var cum, last float64
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, idx := range order {
			b := profile.Bins[idx]
			cum += b.VolumePercent
			last = b.VolumePercent
			lo = math.Min(lo, b.PriceLow)
			hi = math.Max(hi, b.PriceHigh)
			if cum >= ValueAreaThreshold {
				break
			}
		}

		if cum < ValueAreaThreshold {
			t.Fatalf("iter %d: value area covers only %f%%", iter, cum)
		}
		if cum-last >= ValueAreaThreshold {
			t.Errorf("iter %d: value area not minimal, %f%% without its last bin", iter, cum-last)
		}
		assertClose(t, "value_area_low", profile.ValueAreaLow, lo, 0)
		assertClose(t, "value_area_high", profile.ValueAreaHigh, hi, 0)
		if !(profile.PriceMin <= profile.ValueAreaLow && profile.ValueAreaLow <= profile.PointOfControl &&
			profile.PointOfControl <= profile.ValueAreaHigh && profile.ValueAreaHigh <= profile.PriceMax+1e-9) {
			t.Errorf("iter %d: bounds out of order: %f %f %f %f %f", iter,
				profile.PriceMin, profile.ValueAreaLow, profile.PointOfControl, profile.ValueAreaHigh, profile.PriceMax)
		}
	}
}

func TestAnalyzeVolumeProfile_ZeroVolume(t *testing.T) {
	candles := randomWalk(25, 41)
	for i := range candles {
		candles[i].Volume = 0
	}

	profile, err := AnalyzeVolumeProfile(candles, 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, b := range profile.Bins {
		if b.VolumePercent != 0 {
			t.Errorf("Expected 0%% for every bin, got %f", b.VolumePercent)
		}
	}
	assertClose(t, "value_area_low", profile.ValueAreaLow, profile.PriceMin, 1e-12)
	assertClose(t, "value_area_high", profile.ValueAreaHigh, profile.PriceMax, 1e-9)
}

func TestAnalyzeVolumeProfile_Errors(t *testing.T) {
	flat := make([]model.Candle, 20)
	for i := range flat {
		flat[i] = model.Candle{Time: testStart.AddDate(0, 0, i), Open: 5, High: 5, Low: 5, Close: 5, Volume: 10}
	}

	tests := []struct {
		name    string
		candles []model.Candle
		bins    int
		want    error
	}{
		{"too few rows", randomWalk(10, 42), 10, ErrInsufficientData},
		{"zero bins", randomWalk(30, 43), 0, ErrInvalidParameter},
		{"too many bins", randomWalk(30, 44), 51, ErrInvalidParameter},
		{"flat prices", flat, 10, ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AnalyzeVolumeProfile(tt.candles, tt.bins)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}
