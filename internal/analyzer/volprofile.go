package analyzer

import (
	"sort"

	"tradelens/pkg/model"
)

// Volume profile parameters
const (
	DefaultVolumeBins  = 10
	MaxVolumeBins      = 50
	MinProfileRows     = 20
	ValueAreaThreshold = 70.0
)

// AnalyzeVolumeProfile buckets traded volume by price. A candle contributes
// its whole volume to every bucket its high-low range touches, so bucket
// volumes can sum to more than the series volume. Percentages are taken
// against the series volume and may therefore sum to more than 100.
func AnalyzeVolumeProfile(candles []model.Candle, numBins int) (*model.VolumeProfile, error) {
	const op = "analyze_volume_profile"

	if len(candles) < MinProfileRows {
		return nil, NewError(op, ErrInsufficientData, "need at least %d rows, got %d", MinProfileRows, len(candles))
	}
	if numBins < 1 || numBins > MaxVolumeBins {
		return nil, NewError(op, ErrInvalidParameter, "num_bins must be in [1, %d], got %d", MaxVolumeBins, numBins)
	}
	if err := requireColumns(op, candles, colHigh, colLow, colVolume); err != nil {
		return nil, err
	}

	priceMin, priceMax := candles[0].Low, candles[0].High
	for _, c := range candles[1:] {
		if c.Low < priceMin {
			priceMin = c.Low
		}
		if c.High > priceMax {
			priceMax = c.High
		}
	}
	if priceMax <= priceMin {
		return nil, NewError(op, ErrInvalidParameter, "price range is empty (min %g, max %g)", priceMin, priceMax)
	}

	width := (priceMax - priceMin) / float64(numBins)
	bins := make([]model.VolumeBin, numBins)
	var total float64
	for _, c := range candles {
		total += c.Volume
	}
	for i := range bins {
		lo := priceMin + float64(i)*width
		hi := priceMin + float64(i+1)*width
		bins[i] = model.VolumeBin{PriceLow: lo, PriceHigh: hi, PriceMid: (lo + hi) / 2}
		for _, c := range candles {
			if c.Low <= hi && c.High >= lo {
				bins[i].Volume += c.Volume
			}
		}
	}
	if total > 0 {
		for i := range bins {
			bins[i].VolumePercent = bins[i].Volume / total * 100
		}
	}

	poc := 0
	for i := range bins {
		if bins[i].Volume > bins[poc].Volume {
			poc = i
		}
	}

	// Highest-volume buckets first; ties keep price order so the POC bucket
	// always leads.
	order := make([]int, numBins)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return bins[order[a]].Volume > bins[order[b]].Volume
	})

	vaLow, vaHigh := bins[order[0]].PriceLow, bins[order[0]].PriceHigh
	var cum float64
	for _, idx := range order {
		b := bins[idx]
		if b.PriceLow < vaLow {
			vaLow = b.PriceLow
		}
		if b.PriceHigh > vaHigh {
			vaHigh = b.PriceHigh
		}
		cum += b.VolumePercent
		if cum >= ValueAreaThreshold {
			break
		}
	}

	return &model.VolumeProfile{
		PriceMin:       priceMin,
		PriceMax:       priceMax,
		BinWidth:       width,
		Bins:           bins,
		PointOfControl: bins[poc].PriceMid,
		ValueAreaLow:   vaLow,
		ValueAreaHigh:  vaHigh,
	}, nil
}
