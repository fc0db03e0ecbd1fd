package service

import (
	"tradelens/internal/analyzer"
	"tradelens/internal/config"
	"tradelens/internal/position"
)

// Options are the per-tool defaults used when a caller leaves a parameter zero
type Options struct {
	Lookback        int // calendar days for technical analysis and RS
	ProfileLookback int
	PatternLookback int
	StopsLookback   int
	QuoteLookback   int
	VolumeBins      int
	Benchmark       string
	RSPeriods       []int
	CryptoProvider  string
	CryptoQuote     string
	AccountSize     float64
	MaxRiskPercent  float64
}

// DefaultOptions returns the built-in tool defaults
func DefaultOptions() Options {
	return Options{
		Lookback:        365,
		ProfileLookback: 60,
		PatternLookback: 90,
		StopsLookback:   60,
		QuoteLookback:   5,
		VolumeBins:      10,
		Benchmark:       "SPY",
		RSPeriods:       append([]int(nil), analyzer.DefaultRSPeriods...),
		CryptoProvider:  CryptoTiingo,
		CryptoQuote:     "usd",
		AccountSize:     100000,
		MaxRiskPercent:  position.DefaultMaxRiskPercent,
	}
}

// OptionsFromConfig maps the analysis and risk sections of the config
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	a := cfg.Analysis
	if a.Lookback > 0 {
		opts.Lookback = a.Lookback
	}
	if a.ProfileLookback > 0 {
		opts.ProfileLookback = a.ProfileLookback
	}
	if a.PatternLookback > 0 {
		opts.PatternLookback = a.PatternLookback
	}
	if a.StopsLookback > 0 {
		opts.StopsLookback = a.StopsLookback
	}
	if a.VolumeBins > 0 {
		opts.VolumeBins = a.VolumeBins
	}
	if a.Benchmark != "" {
		opts.Benchmark = a.Benchmark
	}
	if len(a.RSPeriods) > 0 {
		opts.RSPeriods = append([]int(nil), a.RSPeriods...)
	}
	if a.CryptoProvider != "" {
		opts.CryptoProvider = a.CryptoProvider
	}
	if a.CryptoQuote != "" {
		opts.CryptoQuote = a.CryptoQuote
	}
	if cfg.Risk.AccountSize > 0 {
		opts.AccountSize = cfg.Risk.AccountSize
	}
	if cfg.Risk.MaxRiskPercent > 0 {
		opts.MaxRiskPercent = cfg.Risk.MaxRiskPercent
	}
	return opts
}
