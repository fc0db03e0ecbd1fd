package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"tradelens/internal/analyzer"
	"tradelens/pkg/model"
)

var (
	// ErrSymbolNotFound is wrapped when the source does not know the symbol
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoData is wrapped when the source returned an empty series
	ErrNoData = errors.New("no data returned")
)

// Provider defines the interface for daily market data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetDailyCandles fetches daily OHLCV candles covering the last `days`
	// calendar days, ascending by time
	GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error)

	// IsAvailable checks if the provider is usable (has its API key if one is needed)
	IsAvailable() bool

	// RateLimit returns the rate limit per minute
	RateLimit() int
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the symbol does not exist at the source
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSymbolNotFound)
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	// Filter to only available providers
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetDailyCandles tries each provider in order until one succeeds
func (f *FallbackProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	lastErr := error(&ProviderError{Provider: f.Name(), Err: errors.New("no provider available")})
	for _, p := range f.providers {
		data, err := p.GetDailyCandles(ctx, symbol, days)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// RateLimit returns the highest rate limit among providers
func (f *FallbackProvider) RateLimit() int {
	maxRate := 0
	for _, p := range f.providers {
		if p.RateLimit() > maxRate {
			maxRate = p.RateLimit()
		}
	}
	return maxRate
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}

// finalize sorts a freshly parsed series and rejects it if it breaks the
// candle invariants
func finalize(name, symbol string, candles []model.Candle) ([]model.Candle, error) {
	if len(candles) == 0 {
		return nil, &ProviderError{Provider: name, Err: fmt.Errorf("%w for %s", ErrNoData, symbol)}
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
	if err := analyzer.ValidateSeries(candles); err != nil {
		return nil, &ProviderError{Provider: name, Err: fmt.Errorf("bad series for %s: %w", symbol, err)}
	}
	return candles, nil
}

// orNaN turns a JSON null into NaN
func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
