package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tradelens/internal/analyzer"
	"tradelens/internal/metrics"
	"tradelens/internal/position"
	"tradelens/internal/provider"
	"tradelens/internal/recorder"
	"tradelens/pkg/model"
)

// Crypto data sources accepted by AnalyzeCrypto
const (
	CryptoTiingo  = "tiingo"
	CryptoBinance = "binance"
)

// Analyst runs the analysis tools on top of a market data provider
type Analyst struct {
	stocks    provider.Provider
	crypto    map[string]provider.Provider
	opts      Options
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	recorder  recorder.Recorder
	technical *analyzer.TechnicalAnalyzer
	patterns  *analyzer.PatternDetector
	now       func() time.Time
}

// NewAnalyst creates an analyst over the stock provider
func NewAnalyst(stocks provider.Provider, opts Options, logger zerolog.Logger) *Analyst {
	opts.Benchmark = strings.ToUpper(strings.TrimSpace(opts.Benchmark))
	return &Analyst{
		stocks:    stocks,
		crypto:    make(map[string]provider.Provider),
		opts:      opts,
		logger:    logger.With().Str("component", "analyst").Logger(),
		recorder:  recorder.NewNoopRecorder(),
		technical: analyzer.NewTechnicalAnalyzer(),
		patterns:  analyzer.NewPatternDetector(analyzer.DefaultPatternConfig()),
		now:       time.Now,
	}
}

// WithCrypto registers a crypto provider under a source name (tiingo or binance)
func (a *Analyst) WithCrypto(source string, p provider.Provider) *Analyst {
	a.crypto[strings.ToLower(source)] = p
	return a
}

// WithMetrics attaches tool metrics
func (a *Analyst) WithMetrics(m *metrics.Metrics) *Analyst {
	a.metrics = m
	return a
}

// WithRecorder journals every tool call
func (a *Analyst) WithRecorder(r recorder.Recorder) *Analyst {
	if r != nil {
		a.recorder = r
	}
	return a
}

// Options returns the defaults the analyst was built with
func (a *Analyst) Options() Options {
	return a.opts
}

// track logs, measures and journals one tool call
func track[T any](a *Analyst, tool, symbol string, fn func() (T, error)) (T, error) {
	start := a.now()
	v, err := fn()
	kind := ErrorKind(err)
	elapsed := time.Since(start)

	a.metrics.ObserveTool(tool, start, kind)

	ev := a.logger.Info()
	if err != nil {
		ev = a.logger.Warn().Err(err).Str("error_kind", kind)
	}
	ev.Str("tool", tool).Str("symbol", symbol).Dur("duration", elapsed).Msg("tool call")

	run := &recorder.Run{
		Tool:     tool,
		Symbol:   symbol,
		At:       start,
		Duration: elapsed,
		ErrKind:  kind,
	}
	if err != nil {
		run.Summary = summarize(map[string]string{"error": err.Error()})
	} else {
		run.Summary = summarize(v)
	}
	if rerr := a.recorder.RecordRun(run); rerr != nil {
		a.logger.Warn().Err(rerr).Str("tool", tool).Msg("journal write failed")
	}

	return v, err
}

// summarize returns v as JSON, or "" when it does not encode (NaN values)
func summarize(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (a *Analyst) fetch(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	candles, err := a.stocks.GetDailyCandles(ctx, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	return candles, nil
}

// since keeps the candles within the last days calendar days
func (a *Analyst) since(candles []model.Candle, days int) []model.Candle {
	cutoff := a.now().AddDate(0, 0, -days)
	for i, c := range candles {
		if !c.Time.Before(cutoff) {
			return candles[i:]
		}
	}
	return nil
}

// orDefault resolves an optional positive parameter; zero selects def
func orDefault(op, name string, v, def int) (int, error) {
	switch {
	case v < 0:
		return 0, analyzer.NewError(op, analyzer.ErrInvalidParameter, "%s must be positive, got %d", name, v)
	case v == 0:
		return def, nil
	}
	return v, nil
}

// AnalyzeStock runs the technical analysis over lookback days (the
// configured default when zero)
func (a *Analyst) AnalyzeStock(ctx context.Context, symbol string, lookback int) (*model.TechnicalAnalysis, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if lookback, err = orDefault("analyze_stock", "lookback_days", lookback, a.opts.Lookback); err != nil {
		return nil, err
	}
	return track(a, "analyze_stock", sym, func() (*model.TechnicalAnalysis, error) {
		candles, err := a.fetch(ctx, sym, lookback)
		if err != nil {
			return nil, err
		}
		analysis, _, err := a.technical.Analyze(sym, candles)
		return analysis, err
	})
}

// AnalyzeCrypto runs the technical analysis on a crypto asset. Tiingo takes
// the base asset and quote currency (BTC, usd); Binance takes the full pair
// (BTCUSDT) and ignores quote. Zero lookback uses the configured default.
func (a *Analyst) AnalyzeCrypto(ctx context.Context, symbol, source, quote string, lookback int) (*model.TechnicalAnalysis, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if lookback, err = orDefault("analyze_crypto", "lookback_days", lookback, a.opts.Lookback); err != nil {
		return nil, err
	}
	return track(a, "analyze_crypto", sym, func() (*model.TechnicalAnalysis, error) {
		candles, pair, err := a.fetchCrypto(ctx, sym, source, quote, lookback)
		if err != nil {
			return nil, err
		}
		analysis, _, err := a.technical.Analyze(pair, candles)
		return analysis, err
	})
}

// CryptoQuote returns the latest crypto price with its daily change
func (a *Analyst) CryptoQuote(ctx context.Context, symbol, source, quote string) (*model.Quote, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return track(a, "crypto_quote", sym, func() (*model.Quote, error) {
		candles, pair, err := a.fetchCrypto(ctx, sym, source, quote, a.opts.QuoteLookback)
		if err != nil {
			return nil, err
		}
		return analyzer.LatestQuote(pair, candles)
	})
}

func (a *Analyst) fetchCrypto(ctx context.Context, sym, source, quote string, days int) ([]model.Candle, string, error) {
	if source == "" {
		source = a.opts.CryptoProvider
	}
	source = strings.ToLower(source)
	p, ok := a.crypto[source]
	if !ok {
		return nil, "", analyzer.NewError("analyze_crypto", analyzer.ErrInvalidParameter, "unsupported crypto provider %q", source)
	}

	pair := sym
	if source == CryptoTiingo {
		if quote == "" {
			quote = a.opts.CryptoQuote
		}
		pair = strings.ToUpper(sym + quote)
	}

	candles, err := p.GetDailyCandles(ctx, pair, days)
	if err != nil {
		return nil, pair, fmt.Errorf("fetching %s from %s: %w", pair, source, err)
	}
	return candles, pair, nil
}

// RSResult is the relative strength of a symbol against a benchmark
type RSResult struct {
	Symbol    string                 `json:"symbol"`
	Benchmark string                 `json:"benchmark"`
	Periods   map[int]model.RSPeriod `json:"periods"`
}

// RelativeStrength compares symbol with benchmark (the configured default
// when empty) over the configured periods
func (a *Analyst) RelativeStrength(ctx context.Context, symbol, benchmark string) (*RSResult, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(benchmark) == "" {
		benchmark = a.opts.Benchmark
	}
	bench, err := normalizeSymbol(benchmark)
	if err != nil {
		return nil, err
	}
	return track(a, "relative_strength", sym, func() (*RSResult, error) {
		stock, benchCandles, err := a.fetchPair(ctx, sym, bench, a.opts.Lookback)
		if err != nil {
			return nil, err
		}
		return a.relativeStrength(sym, bench, stock, benchCandles)
	})
}

// fetchPair loads symbol and benchmark concurrently and waits for both
func (a *Analyst) fetchPair(ctx context.Context, sym, bench string, days int) ([]model.Candle, []model.Candle, error) {
	var stock, benchCandles []model.Candle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stock, err = a.fetch(gctx, sym, days)
		return err
	})
	g.Go(func() error {
		var err error
		benchCandles, err = a.fetch(gctx, bench, days)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return stock, benchCandles, nil
}

func (a *Analyst) relativeStrength(sym, bench string, stock, benchCandles []model.Candle) (*RSResult, error) {
	periods, err := analyzer.RelativeStrength(stock, benchCandles, a.opts.RSPeriods)
	if err != nil {
		return nil, err
	}
	return &RSResult{Symbol: sym, Benchmark: bench, Periods: periods}, nil
}

// VolumeProfileResult is a volume profile over a lookback window
type VolumeProfileResult struct {
	Symbol       string `json:"symbol"`
	LookbackDays int    `json:"lookback_days"`
	NumBins      int    `json:"num_bins"`
	model.VolumeProfile
}

// VolumeProfile buckets volume by price over lookback days into bins price
// buckets. Zero selects the configured default for either; bins above 50 are
// rejected.
func (a *Analyst) VolumeProfile(ctx context.Context, symbol string, lookback, bins int) (*VolumeProfileResult, error) {
	const op = "volume_profile"
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if lookback, err = orDefault(op, "lookback_days", lookback, a.opts.ProfileLookback); err != nil {
		return nil, err
	}
	if bins, err = orDefault(op, "num_bins", bins, a.opts.VolumeBins); err != nil {
		return nil, err
	}
	return track(a, op, sym, func() (*VolumeProfileResult, error) {
		candles, err := a.fetch(ctx, sym, lookback)
		if err != nil {
			return nil, err
		}
		return volumeProfile(sym, lookback, bins, candles)
	})
}

func volumeProfile(sym string, lookback, bins int, candles []model.Candle) (*VolumeProfileResult, error) {
	profile, err := analyzer.AnalyzeVolumeProfile(candles, bins)
	if err != nil {
		return nil, err
	}
	return &VolumeProfileResult{Symbol: sym, LookbackDays: lookback, NumBins: bins, VolumeProfile: *profile}, nil
}

// PatternResult is the pattern scan of one symbol
type PatternResult struct {
	Symbol string `json:"symbol"`
	model.PatternDetection
}

// DetectPatterns scans the last lookback days (90 by default) for chart
// patterns
func (a *Analyst) DetectPatterns(ctx context.Context, symbol string, lookback int) (*PatternResult, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if lookback, err = orDefault("detect_patterns", "lookback_days", lookback, a.opts.PatternLookback); err != nil {
		return nil, err
	}
	return track(a, "detect_patterns", sym, func() (*PatternResult, error) {
		candles, err := a.fetch(ctx, sym, lookback)
		if err != nil {
			return nil, err
		}
		return a.detectPatterns(sym, candles)
	})
}

func (a *Analyst) detectPatterns(sym string, candles []model.Candle) (*PatternResult, error) {
	detection, err := a.patterns.Detect(candles)
	if err != nil {
		return nil, err
	}
	return &PatternResult{Symbol: sym, PatternDetection: *detection}, nil
}

// PositionRequest sizes a long entry. Zero price uses the latest close, zero
// account size and risk cap use the configured defaults, and zero risk
// amount risks the full account cap.
type PositionRequest struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	StopPrice      float64 `json:"stop_price"`
	RiskAmount     float64 `json:"risk_amount"`
	AccountSize    float64 `json:"account_size"`
	MaxRiskPercent float64 `json:"max_risk_percent"`
}

// PositionResult is the sizing with the inputs it was computed from
type PositionResult struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	StopPrice      float64 `json:"stop_price"`
	AccountSize    float64 `json:"account_size"`
	MaxRiskPercent float64 `json:"max_risk_percent"`
	model.PositionSize
}

// PositionSize sizes a trade so the loss at the stop stays within budget
func (a *Analyst) PositionSize(ctx context.Context, req PositionRequest) (*PositionResult, error) {
	sym, err := normalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	return track(a, "position_size", sym, func() (*PositionResult, error) {
		if req.Price == 0 {
			candles, err := a.fetch(ctx, sym, a.opts.QuoteLookback)
			if err != nil {
				return nil, err
			}
			q, err := analyzer.LatestQuote(sym, candles)
			if err != nil {
				return nil, err
			}
			req.Price = q.Price
		}
		if req.AccountSize == 0 {
			req.AccountSize = a.opts.AccountSize
		}
		if req.MaxRiskPercent == 0 {
			req.MaxRiskPercent = a.opts.MaxRiskPercent
		}
		if req.RiskAmount == 0 {
			req.RiskAmount = req.AccountSize * req.MaxRiskPercent / 100
		}

		size, err := position.CalculatePositionSize(position.Request{
			Price:          req.Price,
			StopPrice:      req.StopPrice,
			RiskAmount:     req.RiskAmount,
			AccountSize:    req.AccountSize,
			MaxRiskPercent: req.MaxRiskPercent,
		})
		if err != nil {
			return nil, err
		}
		return &PositionResult{
			Symbol:         sym,
			Price:          req.Price,
			StopPrice:      req.StopPrice,
			AccountSize:    req.AccountSize,
			MaxRiskPercent: req.MaxRiskPercent,
			PositionSize:   *size,
		}, nil
	})
}

// StopsResult holds the suggested stop levels for one symbol
type StopsResult struct {
	Symbol string `json:"symbol"`
	model.StopLevels
}

// SuggestStops proposes stop levels from the last lookback days (60 by
// default)
func (a *Analyst) SuggestStops(ctx context.Context, symbol string, lookback int) (*StopsResult, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if lookback, err = orDefault("suggest_stops", "lookback_days", lookback, a.opts.StopsLookback); err != nil {
		return nil, err
	}
	return track(a, "suggest_stops", sym, func() (*StopsResult, error) {
		candles, err := a.fetch(ctx, sym, lookback)
		if err != nil {
			return nil, err
		}
		series, err := analyzer.AddCoreIndicators(candles)
		if err != nil {
			return nil, err
		}
		return suggestStops(sym, series)
	})
}

func suggestStops(sym string, series []model.EnrichedCandle) (*StopsResult, error) {
	levels, err := position.SuggestStopLevels(series)
	if err != nil {
		return nil, err
	}
	return &StopsResult{Symbol: sym, StopLevels: *levels}, nil
}

// Quote returns the latest price with its change from the prior session
func (a *Analyst) Quote(ctx context.Context, symbol string) (*model.Quote, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return track(a, "quote", sym, func() (*model.Quote, error) {
		candles, err := a.fetch(ctx, sym, a.opts.QuoteLookback)
		if err != nil {
			return nil, err
		}
		return analyzer.LatestQuote(sym, candles)
	})
}

// HistoryResult is a raw daily series
type HistoryResult struct {
	Symbol  string         `json:"symbol"`
	Days    int            `json:"days"`
	Candles []model.Candle `json:"candles"`
}

// History returns the daily candles of the last days calendar days (default 30)
func (a *Analyst) History(ctx context.Context, symbol string, days int) (*HistoryResult, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	return track(a, "history", sym, func() (*HistoryResult, error) {
		candles, err := a.fetch(ctx, sym, days)
		if err != nil {
			return nil, err
		}
		return &HistoryResult{Symbol: sym, Days: days, Candles: candles}, nil
	})
}
