package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tradelens/internal/metrics"
	"tradelens/pkg/model"
)

const (
	binanceBaseURL = "https://api.binance.com"
	// binanceMaxKlines is the most klines one request returns
	binanceMaxKlines = 1000
)

// BinanceProvider fetches daily klines from the Binance spot API. Symbols
// are exchange pairs such as BTCUSDT. Market data needs no key; a key is
// only sent when configured.
type BinanceProvider struct {
	httpSource
	apiKey    string
	baseURL   string
	rateLimit int
}

// NewBinanceProvider creates a new Binance provider
func NewBinanceProvider(apiKey, baseURL string, rateLimitPerMin int) *BinanceProvider {
	if baseURL == "" {
		baseURL = binanceBaseURL
	}
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 1200
	}
	p := &BinanceProvider{
		httpSource: newHTTPSource("binance", rateLimitPerMin),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		rateLimit:  rateLimitPerMin,
	}
	// Unknown pairs come back as 400 {"code":-1121,"msg":"Invalid symbol."}
	p.notFound = func(status int, body []byte) bool {
		return status == http.StatusBadRequest && bytes.Contains(body, []byte("-1121"))
	}
	return p
}

// WithMetrics attaches request metrics
func (p *BinanceProvider) WithMetrics(m *metrics.Metrics) *BinanceProvider {
	p.metrics = m
	return p
}

// Name returns the provider name
func (p *BinanceProvider) Name() string {
	return "binance"
}

// IsAvailable always returns true (public market data)
func (p *BinanceProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *BinanceProvider) RateLimit() int {
	return p.rateLimit
}

// GetDailyCandles fetches up to min(days, 1000) daily klines
func (p *BinanceProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	limit := days
	if limit > binanceMaxKlines {
		limit = binanceMaxKlines
	}
	if limit < 1 {
		limit = 1
	}
	sym := strings.ToUpper(symbol)

	params := url.Values{}
	params.Set("symbol", sym)
	params.Set("interval", "1d")
	params.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", p.baseURL, params.Encode())

	var header http.Header
	if p.apiKey != "" {
		header = http.Header{}
		header.Set("X-MBX-APIKEY", p.apiKey)
	}

	body, err := p.get(ctx, endpoint, header, sym)
	if err != nil {
		return nil, err
	}

	// [openTime, open, high, low, close, volume, closeTime, ...] with prices as strings
	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("error parsing klines: %w", err)}
	}

	candles := make([]model.Candle, 0, len(rawKlines))
	for i, raw := range rawKlines {
		if len(raw) < 6 {
			return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("kline %d has %d fields", i, len(raw))}
		}
		openTime, ok := raw[0].(float64)
		if !ok {
			return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("kline %d: bad open time %v", i, raw[0])}
		}
		candles = append(candles, model.Candle{
			Time:   time.UnixMilli(int64(openTime)).UTC(),
			Open:   parseFloat(raw[1]),
			High:   parseFloat(raw[2]),
			Low:    parseFloat(raw[3]),
			Close:  parseFloat(raw[4]),
			Volume: parseFloat(raw[5]),
			Symbol: sym,
		})
	}
	return finalize(p.Name(), sym, candles)
}

// parseFloat reads a kline number that may be encoded as a string.
// Anything unreadable is NaN.
func parseFloat(val interface{}) float64 {
	switch v := val.(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case float64:
		return v
	default:
		return math.NaN()
	}
}
