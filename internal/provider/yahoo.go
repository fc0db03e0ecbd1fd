package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tradelens/internal/metrics"
	"tradelens/pkg/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	httpSource
	baseURL   string
	rateLimit int
}

// NewYahooProvider creates a new Yahoo Finance provider. An empty baseURL
// uses the public chart endpoint.
func NewYahooProvider(baseURL string, rateLimitPerMin int) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 30 // Conservative rate limit
	}
	return &YahooProvider{
		httpSource: newHTTPSource("yahoo", rateLimitPerMin),
		baseURL:    strings.TrimRight(baseURL, "/"),
		rateLimit:  rateLimitPerMin,
	}
}

// WithMetrics attaches request metrics
func (p *YahooProvider) WithMetrics(m *metrics.Metrics) *YahooProvider {
	p.metrics = m
	return p
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *YahooProvider) RateLimit() int {
	return p.rateLimit
}

// yahooResponse represents the Yahoo Finance API response. Quote values
// are pointers because the API reports missing sessions as null.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyCandles fetches daily OHLCV data
func (p *YahooProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -days)

	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&includePrePost=false",
		p.baseURL, symbol, from.Unix(), now.Unix())

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	body, err := p.get(ctx, url, header, symbol)
	if err != nil {
		return nil, err
	}

	var data yahooResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decoding response: %w", err)}
	}

	if data.Chart.Error != nil {
		if data.Chart.Error.Code == "Not Found" {
			return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)}
		}
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s", data.Chart.Error.Description)}
	}

	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return finalize(p.Name(), symbol, nil)
	}

	result := data.Chart.Result[0]
	quotes := result.Indicators.Quote[0]
	at := func(vals []*float64, i int) *float64 {
		if i < len(vals) {
			return vals[i]
		}
		return nil
	}

	sym := strings.ToUpper(symbol)
	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, high, low, closePrice := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		// Skip partial or holiday sessions with missing prices
		if open == nil || high == nil || low == nil || closePrice == nil {
			continue
		}
		var volume float64
		if v := at(quotes.Volume, i); v != nil {
			volume = *v
		}
		candles = append(candles, model.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *closePrice,
			Volume: volume,
			Symbol: sym,
		})
	}

	return finalize(p.Name(), symbol, candles)
}
