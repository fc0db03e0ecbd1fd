package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tradelens/internal/metrics"
	"tradelens/pkg/model"
)

const tiingoBaseURL = "https://api.tiingo.com"

// TiingoProvider fetches daily stock prices from Tiingo. Prices are the
// split/dividend adjusted series.
type TiingoProvider struct {
	httpSource
	apiKey    string
	baseURL   string
	rateLimit int
}

// NewTiingoProvider creates a new Tiingo stock provider
func NewTiingoProvider(apiKey, baseURL string, rateLimitPerMin int) *TiingoProvider {
	if baseURL == "" {
		baseURL = tiingoBaseURL
	}
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 50
	}
	return &TiingoProvider{
		httpSource: newHTTPSource("tiingo", rateLimitPerMin),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		rateLimit:  rateLimitPerMin,
	}
}

// WithMetrics attaches request metrics
func (p *TiingoProvider) WithMetrics(m *metrics.Metrics) *TiingoProvider {
	p.metrics = m
	return p
}

// Name returns the provider name
func (p *TiingoProvider) Name() string {
	return "tiingo"
}

// IsAvailable checks if the provider has an API key
func (p *TiingoProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// RateLimit returns the rate limit per minute
func (p *TiingoProvider) RateLimit() int {
	return p.rateLimit
}

func (p *TiingoProvider) header() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Token "+p.apiKey)
	return h
}

// tiingoDaily is one row of the end-of-day price endpoint
type tiingoDaily struct {
	Date      time.Time `json:"date"`
	AdjOpen   *float64  `json:"adjOpen"`
	AdjHigh   *float64  `json:"adjHigh"`
	AdjLow    *float64  `json:"adjLow"`
	AdjClose  *float64  `json:"adjClose"`
	AdjVolume *float64  `json:"adjVolume"`
}

// GetDailyCandles fetches adjusted daily prices. Prices are rounded to
// cents and volume truncated to whole shares.
func (p *TiingoProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	q := url.Values{}
	q.Set("startDate", start.Format("2006-01-02"))
	q.Set("endDate", end.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/tiingo/daily/%s/prices?%s", p.baseURL, url.PathEscape(symbol), q.Encode())

	body, err := p.get(ctx, endpoint, p.header(), symbol)
	if err != nil {
		return nil, err
	}

	var rows []tiingoDaily
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decoding response: %w", err)}
	}

	sym := strings.ToUpper(symbol)
	candles := make([]model.Candle, 0, len(rows))
	for _, r := range rows {
		candles = append(candles, model.Candle{
			Time:   r.Date.UTC(),
			Open:   roundCents(orNaN(r.AdjOpen)),
			High:   roundCents(orNaN(r.AdjHigh)),
			Low:    roundCents(orNaN(r.AdjLow)),
			Close:  roundCents(orNaN(r.AdjClose)),
			Volume: math.Trunc(orNaN(r.AdjVolume)),
			Symbol: sym,
		})
	}
	return finalize(p.Name(), symbol, candles)
}

// TiingoCryptoProvider fetches daily crypto bars from Tiingo. Symbols are
// Tiingo pair tickers such as btcusd.
type TiingoCryptoProvider struct {
	*TiingoProvider
}

// NewTiingoCryptoProvider creates a crypto provider sharing the stock
// provider's key and limiter
func NewTiingoCryptoProvider(stocks *TiingoProvider) *TiingoCryptoProvider {
	return &TiingoCryptoProvider{TiingoProvider: stocks}
}

// Name returns the provider name
func (p *TiingoCryptoProvider) Name() string {
	return "tiingo-crypto"
}

type tiingoCryptoTicker struct {
	Ticker    string `json:"ticker"`
	PriceData []struct {
		Date   time.Time `json:"date"`
		Open   *float64  `json:"open"`
		High   *float64  `json:"high"`
		Low    *float64  `json:"low"`
		Close  *float64  `json:"close"`
		Volume *float64  `json:"volume"`
	} `json:"priceData"`
}

// GetDailyCandles fetches daily bars resampled to one day
func (p *TiingoCryptoProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	pair := strings.ToLower(symbol)

	q := url.Values{}
	q.Set("tickers", pair)
	q.Set("startDate", start.Format("2006-01-02"))
	q.Set("endDate", end.Format("2006-01-02"))
	q.Set("resampleFreq", "1day")
	endpoint := fmt.Sprintf("%s/tiingo/crypto/prices?%s", p.baseURL, q.Encode())

	body, err := p.get(ctx, endpoint, p.header(), symbol)
	if err != nil {
		return nil, err
	}

	var tickers []tiingoCryptoTicker
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(tickers) == 0 {
		return finalize(p.Name(), pair, nil)
	}

	sym := strings.ToUpper(pair)
	candles := make([]model.Candle, 0, len(tickers[0].PriceData))
	for _, r := range tickers[0].PriceData {
		candles = append(candles, model.Candle{
			Time:   r.Date.UTC(),
			Open:   orNaN(r.Open),
			High:   orNaN(r.High),
			Low:    orNaN(r.Low),
			Close:  orNaN(r.Close),
			Volume: orNaN(r.Volume),
			Symbol: sym,
		})
	}
	return finalize(p.Name(), pair, candles)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
