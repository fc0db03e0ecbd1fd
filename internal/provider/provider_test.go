package provider

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradelens/internal/analyzer"
	"tradelens/pkg/model"
)

// stubProvider is an in-memory Provider for decorator tests
type stubProvider struct {
	name      string
	available bool
	candles   []model.Candle
	err       error
	delay     time.Duration
	calls     atomic.Int32
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() bool { return s.available }
func (s *stubProvider) RateLimit() int    { return 60 }

func (s *stubProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func sampleCandles(n int) []model.Candle {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = model.Candle{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000, Symbol: "AAPL"}
	}
	return out
}

func TestFallbackProvider(t *testing.T) {
	failing := &stubProvider{name: "first", available: true, err: &ProviderError{Provider: "first", Err: errors.New("down"), Retryable: true}}
	offline := &stubProvider{name: "offline", available: false, candles: sampleCandles(1)}
	working := &stubProvider{name: "second", available: true, candles: sampleCandles(3)}

	f := NewFallbackProvider(failing, offline, working)
	require.Len(t, f.Providers(), 2)

	candles, err := f.GetDailyCandles(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Len(t, candles, 3)
	assert.EqualValues(t, 1, failing.calls.Load())
	assert.EqualValues(t, 0, offline.calls.Load())
}

func TestFallbackProvider_AllFail(t *testing.T) {
	f := NewFallbackProvider(
		&stubProvider{name: "a", available: true, err: errors.New("first")},
		&stubProvider{name: "b", available: true, err: &ProviderError{Provider: "b", Err: ErrSymbolNotFound}},
	)

	_, err := f.GetDailyCandles(context.Background(), "NOPE", 30)
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "last error should be reported")

	empty := NewFallbackProvider()
	assert.False(t, empty.IsAvailable())
	_, err = empty.GetDailyCandles(context.Background(), "AAPL", 30)
	assert.Error(t, err)
}

func TestFinalize(t *testing.T) {
	candles := sampleCandles(3)
	candles[0], candles[2] = candles[2], candles[0]

	out, err := finalize("test", "AAPL", candles)
	require.NoError(t, err)
	assert.True(t, out[0].Time.Before(out[1].Time) && out[1].Time.Before(out[2].Time))

	dup := sampleCandles(2)
	dup[1].Time = dup[0].Time
	_, err = finalize("test", "AAPL", dup)
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, analyzer.ErrInvalidParameter)

	_, err = finalize("test", "AAPL", nil)
	assert.ErrorIs(t, err, ErrNoData)
}

const yahooBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL"},
"timestamp":[1704205800,1704292200,1704378600],
"indicators":{"quote":[{
"open":[187.15,184.22,null],
"high":[188.44,185.88,183.09],
"low":[183.89,183.43,180.88],
"close":[185.64,184.25,181.91],
"volume":[82488700,58414500,71983600]}]}}],"error":null}}`

func TestYahooProvider_GetDailyCandles(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/AAPL", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	p := NewYahooProvider(srv.URL, 6000)
	candles, err := p.GetDailyCandles(context.Background(), "aapl", 30)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "interval=1d")
	require.Len(t, candles, 2, "row with a null open is skipped")
	assert.Equal(t, 185.64, candles[0].Close)
	assert.Equal(t, "AAPL", candles[0].Symbol)
	assert.Equal(t, 58414500.0, candles[1].Volume)
}

func TestYahooProvider_NullSessionStillAnalyzes(t *testing.T) {
	const rows = 40
	start := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	var ts, open, high, low, closes, volume []string
	for i := 0; i < rows; i++ {
		ts = append(ts, strconv.FormatInt(start.AddDate(0, 0, i).Unix(), 10))
		if i == 17 {
			open, high, low, closes, volume = append(open, "null"), append(high, "null"),
				append(low, "null"), append(closes, "null"), append(volume, "null")
			continue
		}
		c := 100 + float64(i)*0.5
		open = append(open, strconv.FormatFloat(c-0.2, 'f', 2, 64))
		high = append(high, strconv.FormatFloat(c+1, 'f', 2, 64))
		low = append(low, strconv.FormatFloat(c-1, 'f', 2, 64))
		closes = append(closes, strconv.FormatFloat(c, 'f', 2, 64))
		volume = append(volume, "1000000")
	}
	body := `{"chart":{"result":[{"meta":{"symbol":"MSFT"},"timestamp":[` + strings.Join(ts, ",") +
		`],"indicators":{"quote":[{"open":[` + strings.Join(open, ",") +
		`],"high":[` + strings.Join(high, ",") +
		`],"low":[` + strings.Join(low, ",") +
		`],"close":[` + strings.Join(closes, ",") +
		`],"volume":[` + strings.Join(volume, ",") + `]}]}}],"error":null}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	candles, err := NewYahooProvider(srv.URL, 6000).GetDailyCandles(context.Background(), "MSFT", 60)
	require.NoError(t, err)
	require.Len(t, candles, rows-1)
	for _, c := range candles {
		assert.False(t, math.IsNaN(c.Close))
	}

	series, err := analyzer.AddCoreIndicators(candles)
	require.NoError(t, err)
	assert.NotNil(t, series[len(series)-1].Indicators.SMA20)
}

func TestYahooProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		notFound  bool
		retryable bool
	}{
		{"not found status", http.StatusNotFound, `{}`, true, false},
		{"not found payload", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, true, false},
		{"server error", http.StatusBadGateway, `oops`, false, true},
		{"rate limited", http.StatusTooManyRequests, ``, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewYahooProvider(srv.URL, 6000).GetDailyCandles(context.Background(), "ZZZZ", 30)
			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "yahoo", pe.Provider)
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.retryable, pe.Retryable)
		})
	}
}

func TestTiingoProvider_GetDailyCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/tiingo/daily/AAPL/prices", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("startDate"))
		_, _ = w.Write([]byte(`[
{"date":"2024-01-02T00:00:00.000Z","adjOpen":187.154,"adjHigh":188.441,"adjLow":183.886,"adjClose":185.639,"adjVolume":82488674.9},
{"date":"2024-01-03T00:00:00.000Z","adjOpen":184.22,"adjHigh":185.88,"adjLow":183.43,"adjClose":184.25,"adjVolume":58414460}]`))
	}))
	defer srv.Close()

	p := NewTiingoProvider("secret", srv.URL, 6000)
	require.True(t, p.IsAvailable())

	candles, err := p.GetDailyCandles(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 187.15, candles[0].Open)
	assert.Equal(t, 185.64, candles[0].Close)
	assert.Equal(t, 82488674.0, candles[0].Volume)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), candles[0].Time)

	assert.False(t, NewTiingoProvider("", "", 0).IsAvailable())
}

func TestTiingoProvider_EmptyAndMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "NOPE") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := NewTiingoProvider("secret", srv.URL, 6000)

	_, err := p.GetDailyCandles(context.Background(), "NOPE", 10)
	assert.True(t, IsNotFound(err))

	_, err = p.GetDailyCandles(context.Background(), "EMPTY", 10)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTiingoCryptoProvider_GetDailyCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tiingo/crypto/prices", r.URL.Path)
		assert.Equal(t, "btcusd", r.URL.Query().Get("tickers"))
		assert.Equal(t, "1day", r.URL.Query().Get("resampleFreq"))
		_, _ = w.Write([]byte(`[{"ticker":"btcusd","priceData":[
{"date":"2024-01-01T00:00:00+00:00","open":42280.5,"high":44200,"low":42180,"close":44180.2,"volume":1520.5},
{"date":"2024-01-02T00:00:00+00:00","open":44180.2,"high":45900,"low":44150,"close":44950,"volume":2210.25}]}]`))
	}))
	defer srv.Close()

	p := NewTiingoCryptoProvider(NewTiingoProvider("secret", srv.URL, 6000))
	candles, err := p.GetDailyCandles(context.Background(), "BTCUSD", 5)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, "BTCUSD", candles[1].Symbol)
	assert.Equal(t, 2210.25, candles[1].Volume)
	assert.Equal(t, "tiingo-crypto", p.Name())
}

func TestBinanceProvider_GetDailyCandles(t *testing.T) {
	var limit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		limit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[
[1704153600000,"44179.55","45879.63","44148.34","44946.91","39935.67",1704239999999,"1.8E9",1500000,"19000.1","8.5E8","0"],
[1704067200000,"42283.58","44184.10","42180.77","44179.55","27174.29",1704153599999,"1.2E9",1100000,"13000.2","5.8E8","0"]]`))
	}))
	defer srv.Close()

	p := NewBinanceProvider("", srv.URL, 6000)
	candles, err := p.GetDailyCandles(context.Background(), "btcusdt", 5000)
	require.NoError(t, err)

	assert.Equal(t, "1000", limit)
	require.Len(t, candles, 2)
	// returned ascending even though the payload was not
	assert.Equal(t, time.UnixMilli(1704067200000).UTC(), candles[0].Time)
	assert.Equal(t, 44179.55, candles[0].Close)
	assert.Equal(t, 39935.67, candles[1].Volume)
}

func TestBinanceProvider_InvalidSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	_, err := NewBinanceProvider("", srv.URL, 6000).GetDailyCandles(context.Background(), "NOPEUSDT", 30)
	assert.True(t, IsNotFound(err))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 1.5, parseFloat("1.5"))
	assert.Equal(t, 2.0, parseFloat(2.0))
	assert.True(t, math.IsNaN(parseFloat("abc")))
	assert.True(t, math.IsNaN(parseFloat(nil)))
}

func TestCachingProvider_TTL(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, candles: sampleCandles(5)}
	cp := NewCachingProvider(inner, time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cp.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := cp.GetDailyCandles(ctx, "aapl", 30)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, inner.calls.Load())

	// different lookback is a different key
	_, err := cp.GetDailyCandles(ctx, "AAPL", 60)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())

	stats := cp.Stats()
	require.Len(t, stats.Entries, 2)
	assert.Equal(t, "stub:AAPL:30", stats.Entries[0].Key)
	assert.Equal(t, 5, stats.Entries[0].Rows)
	assert.Equal(t, time.Minute, stats.Entries[0].ExpiresIn)

	now = now.Add(time.Minute)
	_, err = cp.GetDailyCandles(ctx, "AAPL", 30)
	require.NoError(t, err)
	assert.EqualValues(t, 3, inner.calls.Load(), "expired entry should refetch")

	assert.Equal(t, 1, len(cp.Stats().Entries), "expired 60-day entry should be pruned")
	assert.Equal(t, 1, cp.Clear())
	assert.Empty(t, cp.Stats().Entries)
}

func TestCachingProvider_SingleFlight(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, candles: sampleCandles(5), delay: 50 * time.Millisecond}
	cp := NewCachingProvider(inner, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			candles, err := cp.GetDailyCandles(context.Background(), "MSFT", 30)
			assert.NoError(t, err)
			assert.Len(t, candles, 5)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, inner.calls.Load())
}

func TestCachingProvider_CanceledCallerDoesNotFailWaiters(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, candles: sampleCandles(5), delay: 200 * time.Millisecond}
	cp := NewCachingProvider(inner, time.Minute)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cp.GetDailyCandles(first, "NVDA", 30)
		firstErr <- err
	}()

	// let the first caller start the shared fetch
	require.Eventually(t, func() bool { return inner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	secondDone := make(chan struct{})
	var candles []model.Candle
	var err error
	go func() {
		defer close(secondDone)
		candles, err = cp.GetDailyCandles(context.Background(), "NVDA", 30)
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	<-secondDone
	require.NoError(t, err)
	assert.Len(t, candles, 5)
	assert.EqualValues(t, 1, inner.calls.Load())
	assert.Len(t, cp.Stats().Entries, 1, "shared fetch should still populate the cache")
}

func TestCachingProvider_ErrorsNotCached(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, err: errors.New("down")}
	cp := NewCachingProvider(inner, time.Minute)

	_, err := cp.GetDailyCandles(context.Background(), "AAPL", 30)
	require.Error(t, err)
	_, err = cp.GetDailyCandles(context.Background(), "AAPL", 30)
	require.Error(t, err)

	assert.EqualValues(t, 2, inner.calls.Load())
	assert.Empty(t, cp.Stats().Entries)
}
