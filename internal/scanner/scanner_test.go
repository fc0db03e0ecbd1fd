package scanner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradelens/internal/metrics"
	"tradelens/internal/provider"
	"tradelens/internal/service"
)

type fakeAnalyst struct {
	scores map[string]float64
	delay  time.Duration
}

func (f *fakeAnalyst) Snapshot(ctx context.Context, symbol string) (*service.Snapshot, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if symbol == "GONE" {
		return nil, &provider.ProviderError{Provider: "fake", Err: fmt.Errorf("%w: %s", provider.ErrSymbolNotFound, symbol)}
	}
	snap := &service.Snapshot{Symbol: symbol, Price: 100}
	if score, ok := f.scores[symbol]; ok {
		snap.RSPeriod, snap.RSScore = 21, &score
	}
	return snap, nil
}

func TestScanSymbols(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	a := &fakeAnalyst{scores: map[string]float64{"AAPL": 62, "NVDA": 88, "MSFT": 41}}
	s := NewScanner(a, 3, time.Second).WithMetrics(m)

	var mu sync.Mutex
	var last, total int
	s.SetProgressCallback(func(scanned, n int) {
		mu.Lock()
		defer mu.Unlock()
		if scanned > last {
			last = scanned
		}
		total = n
	})

	res, err := s.ScanSymbols(context.Background(), []string{"AAPL", "MSFT", "GONE", "SPY", "NVDA"})
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalScanned)
	require.Len(t, res.Snapshots, 4)
	order := []string{}
	for _, snap := range res.Snapshots {
		order = append(order, snap.Symbol)
	}
	assert.Equal(t, []string{"NVDA", "AAPL", "MSFT", "SPY"}, order)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "GONE", res.Failures[0].Symbol)
	assert.Equal(t, service.KindNotFound, res.Failures[0].Kind)

	assert.Equal(t, 5, last)
	assert.Equal(t, 5, total)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ScanSymbols))
}

func TestScan_Empty(t *testing.T) {
	s := NewScanner(&fakeAnalyst{}, 0, time.Second)
	res, err := s.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.TotalScanned)
	assert.Empty(t, res.Snapshots)
}

func TestScan_PerSymbolTimeout(t *testing.T) {
	s := NewScanner(&fakeAnalyst{delay: time.Second}, 2, 20*time.Millisecond)

	res, err := s.ScanSymbols(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, service.KindCanceled, res.Failures[0].Kind)
}

func TestScan_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScanner(&fakeAnalyst{}, 2, time.Second)
	res, err := s.ScanSymbols(ctx, []string{"AAPL", "MSFT", "NVDA"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.TotalScanned)
}
