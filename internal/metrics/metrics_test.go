package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveProvider("tiingo", time.Now(), nil)
	m.ObserveProvider("tiingo", time.Now(), errors.New("boom"))
	m.CacheHit("memory")
	m.CacheMiss("memory")
	m.CacheMiss("memory")
	m.ObserveTool("analyze", time.Now(), "insufficient_data")
	m.SymbolScanned()

	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("tiingo", "error")); got != 1 {
		t.Errorf("Expected 1 failed request, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("memory", "miss")); got != 2 {
		t.Errorf("Expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(m.ToolErrors.WithLabelValues("analyze", "insufficient_data")); got != 1 {
		t.Errorf("Expected 1 tool error, got %v", got)
	}
	if got := testutil.ToFloat64(m.ScanSymbols); got != 1 {
		t.Errorf("Expected 1 scanned symbol, got %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveProvider("yahoo", time.Now(), nil)
	m.CacheHit("redis")
	m.CacheMiss("redis")
	m.ObserveTool("quote", time.Now(), "")
	m.SymbolScanned()
}
