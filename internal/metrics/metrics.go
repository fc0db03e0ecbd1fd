package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for data fetching and analysis.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome
	ProviderLatency  *prometheus.HistogramVec // labels: provider
	CacheLookups     *prometheus.CounterVec   // labels: layer, result
	ToolDuration     *prometheus.HistogramVec // labels: tool
	ToolErrors       *prometheus.CounterVec   // labels: tool, kind
	ScanSymbols      prometheus.Counter
}

// New creates the collectors and registers them on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradelens_provider_requests_total",
			Help: "Market data requests by provider and outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradelens_provider_request_duration_seconds",
			Help:    "Market data request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradelens_cache_lookups_total",
			Help: "Candle cache lookups by layer (memory, redis) and result (hit, miss)",
		}, []string{"layer", "result"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradelens_tool_duration_seconds",
			Help:    "Analysis tool latency including data fetch",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		ToolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradelens_tool_errors_total",
			Help: "Analysis tool failures by error kind",
		}, []string{"tool", "kind"}),
		ScanSymbols: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradelens_scan_symbols_total",
			Help: "Symbols processed by watchlist scans",
		}),
	}

	reg.MustRegister(
		m.ProviderRequests,
		m.ProviderLatency,
		m.CacheLookups,
		m.ToolDuration,
		m.ToolErrors,
		m.ScanSymbols,
	)
	return m
}

// ObserveProvider records one provider request
func (m *Metrics) ObserveProvider(provider string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// CacheHit records a cache hit on the given layer
func (m *Metrics) CacheHit(layer string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(layer, "hit").Inc()
}

// CacheMiss records a cache miss on the given layer
func (m *Metrics) CacheMiss(layer string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(layer, "miss").Inc()
}

// ObserveTool records the duration of one tool call and, on failure, its error kind
func (m *Metrics) ObserveTool(tool string, start time.Time, kind string) {
	if m == nil {
		return
	}
	m.ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
	if kind != "" {
		m.ToolErrors.WithLabelValues(tool, kind).Inc()
	}
}

// SymbolScanned counts one symbol processed by a scan
func (m *Metrics) SymbolScanned() {
	if m == nil {
		return
	}
	m.ScanSymbols.Inc()
}
