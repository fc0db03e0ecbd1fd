package scanner

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tradelens/internal/metrics"
	"tradelens/internal/service"
	"tradelens/pkg/model"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// Snapshotter produces the trend reading of one symbol
type Snapshotter interface {
	Snapshot(ctx context.Context, symbol string) (*service.Snapshot, error)
}

// Failure is a symbol that could not be scanned
type Failure struct {
	Symbol string `json:"symbol"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

// ScanResult is the outcome of one watchlist scan
type ScanResult struct {
	TotalScanned int                `json:"total_scanned"`
	Snapshots    []service.Snapshot `json:"snapshots"`
	Failures     []Failure          `json:"failures,omitempty"`
	ScanTime     time.Duration      `json:"scan_time"`
}

// Scanner performs parallel watchlist scanning
type Scanner struct {
	analyst      Snapshotter
	workers      int
	timeout      time.Duration
	progressFunc ProgressCallback
	metrics      *metrics.Metrics
}

// NewScanner creates a new scanner. timeout bounds each symbol, not the scan.
func NewScanner(a Snapshotter, workers int, timeout time.Duration) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		analyst: a,
		workers: workers,
		timeout: timeout,
	}
}

// WithMetrics counts scanned symbols
func (s *Scanner) WithMetrics(m *metrics.Metrics) *Scanner {
	s.metrics = m
	return s
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

type outcome struct {
	snap    *service.Snapshot
	failure *Failure
}

// Scan snapshots every stock. Snapshots come back strongest RS first;
// symbols without an RS score sort last, by symbol.
func (s *Scanner) Scan(ctx context.Context, stocks []model.Stock) (*ScanResult, error) {
	startTime := time.Now()

	if len(stocks) == 0 {
		return &ScanResult{
			Snapshots: []service.Snapshot{},
			ScanTime:  time.Since(startTime),
		}, nil
	}

	// Channels
	jobChan := make(chan model.Stock, len(stocks))
	resultChan := make(chan outcome, len(stocks))

	// Send all jobs
	for _, stock := range stocks {
		jobChan <- stock
	}
	close(jobChan)

	// Progress counter
	var scannedCount int64

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for stock := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					resultChan <- s.scanOne(ctx, stock.Symbol)
					s.metrics.SymbolScanned()

					// Update progress
					count := atomic.AddInt64(&scannedCount, 1)
					if s.progressFunc != nil {
						s.progressFunc(int(count), len(stocks))
					}
				}
			}
		}()
	}

	// Close result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results
	result := &ScanResult{Snapshots: []service.Snapshot{}}
	for o := range resultChan {
		if o.snap != nil {
			result.Snapshots = append(result.Snapshots, *o.snap)
		} else {
			result.Failures = append(result.Failures, *o.failure)
		}
	}

	sortSnapshots(result.Snapshots)
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Symbol < result.Failures[j].Symbol
	})
	result.TotalScanned = int(atomic.LoadInt64(&scannedCount))
	result.ScanTime = time.Since(startTime)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Scanner) scanOne(ctx context.Context, symbol string) outcome {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	snap, err := s.analyst.Snapshot(ctx, symbol)
	if err != nil {
		return outcome{failure: &Failure{Symbol: symbol, Kind: service.ErrorKind(err), Error: err.Error()}}
	}
	return outcome{snap: snap}
}

// ScanSymbols scans specific symbols
func (s *Scanner) ScanSymbols(ctx context.Context, symbols []string) (*ScanResult, error) {
	stocks := make([]model.Stock, len(symbols))
	for i, sym := range symbols {
		stocks[i] = model.Stock{
			Symbol:   sym,
			Name:     sym,
			Exchange: "US",
		}
	}
	return s.Scan(ctx, stocks)
}

func sortSnapshots(snaps []service.Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		a, b := snaps[i].RSScore, snaps[j].RSScore
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case (a == nil) != (b == nil):
			return a != nil
		default:
			return snaps[i].Symbol < snaps[j].Symbol
		}
	})
}
