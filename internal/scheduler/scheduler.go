package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"tradelens/internal/recorder"
	"tradelens/internal/scanner"
	"tradelens/pkg/model"
)

// WatchScanner runs one scan over a watchlist
type WatchScanner interface {
	Scan(ctx context.Context, stocks []model.Stock) (*scanner.ScanResult, error)
}

// Scheduler runs the watchlist scan on a cron schedule and journals the
// trend readings
type Scheduler struct {
	cron     *cron.Cron
	scanner  WatchScanner
	stocks   []model.Stock
	recorder recorder.Recorder
	logger   zerolog.Logger
	now      func() time.Time
	ctx      context.Context

	mu      sync.Mutex
	running bool
	onScan  func(*scanner.ScanResult)
}

// NewScheduler creates a scheduler; cron specs carry a seconds field and are
// read in US Eastern Time
func NewScheduler(ctx context.Context, sc WatchScanner, stocks []model.Stock, rec recorder.Recorder, logger zerolog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(ETLocation())),
		scanner:  sc,
		stocks:   stocks,
		recorder: rec,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
		ctx:      ctx,
	}
}

// OnScan registers a callback invoked after every completed watch scan
func (s *Scheduler) OnScan(fn func(*scanner.ScanResult)) {
	s.onScan = fn
}

// Register adds the watch job
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("symbols", len(s.stocks)).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running scan to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// Next returns the next scheduled run, zero if nothing is registered
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) watchTask() {
	if !TradingDay(s.now()) {
		s.logger.Info().Msg("market closed today, skipping watch")
		return
	}
	if _, err := s.RunNow(); err != nil {
		s.logger.Error().Err(err).Msg("watch scan failed")
	}
}

// RunNow scans the watchlist immediately and records one trend snapshot per
// symbol. Overlapping runs are refused.
func (s *Scheduler) RunNow() (*scanner.ScanResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("watch scan already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runID := uuid.NewString()
	s.logger.Info().Str("run_id", runID).Int("symbols", len(s.stocks)).Msg("running watch scan")

	res, err := s.scanner.Scan(s.ctx, s.stocks)
	if err != nil && res == nil {
		return nil, err
	}

	at := s.now()
	for _, snap := range res.Snapshots {
		if rerr := s.recorder.RecordTrend(&recorder.TrendSnapshot{
			RunID:       runID,
			Symbol:      snap.Symbol,
			At:          at,
			Price:       snap.Price,
			RSI:         snap.Trend.RSI,
			AboveSMA50:  snap.Trend.AboveSMA50,
			AboveSMA200: snap.Trend.AboveSMA200,
			RSScore:     snap.RSScore,
		}); rerr != nil {
			s.logger.Error().Err(rerr).Str("symbol", snap.Symbol).Msg("record trend")
		}
	}
	for _, f := range res.Failures {
		s.logger.Warn().Str("symbol", f.Symbol).Str("error_kind", f.Kind).Msg(f.Error)
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("scanned", res.TotalScanned).
		Int("failed", len(res.Failures)).
		Dur("duration", res.ScanTime).
		Msg("watch scan complete")

	if s.onScan != nil {
		s.onScan(res)
	}
	return res, err
}
