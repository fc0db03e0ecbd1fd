package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"tradelens/pkg/model"
)

// Comprehensive bundles every analysis of one symbol. A section that failed
// is nil and its error message is listed under Errors.
type Comprehensive struct {
	Symbol           string                   `json:"symbol"`
	Technical        *model.TechnicalAnalysis `json:"technical,omitempty"`
	RelativeStrength *RSResult                `json:"relative_strength,omitempty"`
	VolumeProfile    *VolumeProfileResult     `json:"volume_profile,omitempty"`
	Patterns         *PatternResult           `json:"patterns,omitempty"`
	Stops            *StopsResult             `json:"stops,omitempty"`
	Errors           map[string]string        `json:"errors,omitempty"`
}

// Comprehensive fetches the symbol and the benchmark once and derives every
// section from those series. Only a failed fetch is fatal.
func (a *Analyst) Comprehensive(ctx context.Context, symbol string) (*Comprehensive, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return track(a, "comprehensive", sym, func() (*Comprehensive, error) {
		bench := a.opts.Benchmark
		var (
			candles, benchCandles []model.Candle
			benchErr              error
		)
		if bench == sym {
			candles, err = a.fetch(ctx, sym, a.opts.Lookback)
			benchCandles = candles
		} else {
			// the benchmark alone failing only loses the RS section
			var g errgroup.Group
			g.Go(func() error {
				var ferr error
				candles, ferr = a.fetch(ctx, sym, a.opts.Lookback)
				return ferr
			})
			g.Go(func() error {
				benchCandles, benchErr = a.fetch(ctx, bench, a.opts.Lookback)
				return nil
			})
			err = g.Wait()
		}
		if err != nil {
			return nil, err
		}

		out := &Comprehensive{Symbol: sym, Errors: map[string]string{}}
		fail := func(section string, err error) {
			out.Errors[section] = err.Error()
		}

		analysis, series, err := a.technical.Analyze(sym, candles)
		if err != nil {
			fail("technical", err)
		} else {
			out.Technical = analysis
		}

		if benchErr != nil {
			fail("relative_strength", fmt.Errorf("%w: %v", errBenchmarkUnavailable, benchErr))
		} else if rs, err := a.relativeStrength(sym, bench, candles, benchCandles); err != nil {
			fail("relative_strength", err)
		} else {
			out.RelativeStrength = rs
		}

		if vp, err := volumeProfile(sym, a.opts.ProfileLookback, a.opts.VolumeBins, a.since(candles, a.opts.ProfileLookback)); err != nil {
			fail("volume_profile", err)
		} else {
			out.VolumeProfile = vp
		}

		if pr, err := a.detectPatterns(sym, a.since(candles, a.opts.PatternLookback)); err != nil {
			fail("patterns", err)
		} else {
			out.Patterns = pr
		}

		// stops read indicators warmed up on the full year
		if series != nil {
			recent := series[len(series)-len(a.since(candles, a.opts.StopsLookback)):]
			if st, err := suggestStops(sym, recent); err != nil {
				fail("stops", err)
			} else {
				out.Stops = st
			}
		} else {
			fail("stops", errNoIndicators)
		}

		if len(out.Errors) == 0 {
			out.Errors = nil
		}
		return out, nil
	})
}

// FailedSections lists the failed section names in a stable order
func (c *Comprehensive) FailedSections() []string {
	names := make([]string, 0, len(c.Errors))
	for k := range c.Errors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot is the trend reading of one symbol used by watchlist scans
type Snapshot struct {
	Symbol    string            `json:"symbol"`
	Date      time.Time         `json:"date"`
	Price     float64           `json:"price"`
	Trend     model.TrendStatus `json:"trend"`
	RSPeriod  int               `json:"rs_period,omitempty"`
	RSScore   *float64          `json:"rs_score,omitempty"`
	RSISignal string            `json:"rsi_signal,omitempty"`
}

// Snapshot computes the trend checklist and the shortest-period RS score.
// It is not journaled; scans record trend snapshots instead.
func (a *Analyst) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	start := a.now()
	defer func() {
		a.metrics.ObserveTool("snapshot", start, ErrorKind(err))
	}()

	candles, err := a.fetch(ctx, sym, a.opts.Lookback)
	if err != nil {
		return nil, err
	}
	analysis, _, err := a.technical.Analyze(sym, candles)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Symbol:    sym,
		Date:      analysis.Date,
		Price:     analysis.LatestPrice,
		Trend:     analysis.Trend,
		RSISignal: analysis.RSISignal,
	}

	if sym == a.opts.Benchmark {
		return snap, nil
	}
	bench, berr := a.fetch(ctx, a.opts.Benchmark, a.opts.Lookback)
	if berr != nil {
		a.logger.Debug().Err(berr).Str("symbol", sym).Msg("benchmark unavailable for snapshot")
		return snap, nil
	}
	rs, rerr := a.relativeStrength(sym, a.opts.Benchmark, candles, bench)
	if rerr != nil {
		return snap, nil
	}
	if periods := sortedPeriods(rs.Periods); len(periods) > 0 {
		score := rs.Periods[periods[0]].Score
		snap.RSPeriod, snap.RSScore = periods[0], &score
	}
	return snap, nil
}

// sortedPeriods returns the keys of an RS result in ascending order
func sortedPeriods(periods map[int]model.RSPeriod) []int {
	keys := make([]int, 0, len(periods))
	for p := range periods {
		keys = append(keys, p)
	}
	sort.Ints(keys)
	return keys
}
