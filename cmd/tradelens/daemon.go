package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tradelens/internal/recorder"
	"tradelens/internal/report"
	"tradelens/internal/scanner"
	"tradelens/internal/scheduler"
	"tradelens/internal/symbols"
	"tradelens/internal/web"
	"tradelens/pkg/model"
)

// watchlist resolves the symbols to scan: file, then explicit list, then universe
func watchlist(a *app, universe, symbolList, file string) ([]model.Stock, error) {
	loader := symbols.NewLoader("")
	switch {
	case file != "":
		return loader.LoadFile(file)
	case symbolList != "":
		return loader.LoadList(symbolList)
	case universe != "":
		return loader.LoadUniverse(universe)
	default:
		return loader.Resolve(a.cfg.Watch.Universe, a.cfg.Watch.Symbols)
	}
}

func newScanner(a *app, workers int) *scanner.Scanner {
	if workers <= 0 {
		workers = a.cfg.Scanner.Workers
	}
	return scanner.NewScanner(a.analyst, workers, a.cfg.Scanner.Timeout).WithMetrics(a.metrics)
}

func scanCmd() *cobra.Command {
	var universe, symbolList, file string
	var workers int
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Trend and relative strength across a watchlist",
		Long: fmt.Sprintf(`Scan a watchlist and rank it by relative strength.

Universes: %v`, symbols.Universes()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			stocks, err := watchlist(a, universe, symbolList, file)
			if err != nil {
				return fmt.Errorf("loading symbols: %w", err)
			}

			ctx, cancel := signalContext("Interrupted. Stopping scan...")
			defer cancel()

			s := newScanner(a, workers)
			fmt.Fprintf(os.Stderr, "Scanning %d symbols against %s...\n\n", len(stocks), a.analyst.Options().Benchmark)

			bar := progressbar.NewOptions(len(stocks),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Scanning"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]█[reset]",
					SaucerHead:    "[green]█[reset]",
					SaucerPadding: "░",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
			s.SetProgressCallback(func(scanned, total int) {
				bar.Set(scanned)
			})

			result, err := s.Scan(ctx, stocks)
			bar.Finish()
			fmt.Fprintln(os.Stderr)
			if result == nil {
				return fmt.Errorf("scanning: %w", err)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Scan stopped early: %v\n", err)
			}

			if verbose {
				report.CacheStatus(os.Stderr, a.cache.Stats())
				fmt.Fprintln(os.Stderr)
			}
			if format == "json" {
				return outputJSON(result)
			}
			report.Scan(os.Stdout, result, a.analyst.Options().Benchmark)
			return nil
		},
	}
	cmd.Flags().StringVar(&universe, "universe", "", "predefined universe (default from config)")
	cmd.Flags().StringVar(&symbolList, "symbols", "", "comma-separated list of symbols")
	cmd.Flags().StringVar(&file, "file", "", "file with one symbol per line")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers (default from config)")
	return cmd
}

// startWatch registers and starts the scheduled watch scan
func startWatch(ctx context.Context, a *app, spec string) (*scheduler.Scheduler, error) {
	stocks, err := watchlist(a, "", "", "")
	if err != nil {
		return nil, fmt.Errorf("loading watchlist: %w", err)
	}
	sched := scheduler.NewScheduler(ctx, newScanner(a, 0), stocks, a.recorder, a.logger)
	if err := sched.Register(spec); err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

func watchCmd() *cobra.Command {
	var spec string
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan the configured watchlist on a schedule and journal trend snapshots",
		Long: `Run the watchlist scan on a cron schedule (seconds field, US Eastern Time).
Non-trading days are skipped. Each run records one trend snapshot per symbol
in the journal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if spec == "" {
				spec = a.cfg.Watch.Cron
			}

			ctx, cancel := signalContext("Stopping watch...")
			defer cancel()

			if once {
				stocks, err := watchlist(a, "", "", "")
				if err != nil {
					return fmt.Errorf("loading watchlist: %w", err)
				}
				res, err := scheduler.NewScheduler(ctx, newScanner(a, 0), stocks, a.recorder, a.logger).RunNow()
				if res == nil {
					return err
				}
				if format == "json" {
					if jerr := outputJSON(res); jerr != nil {
						return jerr
					}
					return err
				}
				report.Scan(os.Stdout, res, a.analyst.Options().Benchmark)
				return err
			}

			sched, err := startWatch(ctx, a, spec)
			if err != nil {
				return err
			}
			if format == "table" {
				sched.OnScan(func(res *scanner.ScanResult) {
					fmt.Printf("\n[%s]\n", time.Now().Format("2006-01-02 15:04"))
					report.Scan(os.Stdout, res, a.analyst.Options().Benchmark)
				})
			}

			status := scheduler.GetMarketStatus(scheduler.DefaultMarketSchedule(), time.Now())
			fmt.Fprintf(os.Stderr, "Watching (%s). Market %s. Next run %s. Press Ctrl+C to stop.\n",
				spec, status.Reason, sched.Next().In(scheduler.ETLocation()).Format("Mon Jan 2 15:04 MST"))

			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "cron spec with seconds field (default from config)")
	cmd.Flags().BoolVar(&once, "once", false, "run one scan now and exit")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	var trends string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Recent analysis runs, or the trend snapshots of one symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			rec, ok := a.recorder.(*recorder.SQLiteRecorder)
			if !ok {
				return fmt.Errorf("journal disabled; set journal.sqlite_path or TRADELENS_SQLITE_PATH")
			}

			if trends != "" {
				trends = strings.ToUpper(strings.TrimSpace(trends))
				snaps, err := rec.TrendHistory(trends, limit)
				if err != nil {
					return err
				}
				if format == "json" {
					return outputJSON(snaps)
				}
				report.Trends(os.Stdout, trends, snaps)
				return nil
			}

			runs, err := rec.Recent(limit)
			if err != nil {
				return err
			}
			if format == "json" {
				return outputJSON(runs)
			}
			report.Runs(os.Stdout, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	cmd.Flags().StringVar(&trends, "trends", "", "show trend snapshots for this symbol")
	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shared candle cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached series from Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.redis == nil {
				fmt.Println("No shared cache configured (cache.redis_addr).")
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := a.redis.Clear(ctx); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Println("Cache cleared.")
			return nil
		},
	})
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis tools over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, cancel := signalContext("Shutting down...")
			defer cancel()

			if watch {
				sched, err := startWatch(ctx, a, a.cfg.Watch.Cron)
				if err != nil {
					return err
				}
				defer sched.Stop()
			}

			srv := web.NewServer(web.Deps{
				Analyst:   a.analyst,
				Providers: a.providerNames(),
				Cache:     a.cache,
				Redis:     a.redis,
				Recorder:  a.recorder,
				Gatherer:  a.registry,
				JWTSecret: a.cfg.Server.JWTSecret,
				Logger:    a.logger,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "also run the scheduled watch scan")
	return cmd
}
