package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tradelens/internal/report"
	"tradelens/internal/service"
	"tradelens/pkg/model"
)

// runEach runs call for every symbol argument and renders each result.
// Failures are reported per symbol; the command fails only if all of them do.
func runEach[T any](args []string, call func(context.Context, *app, string) (T, error), render func(io.Writer, T)) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext("Interrupted.")
	defer cancel()

	var lastErr error
	failed := 0
	for i, sym := range args {
		v, err := call(ctx, a, sym)
		if err != nil {
			report.Error(os.Stderr, sym, err)
			lastErr = err
			failed++
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}
		if format == "json" {
			if err := outputJSON(v); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			fmt.Println()
		}
		render(os.Stdout, v)
	}
	if failed == len(args) {
		return lastErr
	}
	return nil
}

func analyzeCmd() *cobra.Command {
	var lookback int
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL...",
		Short: "Technical analysis: moving averages, RSI, MACD, ATR and trend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*model.TechnicalAnalysis, error) {
				return a.analyst.AnalyzeStock(ctx, sym, lookback)
			}, report.Technical)
		},
	}
	cmd.Flags().IntVar(&lookback, "lookback", 0, "lookback in days (default from config)")
	return cmd
}

func cryptoCmd() *cobra.Command {
	var source, quote string
	var priceOnly bool
	var lookback int
	cmd := &cobra.Command{
		Use:   "crypto SYMBOL...",
		Short: "Technical analysis for crypto assets (tiingo: BTC, binance: BTCUSDT)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if priceOnly {
				return runEach(args, func(ctx context.Context, a *app, sym string) (*model.Quote, error) {
					return a.analyst.CryptoQuote(ctx, sym, source, quote)
				}, report.Quote)
			}
			return runEach(args, func(ctx context.Context, a *app, sym string) (*model.TechnicalAnalysis, error) {
				return a.analyst.AnalyzeCrypto(ctx, sym, source, quote, lookback)
			}, report.Technical)
		},
	}
	cmd.Flags().StringVar(&source, "provider", "", "data source: tiingo, binance (default from config)")
	cmd.Flags().StringVar(&quote, "quote", "", "quote currency for tiingo pairs (default from config)")
	cmd.Flags().BoolVar(&priceOnly, "price", false, "show the latest price only")
	cmd.Flags().IntVar(&lookback, "lookback", 0, "lookback in days (default from config)")
	return cmd
}

func rsCmd() *cobra.Command {
	var benchmark string
	cmd := &cobra.Command{
		Use:   "rs SYMBOL...",
		Short: "Relative strength against a benchmark",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*service.RSResult, error) {
				return a.analyst.RelativeStrength(ctx, sym, benchmark)
			}, report.RelativeStrength)
		},
	}
	cmd.Flags().StringVar(&benchmark, "benchmark", "", "benchmark symbol (default from config)")
	return cmd
}

func profileCmd() *cobra.Command {
	var lookback, bins int
	cmd := &cobra.Command{
		Use:   "profile SYMBOL...",
		Short: "Volume profile with point of control and value area",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*service.VolumeProfileResult, error) {
				return a.analyst.VolumeProfile(ctx, sym, lookback, bins)
			}, report.VolumeProfile)
		},
	}
	cmd.Flags().IntVar(&lookback, "lookback", 0, "lookback in days (default from config)")
	cmd.Flags().IntVar(&bins, "bins", 0, "number of price bins, 1-50 (default from config)")
	return cmd
}

func patternsCmd() *cobra.Command {
	var lookback int
	cmd := &cobra.Command{
		Use:   "patterns SYMBOL...",
		Short: "Detect double bottoms and breakouts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*service.PatternResult, error) {
				return a.analyst.DetectPatterns(ctx, sym, lookback)
			}, report.Patterns)
		},
	}
	cmd.Flags().IntVar(&lookback, "lookback", 0, "lookback in days (default from config)")
	return cmd
}

func sizeCmd() *cobra.Command {
	var req service.PositionRequest
	cmd := &cobra.Command{
		Use:   "size SYMBOL",
		Short: "Position size from entry, stop and dollar risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*service.PositionResult, error) {
				r := req
				r.Symbol = sym
				return a.analyst.PositionSize(ctx, r)
			}, report.PositionSize)
		},
	}
	cmd.Flags().Float64Var(&req.Price, "price", 0, "entry price (default: latest close)")
	cmd.Flags().Float64Var(&req.StopPrice, "stop", 0, "stop price (0: no stop)")
	cmd.Flags().Float64Var(&req.RiskAmount, "risk", 0, "dollar risk (default: account cap)")
	cmd.Flags().Float64Var(&req.AccountSize, "account", 0, "account size (default from config)")
	cmd.Flags().Float64Var(&req.MaxRiskPercent, "max-risk", 0, "max account percent at risk (default from config)")
	return cmd
}

func stopsCmd() *cobra.Command {
	var lookback int
	cmd := &cobra.Command{
		Use:   "stops SYMBOL...",
		Short: "Suggest ATR, percentage and moving average stop levels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*service.StopsResult, error) {
				return a.analyst.SuggestStops(ctx, sym, lookback)
			}, report.Stops)
		},
	}
	cmd.Flags().IntVar(&lookback, "lookback", 0, "lookback in days (default from config)")
	return cmd
}

func quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL...",
		Short: "Latest price and daily change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*model.Quote, error) {
				return a.analyst.Quote(ctx, sym)
			}, report.Quote)
		},
	}
}

func candlesCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "candles SYMBOL",
		Short: "Raw daily bars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*service.HistoryResult, error) {
				return a.analyst.History(ctx, sym, days)
			}, report.History)
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "calendar days of history")
	return cmd
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report SYMBOL...",
		Short: "Comprehensive analysis: technicals, relative strength, profile, patterns and stops",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(args, func(ctx context.Context, a *app, sym string) (*service.Comprehensive, error) {
				return a.analyst.Comprehensive(ctx, sym)
			}, report.Comprehensive)
		},
	}
}
