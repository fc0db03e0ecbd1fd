package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradelens/internal/config"
	"tradelens/internal/logging"
	"tradelens/internal/metrics"
	"tradelens/internal/provider"
	"tradelens/internal/recorder"
	"tradelens/internal/service"
)

var (
	cfgFile string
	format  string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tradelens",
		Short: "Technical analysis toolkit for stocks and crypto",
		Long: `tradelens computes indicators, trend status, relative strength, volume
profiles, chart patterns, position sizes and stop levels from daily bars.

Examples:
  tradelens analyze AAPL MSFT
  tradelens rs NVDA --benchmark QQQ
  tradelens size AAPL --stop 180 --risk 500
  tradelens crypto BTC --provider binance
  tradelens scan --universe megacap
  tradelens serve --addr :8080`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show debug logs and cache details")

	rootCmd.AddCommand(
		analyzeCmd(),
		cryptoCmd(),
		rsCmd(),
		profileCmd(),
		patternsCmd(),
		sizeCmd(),
		stopsCmd(),
		quoteCmd(),
		candlesCmd(),
		reportCmd(),
		scanCmd(),
		watchCmd(),
		historyCmd(),
		cacheCmd(),
		serveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	stocks   *provider.FallbackProvider
	cache    *provider.CachingProvider
	redis    *provider.RedisCache
	rdb      *redis.Client
	recorder recorder.Recorder
	analyst  *service.Analyst
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	switch format {
	case "table", "json":
	default:
		return nil, fmt.Errorf("unknown format %q (table, json)", format)
	}

	a := &app{
		cfg:      cfg,
		logger:   logging.New(cfg.Log),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	var tiingo *provider.TiingoProvider
	if cfg.API.Tiingo.Key != "" {
		tiingo = provider.NewTiingoProvider(cfg.API.Tiingo.Key, cfg.API.Tiingo.BaseURL, cfg.API.Tiingo.RateLimit).WithMetrics(a.metrics)
	}

	a.stocks = provider.NewFallbackProvider(createProviders(cfg, tiingo, a.metrics)...)
	if !a.stocks.IsAvailable() {
		return nil, fmt.Errorf("no available data providers")
	}
	if !cfg.HasMarketData() {
		a.logger.Warn().Msg("TIINGO_API_KEY not set, stock data comes from Yahoo only")
	}

	var stocks provider.Provider = a.stocks
	if cfg.Cache.RedisAddr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		a.redis = provider.NewRedisCache(a.rdb, cfg.Cache.TTL, stocks, cfg.Cache.RedisNamespace).WithMetrics(a.metrics)
		stocks = a.redis
	}
	a.cache = provider.NewCachingProvider(stocks, cfg.Cache.TTL).WithMetrics(a.metrics)

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Journal.SQLitePath != "" {
		rec, err := recorder.NewSQLiteRecorder(cfg.Journal.SQLitePath, a.logger)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		a.recorder = rec
	}

	a.analyst = service.NewAnalyst(a.cache, service.OptionsFromConfig(cfg), a.logger).
		WithMetrics(a.metrics).
		WithRecorder(a.recorder)
	for name, p := range createCryptoProviders(cfg, tiingo, a.metrics) {
		a.analyst.WithCrypto(name, provider.NewCachingProvider(p, cfg.Cache.TTL).WithMetrics(a.metrics))
	}

	a.logger.Debug().Strs("providers", a.providerNames()).Bool("redis", a.redis != nil).Msg("data sources ready")

	return a, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing journal")
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
}

func (a *app) providerNames() []string {
	names := []string{}
	for _, p := range a.stocks.Providers() {
		names = append(names, p.Name())
	}
	return names
}

func createProviders(cfg *config.Config, tiingo *provider.TiingoProvider, m *metrics.Metrics) []provider.Provider {
	var providers []provider.Provider

	// Tiingo (primary - adjusted prices)
	if tiingo != nil {
		providers = append(providers, tiingo)
	}

	// Yahoo Finance (fallback - always available)
	providers = append(providers,
		provider.NewYahooProvider(cfg.API.Yahoo.BaseURL, cfg.API.Yahoo.RateLimit).WithMetrics(m))

	return providers
}

// createCryptoProviders shares the Tiingo key and limiter with the stock source
func createCryptoProviders(cfg *config.Config, tiingo *provider.TiingoProvider, m *metrics.Metrics) map[string]provider.Provider {
	out := map[string]provider.Provider{
		service.CryptoBinance: provider.NewBinanceProvider(cfg.API.Binance.Key, cfg.API.Binance.BaseURL, cfg.API.Binance.RateLimit).WithMetrics(m),
	}
	if tiingo != nil {
		out[service.CryptoTiingo] = provider.NewTiingoCryptoProvider(tiingo)
	}
	return out
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(onSignal string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			if onSignal != "" {
				fmt.Fprintln(os.Stderr, "\n"+onSignal)
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
