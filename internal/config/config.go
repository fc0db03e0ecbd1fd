package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tradelens/internal/logging"
)

// Config represents the application configuration
type Config struct {
	API      APIConfig      `yaml:"api"`
	Cache    CacheConfig    `yaml:"cache"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Risk     RiskConfig     `yaml:"risk"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Server   ServerConfig   `yaml:"server"`
	Journal  JournalConfig  `yaml:"journal"`
	Watch    WatchConfig    `yaml:"watch"`
	Log      logging.Config `yaml:"log"`
}

// APIConfig holds API provider configurations
type APIConfig struct {
	Tiingo  ProviderConfig `yaml:"tiingo"`
	Binance ProviderConfig `yaml:"binance"`
	Yahoo   ProviderConfig `yaml:"yahoo"`
}

// ProviderConfig holds individual provider settings
type ProviderConfig struct {
	Key       string `yaml:"key"`
	Secret    string `yaml:"secret,omitempty"`
	BaseURL   string `yaml:"base_url"`
	RateLimit int    `yaml:"rate_limit"` // requests per minute
}

// CacheConfig controls the candle caches
type CacheConfig struct {
	TTL            time.Duration `yaml:"ttl"`
	RedisAddr      string        `yaml:"redis_addr"` // empty disables the shared cache
	RedisPassword  string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	RedisNamespace string        `yaml:"redis_namespace"`
}

// AnalysisConfig holds lookback defaults for each tool, in calendar days
type AnalysisConfig struct {
	Lookback        int    `yaml:"lookback"` // technical analysis and relative strength
	ProfileLookback int    `yaml:"profile_lookback"`
	PatternLookback int    `yaml:"pattern_lookback"`
	StopsLookback   int    `yaml:"stops_lookback"`
	VolumeBins      int    `yaml:"volume_bins"`
	Benchmark       string `yaml:"benchmark"`
	RSPeriods       []int  `yaml:"rs_periods"`
	CryptoProvider  string `yaml:"crypto_provider"` // tiingo or binance
	CryptoQuote     string `yaml:"crypto_quote"`
}

// RiskConfig holds position sizing defaults
type RiskConfig struct {
	AccountSize    float64 `yaml:"account_size"`
	MaxRiskPercent float64 `yaml:"max_risk_percent"`
}

// ScannerConfig holds scanner settings
type ScannerConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"` // empty disables bearer auth
}

// JournalConfig holds the analysis journal settings
type JournalConfig struct {
	SQLitePath string `yaml:"sqlite_path"` // empty disables the journal
}

// WatchConfig holds the scheduled watchlist scan
type WatchConfig struct {
	Cron     string   `yaml:"cron"` // with seconds field
	Universe string   `yaml:"universe"`
	Symbols  []string `yaml:"symbols"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Tiingo:  ProviderConfig{RateLimit: 50},
			Binance: ProviderConfig{RateLimit: 1200},
			Yahoo:   ProviderConfig{RateLimit: 30},
		},
		Cache: CacheConfig{
			TTL:            5 * time.Minute,
			RedisNamespace: "tradelens",
		},
		Analysis: AnalysisConfig{
			Lookback:        365,
			ProfileLookback: 60,
			PatternLookback: 90,
			StopsLookback:   60,
			VolumeBins:      10,
			Benchmark:       "SPY",
			RSPeriods:       []int{21, 63, 126, 252},
			CryptoProvider:  "tiingo",
			CryptoQuote:     "usd",
		},
		Risk: RiskConfig{
			AccountSize:    100000,
			MaxRiskPercent: 2.0,
		},
		Scanner: ScannerConfig{
			Workers: 5,
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Watch: WatchConfig{
			Cron:     "0 30 16 * * 1-5",
			Universe: "megacap",
		},
		Log: logging.Config{Level: "info"},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file means defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides secrets and endpoints from the environment
func (c *Config) applyEnv() {
	if v := os.Getenv("TIINGO_API_KEY"); v != "" {
		c.API.Tiingo.Key = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.API.Binance.Key = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		c.API.Binance.Secret = v
	}
	if v := os.Getenv("TRADELENS_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("TRADELENS_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("TRADELENS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TRADELENS_SQLITE_PATH"); v != "" {
		c.Journal.SQLitePath = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("scanner.workers must be at least 1")
	}
	if c.Analysis.Lookback < 1 || c.Analysis.ProfileLookback < 1 ||
		c.Analysis.PatternLookback < 1 || c.Analysis.StopsLookback < 1 {
		return fmt.Errorf("analysis lookbacks must be positive")
	}
	if c.Analysis.VolumeBins < 1 || c.Analysis.VolumeBins > 50 {
		return fmt.Errorf("analysis.volume_bins must be between 1 and 50")
	}
	for _, p := range c.Analysis.RSPeriods {
		if p < 1 {
			return fmt.Errorf("analysis.rs_periods must be positive, got %d", p)
		}
	}
	switch strings.ToLower(c.Analysis.CryptoProvider) {
	case "tiingo", "binance":
	default:
		return fmt.Errorf("analysis.crypto_provider must be tiingo or binance, got %q", c.Analysis.CryptoProvider)
	}
	if c.Risk.AccountSize <= 0 {
		return fmt.Errorf("risk.account_size must be positive")
	}
	if c.Risk.MaxRiskPercent <= 0 || c.Risk.MaxRiskPercent > 100 {
		return fmt.Errorf("risk.max_risk_percent must be in (0, 100]")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// HasMarketData reports whether a keyed stock data source is configured.
// Without one, stocks are served by the keyless Yahoo fallback only.
func (c *Config) HasMarketData() bool {
	return c.API.Tiingo.Key != ""
}
