// Package config provides configuration management for the report generator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Report      ReportConfig   `mapstructure:"report"`
	Exchange    ExchangeConfig `mapstructure:"exchange"`
	FX          FXConfig       `mapstructure:"fx"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// ReportConfig holds report generation configuration.
type ReportConfig struct {
	Days    int    `mapstructure:"days"`     // lookback window for trades
	OutDir  string `mapstructure:"out_dir"`  // where index.html and data files are written
	Offline bool   `mapstructure:"offline"`  // build from the local trade cache only
	CacheDB string `mapstructure:"cache_db"` // path of the SQLite trade cache
}

// ExchangeConfig holds MEXC connectivity configuration.
type ExchangeConfig struct {
	SpotBaseURL    string  `mapstructure:"spot_base_url"`
	SwapBaseURL    string  `mapstructure:"swap_base_url"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	MaxTrades      int     `mapstructure:"max_trades"` // hard cap per run across all symbols
	PageLimit      int     `mapstructure:"page_limit"` // fills per myTrades page
}

// FXConfig holds currency conversion configuration.
type FXConfig struct {
	RateURL      string  `mapstructure:"rate_url"`
	FallbackRate float64 `mapstructure:"fallback_rate"` // EUR per USD when the lookup fails
}

// Credentials holds MEXC API credentials.
type Credentials struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// HasKeys reports whether API credentials are configured.
func (c Credentials) HasKeys() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/mexc-report"
	}
	return filepath.Join(home, ".config", "mexc-report")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return err
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("report.days", 14)
	v.SetDefault("report.out_dir", "site")
	v.SetDefault("report.offline", false)
	v.SetDefault("report.cache_db", filepath.Join(configDir, "trades.db"))
	v.SetDefault("exchange.spot_base_url", "https://api.mexc.com")
	v.SetDefault("exchange.swap_base_url", "https://contract.mexc.com")
	v.SetDefault("exchange.requests_per_sec", 5.0)
	v.SetDefault("exchange.max_trades", 10000)
	v.SetDefault("exchange.page_limit", 200)
	v.SetDefault("fx.rate_url", "https://api.exchangerate.host/latest?base=USD&symbols=EUR")
	v.SetDefault("fx.fallback_rate", 0.92)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEXC_KEY"); v != "" {
		cfg.Credentials.APIKey = v
	}
	if v := os.Getenv("MEXC_SECRET"); v != "" {
		cfg.Credentials.APISecret = v
	}
	if v := os.Getenv("DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Report.Days = days
		}
	}
	if v := os.Getenv("OUTDIR"); v != "" {
		cfg.Report.OutDir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Report.Days <= 0 {
		return fmt.Errorf("report.days must be positive, got %d", c.Report.Days)
	}
	if c.Report.OutDir == "" {
		return fmt.Errorf("report.out_dir must not be empty")
	}
	if c.Exchange.RequestsPerSec <= 0 {
		return fmt.Errorf("exchange.requests_per_sec must be positive")
	}
	if c.Exchange.PageLimit <= 0 || c.Exchange.PageLimit > 1000 {
		return fmt.Errorf("exchange.page_limit must be between 1 and 1000")
	}
	if c.FX.FallbackRate <= 0 {
		return fmt.Errorf("fx.fallback_rate must be positive")
	}
	return nil
}
