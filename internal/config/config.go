// Package config loads the YAML configuration file and applies
// defaults for anything the file leaves unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Logging  Logging  `yaml:"logging"`
	Storage  Storage  `yaml:"storage"`
	Backtest Backtest `yaml:"backtest"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Storage holds backend connection strings. Empty DSNs select the
// in-memory stores.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// Backtest holds the default execution-model parameters. Command-line
// flags override these per run.
type Backtest struct {
	InitialCapital     float64 `yaml:"initial_capital"`
	CommissionRate     float64 `yaml:"commission_rate"`
	SlippageRate       float64 `yaml:"slippage_rate"`
	CapitalUtilization float64 `yaml:"capital_utilization"`
	StrictMode         bool    `yaml:"strict_mode"`
	AllowReversal      bool    `yaml:"allow_reversal"`
	BatchConcurrency   int     `yaml:"batch_concurrency"`
}

// Metrics configures the Prometheus endpoint. An empty addr disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "info"},
		Backtest: Backtest{
			InitialCapital:     100_000,
			CommissionRate:     0.001,
			SlippageRate:       0.0005,
			CapitalUtilization: 0.95,
			BatchConcurrency:   4,
		},
	}
}

// Load reads the YAML configuration file at the given path on top of
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	b := c.Backtest
	if b.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive, got %f", b.InitialCapital)
	}
	if b.CommissionRate < 0 || b.SlippageRate < 0 {
		return fmt.Errorf("backtest commission and slippage rates must be >= 0")
	}
	if b.CapitalUtilization <= 0 || b.CapitalUtilization > 1 {
		return fmt.Errorf("backtest.capital_utilization must be in (0, 1], got %f", b.CapitalUtilization)
	}
	if b.BatchConcurrency < 1 {
		return fmt.Errorf("backtest.batch_concurrency must be >= 1, got %d", b.BatchConcurrency)
	}
	return nil
}
