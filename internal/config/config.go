// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Market describes the tracked instrument and its data feed.
type Market struct {
	Symbol     string `yaml:"symbol"`
	Provider   string `yaml:"provider"` // stub | websocket
	StreamURL  string `yaml:"stream_url"`
	DataKey    string `yaml:"data_key"`
	DataSecret string `yaml:"data_secret"`
}

// Account supplies the inputs the share budget is derived from. ClosesPath
// points at a daily date,close CSV; when empty, ReferenceClose is used
// directly as the latest close.
type Account struct {
	CashBalance    float64 `yaml:"cash_balance"`
	ClosesPath     string  `yaml:"closes_path"`
	ReferenceClose float64 `yaml:"reference_close"`
}

// Strategy groups the evaluator's tunable knobs.
type Strategy struct {
	LotSize        int64 `yaml:"lot_size"`
	MinPrintSize   int64 `yaml:"min_print_size"`
	QuietPeriodMs  int   `yaml:"quiet_period_ms"`
	ImbalanceRatio int64 `yaml:"imbalance_ratio"`
}

// QuietPeriod returns the configured trade-correlation window.
func (s Strategy) QuietPeriod() time.Duration {
	return time.Duration(s.QuietPeriodMs) * time.Millisecond
}

// Paper configures the in-process broker used when no real venue is wired.
type Paper struct {
	PartialFills int    `yaml:"partial_fills"`
	FillDelayMs  int    `yaml:"fill_delay_ms"`
	TradesPath   string `yaml:"trades_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Market   Market   `yaml:"market"`
	Account  Account  `yaml:"account"`
	Strategy Strategy `yaml:"strategy"`
	Paper    Paper    `yaml:"paper"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.MetricsAddr == "" {
		c.App.MetricsAddr = ":9102"
	}
	if c.Market.Provider == "" {
		c.Market.Provider = "stub"
	}
	if c.Strategy.LotSize == 0 {
		c.Strategy.LotSize = 100
	}
	if c.Strategy.MinPrintSize == 0 {
		c.Strategy.MinPrintSize = 100
	}
	if c.Strategy.QuietPeriodMs == 0 {
		c.Strategy.QuietPeriodMs = 50
	}
	if c.Strategy.ImbalanceRatio == 0 {
		c.Strategy.ImbalanceRatio = 2
	}
}

func (c *Config) validate() error {
	if c.Market.Symbol == "" {
		return fmt.Errorf("market.symbol is required")
	}
	if c.Account.CashBalance <= 0 {
		return fmt.Errorf("account.cash_balance must be positive")
	}
	if c.Account.ClosesPath == "" && c.Account.ReferenceClose <= 0 {
		return fmt.Errorf("account needs closes_path or a positive reference_close")
	}
	if c.Strategy.LotSize <= 0 {
		return fmt.Errorf("strategy.lot_size must be positive")
	}
	return nil
}
