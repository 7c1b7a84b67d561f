// Package config describes one backtest run: capital, costs, risk limits,
// strategy selection, data location and journaling. Files load as YAML or
// JSON; strategy parameters stay raw here and are decoded strictly by the
// strategy constructor.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"marketsim/backtest"
	"marketsim/metrics"
	"marketsim/risk"
)

// Config is the complete run configuration.
type Config struct {
	Capital    float64 `json:"capital" yaml:"capital"`
	Commission float64 `json:"commission" yaml:"commission"`
	Slippage   float64 `json:"slippage" yaml:"slippage"`

	Metrics  metrics.Config `json:"metrics" yaml:"metrics"`
	Risk     *risk.Limits   `json:"risk,omitempty" yaml:"risk,omitempty"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`

	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// StrategyConfig names the strategy and carries its raw parameters.
type StrategyConfig struct {
	Name   string         `json:"name" yaml:"name"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// DataConfig locates the bar series to run on. Start and End clip the
// loaded series; zero values leave that bound open. An empty symbol is
// derived from the file name.
type DataConfig struct {
	Path   string    `json:"path" yaml:"path"`
	Symbol string    `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Start  time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End    time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// JournalConfig selects run persistence. Driver is "none", "csv" (Path is a
// directory) or "sqlite" (Path is the database file).
type JournalConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, choosing the format by extension
// (.yaml/.yml as YAML, anything else as indented JSON).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration before any run is built from it.
// Strategy parameters are not checked here; the strategy constructor owns
// them.
func (c *Config) Validate() error {
	if c.Capital <= 0 {
		return fmt.Errorf("capital must be positive")
	}
	if c.Commission < 0 {
		return fmt.Errorf("commission must not be negative")
	}
	if c.Slippage < 0 {
		return fmt.Errorf("slippage must not be negative")
	}
	if c.Metrics.PeriodsPerYear < 0 {
		return fmt.Errorf("metrics.periods_per_year must not be negative")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if !c.Data.Start.IsZero() && !c.Data.End.IsZero() && c.Data.End.Before(c.Data.Start) {
		return fmt.Errorf("data.end must not be before data.start")
	}
	switch c.Journal.Driver {
	case "", "none":
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path is required for driver %q", c.Journal.Driver)
		}
	default:
		return fmt.Errorf("journal.driver must be none, csv or sqlite")
	}
	return nil
}

// Engine builds a run engine from the configuration.
func (c *Config) Engine(log *slog.Logger) *backtest.Engine {
	return &backtest.Engine{
		InitialCapital: c.Capital,
		CommissionRate: c.Commission,
		SlippageRate:   c.Slippage,
		Limits:         c.Risk,
		Metrics:        c.Metrics,
		Log:            log,
	}
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Capital:    100_000,
		Commission: 0.0005,
		Slippage:   0.001,
		Metrics:    metrics.DefaultConfig(),
		Risk: &risk.Limits{
			MaxPositionPct:      0.10,
			MaxExposurePct:      0.60,
			MaxConcentrationPct: 0.25,
		},
		Strategy: StrategyConfig{
			Name:   "sma-cross",
			Params: map[string]any{"fast": 10, "slow": 20, "quantity": 100},
		},
		Data:     DataConfig{Path: "./data/bars.csv"},
		Journal:  JournalConfig{Driver: "sqlite", Path: "./runs.db"},
		LogLevel: "info",
	}
}
