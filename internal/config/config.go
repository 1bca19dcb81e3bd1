// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"grid_trader/internal/risk"
	"grid_trader/internal/trading/grid"
)

// Config represents the complete configuration structure
type Config struct {
	Trading        TradingConfig        `yaml:"trading"`
	Risk           RiskConfig           `yaml:"risk"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Simulator      SimulatorConfig      `yaml:"simulator"`
	Store          StoreConfig          `yaml:"store"`
	Engine         EngineConfig         `yaml:"engine"`
	System         SystemConfig         `yaml:"system"`
	Concurrency    ConcurrencyConfig    `yaml:"concurrency"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
}

// TradingConfig contains the grid parameters
type TradingConfig struct {
	Symbol           string  `yaml:"symbol" validate:"required"`
	LowerBound       float64 `yaml:"lower_bound" validate:"required,min=0"`
	UpperBound       float64 `yaml:"upper_bound" validate:"required,gtfield=LowerBound"`
	GridLevels       int     `yaml:"grid_levels" validate:"required,min=2,max=200"`
	QuantityPerLevel float64 `yaml:"quantity_per_level" validate:"required,min=0.00001"`
}

// RiskConfig contains the trading limits
type RiskConfig struct {
	MaxPositionSize  float64 `yaml:"max_position_size" validate:"min=0"`
	StopLossPct      float64 `yaml:"stop_loss_pct" validate:"min=0,max=100"`
	TakeProfitPct    float64 `yaml:"take_profit_pct" validate:"min=0"`
	MaxOpenOrders    int     `yaml:"max_open_orders" validate:"min=1,max=1000"`
	MaxTotalExposure float64 `yaml:"max_total_exposure" validate:"min=0"`
}

// CircuitBreakerConfig contains the PnL circuit breaker settings
type CircuitBreakerConfig struct {
	Enabled              bool    `yaml:"enabled"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses" validate:"min=1,max=100"`
	MaxDrawdownAmount    float64 `yaml:"max_drawdown_amount" validate:"min=0"`
	CooldownSeconds      int     `yaml:"cooldown_seconds" validate:"min=1,max=86400"`
}

// SimulatorConfig contains the synthetic price feed settings
type SimulatorConfig struct {
	StartPrice     float64 `yaml:"start_price" validate:"min=0"`
	Volatility     float64 `yaml:"volatility" validate:"min=0,max=1"`
	Seed           int64   `yaml:"seed"`
	TicksPerSecond float64 `yaml:"ticks_per_second" validate:"min=0.1,max=10000"`
	MaxTicks       int     `yaml:"max_ticks" validate:"min=0"`
}

// StoreConfig contains state persistence settings
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite"`
	Path   string `yaml:"path"` // SQLite database file; required for sqlite
}

// EngineConfig contains engine-level settings
type EngineConfig struct {
	SnapshotIntervalTicks int `yaml:"snapshot_interval_ticks" validate:"min=0"`
	SaveRetries           int `yaml:"save_retries" validate:"min=0,max=10"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel    string `yaml:"log_level" validate:"required,oneof=DEBUG INFO WARN ERROR FATAL"`
	CloseOnExit bool   `yaml:"close_on_exit"`
}

// ConcurrencyConfig contains worker pool settings
type ConcurrencyConfig struct {
	NotifyPoolSize   int `yaml:"notify_pool_size" validate:"min=1,max=100"`
	NotifyPoolBuffer int `yaml:"notify_pool_buffer" validate:"min=1,max=10000"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	MetricsPort   int  `yaml:"metrics_port"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults fills zero values the YAML may omit.
func (c *Config) applyDefaults() {
	if c.Risk.MaxPositionSize == 0 {
		c.Risk.MaxPositionSize = 1000
	}
	if c.Risk.StopLossPct == 0 {
		c.Risk.StopLossPct = 5
	}
	if c.Risk.TakeProfitPct == 0 {
		c.Risk.TakeProfitPct = 10
	}
	if c.Risk.MaxOpenOrders == 0 {
		c.Risk.MaxOpenOrders = 20
	}
	if c.Risk.MaxTotalExposure == 0 {
		c.Risk.MaxTotalExposure = 10000
	}
	if c.CircuitBreaker.MaxConsecutiveLosses == 0 {
		c.CircuitBreaker.MaxConsecutiveLosses = 5
	}
	if c.CircuitBreaker.CooldownSeconds == 0 {
		c.CircuitBreaker.CooldownSeconds = 300
	}
	if c.Simulator.TicksPerSecond == 0 {
		c.Simulator.TicksPerSecond = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Engine.SaveRetries == 0 {
		c.Engine.SaveRetries = 3
	}
	if c.Concurrency.NotifyPoolSize == 0 {
		c.Concurrency.NotifyPoolSize = 4
	}
	if c.Concurrency.NotifyPoolBuffer == 0 {
		c.Concurrency.NotifyPoolBuffer = 256
	}
	if c.System.LogLevel == "" {
		c.System.LogLevel = "INFO"
	}
	if c.Telemetry.MetricsPort == 0 {
		c.Telemetry.MetricsPort = 9090
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTradingConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.validateRiskConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.validateSimulatorConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.validateStoreConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.validateSystemConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

func (c *Config) validateTradingConfig() error {
	if c.Trading.Symbol == "" {
		return ValidationError{
			Field:   "trading.symbol",
			Message: "trading symbol is required",
		}
	}

	if c.Trading.LowerBound <= 0 {
		return ValidationError{
			Field:   "trading.lower_bound",
			Value:   c.Trading.LowerBound,
			Message: "lower bound must be positive",
		}
	}

	if c.Trading.UpperBound <= c.Trading.LowerBound {
		return ValidationError{
			Field:   "trading.upper_bound",
			Value:   c.Trading.UpperBound,
			Message: "upper bound must be greater than lower bound",
		}
	}

	if c.Trading.GridLevels < 2 {
		return ValidationError{
			Field:   "trading.grid_levels",
			Value:   c.Trading.GridLevels,
			Message: "at least two grid levels are required",
		}
	}

	if c.Trading.QuantityPerLevel <= 0 {
		return ValidationError{
			Field:   "trading.quantity_per_level",
			Value:   c.Trading.QuantityPerLevel,
			Message: "quantity per level must be positive",
		}
	}

	return nil
}

func (c *Config) validateRiskConfig() error {
	if c.Risk.MaxPositionSize <= 0 {
		return ValidationError{
			Field:   "risk.max_position_size",
			Value:   c.Risk.MaxPositionSize,
			Message: "max position size must be positive",
		}
	}

	if c.Risk.MaxOpenOrders < 1 {
		return ValidationError{
			Field:   "risk.max_open_orders",
			Value:   c.Risk.MaxOpenOrders,
			Message: "max open orders must be at least 1",
		}
	}

	if c.Risk.MaxTotalExposure <= 0 {
		return ValidationError{
			Field:   "risk.max_total_exposure",
			Value:   c.Risk.MaxTotalExposure,
			Message: "max total exposure must be positive",
		}
	}

	return nil
}

func (c *Config) validateSimulatorConfig() error {
	if c.Simulator.StartPrice < 0 {
		return ValidationError{
			Field:   "simulator.start_price",
			Value:   c.Simulator.StartPrice,
			Message: "start price cannot be negative",
		}
	}
	return nil
}

func (c *Config) validateStoreConfig() error {
	validDrivers := []string{"memory", "sqlite"}
	if !contains(validDrivers, c.Store.Driver) {
		return ValidationError{
			Field:   "store.driver",
			Value:   c.Store.Driver,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validDrivers, ", ")),
		}
	}

	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		return ValidationError{
			Field:   "store.path",
			Message: "database path is required for the sqlite driver",
		}
	}

	return nil
}

func (c *Config) validateSystemConfig() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.System.LogLevel)) {
		return ValidationError{
			Field:   "system.log_level",
			Value:   c.System.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	return nil
}

// GridConfig converts the trading section into the strategy's grid config.
func (c *Config) GridConfig() grid.Config {
	return grid.Config{
		Symbol:           c.Trading.Symbol,
		LowerBound:       decimal.NewFromFloat(c.Trading.LowerBound),
		UpperBound:       decimal.NewFromFloat(c.Trading.UpperBound),
		Levels:           c.Trading.GridLevels,
		QuantityPerLevel: decimal.NewFromFloat(c.Trading.QuantityPerLevel),
	}
}

// RiskLimits converts the risk section into the strategy's limits.
func (c *Config) RiskLimits() risk.Limits {
	return risk.Limits{
		MaxPositionSize:  decimal.NewFromFloat(c.Risk.MaxPositionSize),
		StopLossPct:      decimal.NewFromFloat(c.Risk.StopLossPct),
		TakeProfitPct:    decimal.NewFromFloat(c.Risk.TakeProfitPct),
		MaxOpenOrders:    c.Risk.MaxOpenOrders,
		MaxTotalExposure: decimal.NewFromFloat(c.Risk.MaxTotalExposure),
	}
}

// BreakerConfig converts the circuit breaker section into its runtime config.
func (c *Config) BreakerConfig() risk.CircuitConfig {
	return risk.CircuitConfig{
		MaxConsecutiveLosses: c.CircuitBreaker.MaxConsecutiveLosses,
		MaxDrawdownAmount:    decimal.NewFromFloat(c.CircuitBreaker.MaxDrawdownAmount),
		CooldownPeriod:       time.Duration(c.CircuitBreaker.CooldownSeconds) * time.Second,
	}
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

// Helper functions

func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// DefaultConfig returns a default configuration for testing
func DefaultConfig() *Config {
	cfg := &Config{
		Trading: TradingConfig{
			Symbol:           "BTCUSDT",
			LowerBound:       90,
			UpperBound:       110,
			GridLevels:       11,
			QuantityPerLevel: 1,
		},
		Risk: RiskConfig{
			MaxPositionSize:  1000,
			StopLossPct:      5,
			TakeProfitPct:    10,
			MaxOpenOrders:    20,
			MaxTotalExposure: 10000,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:              true,
			MaxConsecutiveLosses: 5,
			MaxDrawdownAmount:    500,
			CooldownSeconds:      300,
		},
		Simulator: SimulatorConfig{
			StartPrice:     100,
			Volatility:     0.01,
			Seed:           42,
			TicksPerSecond: 100,
			MaxTicks:       1000,
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Engine: EngineConfig{
			SnapshotIntervalTicks: 100,
			SaveRetries:           3,
		},
		System: SystemConfig{
			LogLevel:    "INFO",
			CloseOnExit: true,
		},
		Telemetry: TelemetryConfig{
			MetricsPort:   9090,
			EnableMetrics: true,
		},
	}
	cfg.applyDefaults()
	return cfg
}
