package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
trading:
  symbol: "BTCUSDT"
  lower_bound: 90
  upper_bound: 110
  grid_levels: 11
  quantity_per_level: 1

risk:
  max_position_size: 500
  stop_loss_pct: 4
  take_profit_pct: 8
  max_open_orders: 15
  max_total_exposure: 5000

store:
  driver: "memory"

system:
  log_level: "DEBUG"
`

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Trading.Symbol)
	assert.Equal(t, 11, cfg.Trading.GridLevels)
	assert.Equal(t, "DEBUG", cfg.System.LogLevel)
	assert.Equal(t, 15, cfg.Risk.MaxOpenOrders)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
trading:
  symbol: "ETHUSDT"
  lower_bound: 1000
  upper_bound: 2000
  grid_levels: 5
  quantity_per_level: 0.1
`))
	require.NoError(t, err)

	assert.Equal(t, float64(1000), cfg.Risk.MaxPositionSize)
	assert.Equal(t, 20, cfg.Risk.MaxOpenOrders)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "INFO", cfg.System.LogLevel)
	assert.Equal(t, float64(10), cfg.Simulator.TicksPerSecond)
	assert.Equal(t, 9090, cfg.Telemetry.MetricsPort)
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_GRID_SYMBOL", "SOLUSDT")

	cfg, err := LoadConfig(writeConfig(t, `
trading:
  symbol: "${TEST_GRID_SYMBOL}"
  lower_bound: 90
  upper_bound: 110
  grid_levels: 5
  quantity_per_level: 1
`))
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", cfg.Trading.Symbol)
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing symbol", `
trading:
  lower_bound: 90
  upper_bound: 110
  grid_levels: 5
  quantity_per_level: 1
`},
		{"inverted bounds", `
trading:
  symbol: "BTCUSDT"
  lower_bound: 110
  upper_bound: 90
  grid_levels: 5
  quantity_per_level: 1
`},
		{"too few levels", `
trading:
  symbol: "BTCUSDT"
  lower_bound: 90
  upper_bound: 110
  grid_levels: 1
  quantity_per_level: 1
`},
		{"sqlite without path", `
trading:
  symbol: "BTCUSDT"
  lower_bound: 90
  upper_bound: 110
  grid_levels: 5
  quantity_per_level: 1
store:
  driver: "sqlite"
`},
		{"bad log level", `
trading:
  symbol: "BTCUSDT"
  lower_bound: 90
  upper_bound: 110
  grid_levels: 5
  quantity_per_level: 1
system:
  log_level: "LOUD"
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_DomainConversions(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	gridCfg := cfg.GridConfig()
	assert.Equal(t, "BTCUSDT", gridCfg.Symbol)
	assert.True(t, gridCfg.LowerBound.Equal(decimal.NewFromInt(90)))
	assert.True(t, gridCfg.UpperBound.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, 11, gridCfg.Levels)

	limits := cfg.RiskLimits()
	assert.True(t, limits.MaxPositionSize.Equal(decimal.NewFromInt(500)))
	assert.True(t, limits.StopLossPct.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, 15, limits.MaxOpenOrders)
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{Field: "trading.symbol", Value: "", Message: "required"}
	assert.Contains(t, err.Error(), "trading.symbol")
	assert.Contains(t, err.Error(), "required")
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
