package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Trading.Symbols)
	assert.Equal(t, 100, cfg.Trading.WindowSize)
	assert.InDelta(t, 10000.0, cfg.Trading.InitialBalance, 1e-9)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.InDelta(t, 0.2, cfg.Risk.MaxDrawdownFraction, 1e-9)
}

func TestLoadFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"trading": {
			"symbols": ["SOLUSDT"],
			"initial_balance": 5000,
			"window_size": 200
		},
		"risk": {
			"max_position_size": 2.5
		}
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"SOLUSDT"}, cfg.Trading.Symbols)
	assert.InDelta(t, 5000.0, cfg.Trading.InitialBalance, 1e-9)
	assert.Equal(t, 200, cfg.Trading.WindowSize)
	assert.InDelta(t, 2.5, cfg.Risk.MaxPositionSize, 1e-9)
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TRADING_SYMBOLS", "ADAUSDT, DOTUSDT")
	t.Setenv("INITIAL_BALANCE", "2500")
	t.Setenv("CYCLE_INTERVAL", "5m")
	t.Setenv("MAX_DRAWDOWN_FRACTION", "0.35")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"ADAUSDT", "DOTUSDT"}, cfg.Trading.Symbols)
	assert.InDelta(t, 2500.0, cfg.Trading.InitialBalance, 1e-9)
	assert.Equal(t, 5*time.Minute, cfg.Trading.CycleInterval)
	assert.InDelta(t, 0.35, cfg.Risk.MaxDrawdownFraction, 1e-9)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbols", func(c *Config) { c.Trading.Symbols = nil }},
		{"negative balance", func(c *Config) { c.Trading.InitialBalance = -1 }},
		{"zero position size", func(c *Config) { c.Risk.MaxPositionSize = 0 }},
		{"drawdown out of range", func(c *Config) { c.Risk.MaxDrawdownFraction = 1.5 }},
		{"negative weight", func(c *Config) { c.StrategyWeights = map[string]float64{"momentum": -1} }},
		{"all weights zero", func(c *Config) { c.StrategyWeights = map[string]float64{"momentum": 0} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
