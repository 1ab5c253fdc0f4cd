package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cryptoalpha/alpha-agent/internal/execution"
	"github.com/cryptoalpha/alpha-agent/internal/risk"
)

// Config is loaded once at run start; the core never mutates it.
type Config struct {
	Environment string `json:"environment"`
	LogLevel    string `json:"log_level"`

	Trading struct {
		Symbols          []string      `json:"symbols"`
		Interval         string        `json:"interval"`
		InitialBalance   float64       `json:"initial_balance"`
		WindowSize       int           `json:"window_size"`
		ParticipationCap float64       `json:"participation_cap"`
		CycleInterval    time.Duration `json:"cycle_interval"`
	} `json:"trading"`

	// StrategyWeights maps strategy name to its composite weight.
	// Recognized names: momentum, mean_reversion, breakout, ml_score.
	StrategyWeights map[string]float64 `json:"strategy_weights"`

	Risk risk.Limits `json:"risk"`

	Exchange struct {
		Name     string `json:"name"`
		APIKey   string `json:"-"`
		Secret   string `json:"-"`
		Category string `json:"category"`
		Testnet  bool   `json:"testnet"`
		Demo     bool   `json:"demo"`
	} `json:"exchange"`

	Retry execution.RetryConfig `json:"retry"`

	Notifications struct {
		TelegramToken  string `json:"-"`
		TelegramChatID string `json:"-"`
	} `json:"-"`

	Monitoring struct {
		PrometheusPort int `json:"prometheus_port"`
		HealthPort     int `json:"health_port"`
	} `json:"monitoring"`
}

// Load builds the configuration from an optional JSON file plus
// environment variables (.env supported); env wins over file, file wins
// over defaults. Credentials come from env only.
func Load(configFile string) (*Config, error) {
	// Best effort: a missing .env is fine in production.
	_ = godotenv.Load()

	cfg := defaults()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{
		Environment:     "development",
		LogLevel:        "info",
		StrategyWeights: map[string]float64{"momentum": 0.4, "mean_reversion": 0.4, "breakout": 0.2},
		Risk:            risk.DefaultLimits(),
		Retry:           execution.DefaultRetryConfig(),
	}
	cfg.Trading.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	cfg.Trading.Interval = "60"
	cfg.Trading.InitialBalance = 10000
	cfg.Trading.WindowSize = 100
	cfg.Trading.ParticipationCap = 0.1
	cfg.Trading.CycleInterval = time.Minute
	cfg.Exchange.Name = "bybit"
	cfg.Exchange.Category = "spot"
	cfg.Exchange.Testnet = true
	cfg.Monitoring.PrometheusPort = 8080
	cfg.Monitoring.HealthPort = 8081
	return cfg
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	if pairs := os.Getenv("TRADING_SYMBOLS"); pairs != "" {
		c.Trading.Symbols = splitTrim(pairs)
	}
	c.Trading.Interval = getEnv("TRADING_INTERVAL", c.Trading.Interval)
	c.Trading.InitialBalance = getEnvFloat("INITIAL_BALANCE", c.Trading.InitialBalance)
	c.Trading.CycleInterval = getEnvDuration("CYCLE_INTERVAL", c.Trading.CycleInterval)

	c.Exchange.Name = getEnv("EXCHANGE_NAME", c.Exchange.Name)
	c.Exchange.APIKey = getEnv("EXCHANGE_API_KEY", c.Exchange.APIKey)
	c.Exchange.Secret = getEnv("EXCHANGE_SECRET", c.Exchange.Secret)
	c.Exchange.Category = getEnv("EXCHANGE_CATEGORY", c.Exchange.Category)
	c.Exchange.Testnet = getEnvBool("EXCHANGE_TESTNET", c.Exchange.Testnet)
	c.Exchange.Demo = getEnvBool("EXCHANGE_DEMO", c.Exchange.Demo)

	c.Risk.MaxPositionSize = getEnvFloat("MAX_POSITION_SIZE", c.Risk.MaxPositionSize)
	c.Risk.MaxPortfolioRiskFraction = getEnvFloat("MAX_PORTFOLIO_RISK_FRACTION", c.Risk.MaxPortfolioRiskFraction)
	c.Risk.MaxDrawdownFraction = getEnvFloat("MAX_DRAWDOWN_FRACTION", c.Risk.MaxDrawdownFraction)
	c.Risk.MaxTradesPerPeriod = getEnvInt("MAX_TRADES_PER_PERIOD", c.Risk.MaxTradesPerPeriod)

	c.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", c.Notifications.TelegramToken)
	c.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.Notifications.TelegramChatID)

	c.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", c.Monitoring.PrometheusPort)
	c.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", c.Monitoring.HealthPort)
}

// Validate rejects configurations the decision core cannot run with.
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("at least one trading symbol is required")
	}
	if c.Trading.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be positive, got %f", c.Trading.InitialBalance)
	}
	if c.Risk.MaxPositionSize <= 0 {
		return fmt.Errorf("max position size must be positive, got %f", c.Risk.MaxPositionSize)
	}
	if c.Risk.MaxDrawdownFraction <= 0 || c.Risk.MaxDrawdownFraction >= 1 {
		return fmt.Errorf("max drawdown fraction must be in (0,1), got %f", c.Risk.MaxDrawdownFraction)
	}
	if c.Risk.MaxPortfolioRiskFraction <= 0 {
		return fmt.Errorf("max portfolio risk fraction must be positive, got %f", c.Risk.MaxPortfolioRiskFraction)
	}
	total := 0.0
	for _, w := range c.StrategyWeights {
		if w < 0 {
			return fmt.Errorf("strategy weights must be non-negative")
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("at least one strategy weight must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(val)
		if err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		parsed, err := time.ParseDuration(val)
		if err == nil {
			return parsed
		}
	}
	return defaultVal
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
