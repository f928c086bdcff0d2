// Package config loads the saturn YAML configuration file and applies
// environment variable overrides.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"saturn/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the saturn platform.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Ollama   Ollama         `yaml:"ollama"`
	Logging  Logging        `yaml:"logging"`
	News     NewsConfig     `yaml:"news"`
	Backtest BacktestConfig `yaml:"backtest"`
	Strategy StrategyConfig `yaml:"strategy"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds the HTTP API listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca APIs.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Ollama configures the local LLM used for sentiment scoring.
type Ollama struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewsConfig controls news fetching for the sentiment pipeline.
type NewsConfig struct {
	MaxPerDay       int `yaml:"max_per_day"`       // articles per symbol per day
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
}

// BacktestConfig defines the run parameters of a backtest.
type BacktestConfig struct {
	Symbol         string  `yaml:"symbol"`
	StartDate      string  `yaml:"start_date"`
	EndDate        string  `yaml:"end_date"`
	InitialCash    float64 `yaml:"initial_cash"`
	CommissionRate float64 `yaml:"commission_rate"`
}

// StrategyConfig selects the decision rule and its numeric parameters.
// Zero-valued fields fall back to the defaults in strategy.DefaultParams.
type StrategyConfig struct {
	Name          string  `yaml:"name"` // technical | sentiment-basic | sentiment-advanced
	FastMA        int     `yaml:"fast_ma"`
	SlowMA        int     `yaml:"slow_ma"`
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	BollWindow    int     `yaml:"bollinger_window"`
	BollDev       float64 `yaml:"bollinger_dev"`
	EMAWindow     int     `yaml:"ema_window"`
	MACDFast      int     `yaml:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal"`
	StochK        int     `yaml:"stochastic_k"`
	StochD        int     `yaml:"stochastic_d"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it, and
// applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars take highest priority; the SDK uses these names.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the run-affecting parts of the configuration. Fatal
// problems are reported as *domain.InvalidConfigurationError.
func (c *Config) Validate() error {
	if c.Backtest.InitialCash <= 0 {
		return &domain.InvalidConfigurationError{Field: "backtest.initial_cash", Reason: "must be positive"}
	}
	if c.Backtest.CommissionRate < 0 {
		return &domain.InvalidConfigurationError{Field: "backtest.commission_rate", Reason: "must not be negative"}
	}
	if strings.TrimSpace(c.Backtest.Symbol) == "" {
		return &domain.InvalidConfigurationError{Field: "backtest.symbol", Reason: "must be set"}
	}

	periods := map[string]int{
		"strategy.fast_ma":          c.Strategy.FastMA,
		"strategy.slow_ma":          c.Strategy.SlowMA,
		"strategy.rsi_period":       c.Strategy.RSIPeriod,
		"strategy.bollinger_window": c.Strategy.BollWindow,
		"strategy.ema_window":       c.Strategy.EMAWindow,
		"strategy.macd_fast":        c.Strategy.MACDFast,
		"strategy.macd_slow":        c.Strategy.MACDSlow,
		"strategy.macd_signal":      c.Strategy.MACDSignal,
		"strategy.stochastic_k":     c.Strategy.StochK,
		"strategy.stochastic_d":     c.Strategy.StochD,
	}
	for field, p := range periods {
		if p < 0 {
			return &domain.InvalidConfigurationError{Field: field, Reason: "period must not be negative"}
		}
	}
	return nil
}
