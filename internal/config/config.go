package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PortfolioSentinel/internal/model"
)

// Data sources understood by the collector.
const (
	SourceYahoo    = "yahoo"
	SourceRapidAPI = "rapidapi"
	SourceMock     = "mock"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Name      string   `yaml:"name"` // yahoo, rapidapi or mock
		BaseURL   string   `yaml:"base_url"`
		APIKey    string   `yaml:"api_key"`
		Symbols   []string `yaml:"symbols"`
		Interval  string   `yaml:"interval"`
		Range     string   `yaml:"range"`
		RateLimit int      `yaml:"rate_limit"`
	} `yaml:"data_source"`
	Schedule struct {
		IngestCron string `yaml:"ingest_cron"`
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Prediction struct {
		LookbackDays  int     `yaml:"lookback_days"`
		MinSamples    int     `yaml:"min_samples"`
		TestFraction  float64 `yaml:"test_fraction"`
		Seed          uint64  `yaml:"seed"`
		IncludeFuture bool    `yaml:"include_future"`
	} `yaml:"prediction"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"` // empty disables the metrics endpoint
	} `yaml:"metrics"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// EnvFile is read into the environment by Load when present. Variables that
// are already set are not overridden.
var EnvFile = ".env"

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(EnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", EnvFile, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.DataSource.Name = v
	}
	if v := os.Getenv("RAPIDAPI_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.DataSource.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_INGEST"); v != "" {
		c.Schedule.IngestCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}

func (c *Config) applyDefaults() {
	c.DataSource.Name = strings.ToLower(strings.TrimSpace(c.DataSource.Name))
	if c.DataSource.Name == "" {
		c.DataSource.Name = SourceYahoo
	}
	for i, s := range c.DataSource.Symbols {
		c.DataSource.Symbols[i] = model.NormalizeSymbol(s)
	}
	if len(c.DataSource.Symbols) == 0 {
		c.DataSource.Symbols = []string{"SPX500"}
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "1d"
	}
	if c.DataSource.Range == "" {
		c.DataSource.Range = "1mo"
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 2
	}
	if c.Schedule.IngestCron == "" {
		c.Schedule.IngestCron = "0 0 22 * * 1-5"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 30 22 * * 1-5"
	}
	if c.Prediction.LookbackDays == 0 {
		c.Prediction.LookbackDays = 30
	}
	if c.Prediction.MinSamples == 0 {
		c.Prediction.MinSamples = 5
	}
	if c.Prediction.TestFraction == 0 {
		c.Prediction.TestFraction = 0.35
	}
	if c.Prediction.Seed == 0 {
		c.Prediction.Seed = 42
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/portfolio_sentinel.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = model.NormalizeSymbol(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	switch c.DataSource.Name {
	case SourceYahoo, SourceMock:
	case SourceRapidAPI:
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for %s", SourceRapidAPI)
		}
	default:
		return fmt.Errorf("unknown data_source.name %q", c.DataSource.Name)
	}
	if c.Prediction.LookbackDays < 0 {
		return fmt.Errorf("prediction.lookback_days must not be negative")
	}
	if c.Prediction.TestFraction <= 0 || c.Prediction.TestFraction >= 1 {
		return fmt.Errorf("prediction.test_fraction must be in (0, 1)")
	}
	if c.DataSource.RateLimit < 0 {
		return fmt.Errorf("data_source.rate_limit must not be negative")
	}
	return nil
}

// ValidateTelegram checks the settings needed to run the bot.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
