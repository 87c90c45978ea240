package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Series struct {
		File     string `yaml:"file"`
		TailRows int    `yaml:"tail_rows"`
	} `yaml:"series"`
	TWSE struct {
		URL             string        `yaml:"url"`
		RequestInterval time.Duration `yaml:"request_interval"`
	} `yaml:"twse"`
	Yahoo struct {
		Symbol string `yaml:"symbol"`
	} `yaml:"yahoo"`
	Timezone string        `yaml:"timezone"`
	Timeout  time.Duration `yaml:"timeout"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SERIES_FILE"); v != "" {
		cfg.Series.File = v
	}
	if v := os.Getenv("TWSE_URL"); v != "" {
		cfg.TWSE.URL = v
	}
	if v := os.Getenv("TWSE_REQUEST_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TWSE_REQUEST_INTERVAL: %w", err)
		}
		cfg.TWSE.RequestInterval = d
	}
	if v := os.Getenv("YAHOO_SYMBOL"); v != "" {
		cfg.Yahoo.Symbol = v
	}
	if v := os.Getenv("TZ_NAME"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("TAIL_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TAIL_ROWS: %w", err)
		}
		cfg.Series.TailRows = n
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("UPDATE_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Series.File == "" {
		cfg.Series.File = "twii_data_from_2000_01_01.csv"
	}
	if cfg.Series.TailRows == 0 {
		cfg.Series.TailRows = 5
	}
	if cfg.TWSE.URL == "" {
		cfg.TWSE.URL = "https://www.twse.com.tw/exchangeReport/FMTQIK"
	}
	if cfg.TWSE.RequestInterval == 0 {
		cfg.TWSE.RequestInterval = time.Second
	}
	if cfg.Yahoo.Symbol == "" {
		cfg.Yahoo.Symbol = "^TWII"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Taipei"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Series.File == "" {
		return fmt.Errorf("series.file is required")
	}
	if c.Series.TailRows < 0 {
		return fmt.Errorf("series.tail_rows must not be negative")
	}
	if c.TWSE.RequestInterval <= 0 {
		return fmt.Errorf("twse.request_interval must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Location returns the configured exchange timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
