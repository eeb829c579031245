package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vitos/cryptomaniac/internal/domain"
)

type Config struct {
	CoinGecko struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"coingecko"`
	Dashboard struct {
		Currency        string        `yaml:"currency"`
		PollInterval    time.Duration `yaml:"poll_interval"`
		SearchDebounce  time.Duration `yaml:"search_debounce"`
		SearchMinLength int           `yaml:"search_min_length"`
		SearchLimit     int           `yaml:"search_limit"`
		ChartDays       string        `yaml:"chart_days"`
	} `yaml:"dashboard"`
	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	cfg.CoinGecko.Timeout = 10 * time.Second
	cfg.Dashboard.Currency = "usd"
	cfg.Dashboard.PollInterval = 30 * time.Second
	cfg.Dashboard.SearchDebounce = 300 * time.Millisecond
	cfg.Dashboard.SearchMinLength = 2
	cfg.Dashboard.SearchLimit = 10
	cfg.Dashboard.ChartDays = domain.DefaultChartDays
	cfg.Logging.Level = "info"
	cfg.Logging.Encoding = "json"
	cfg.Server.Port = 8080
	return &cfg
}

// Load reads the yaml file at path over the defaults, then applies the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding what is already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.CoinGecko.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DASHBOARD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DASHBOARD_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Dashboard.PollInterval <= 0 {
		return fmt.Errorf("dashboard.poll_interval must be positive, got %s", c.Dashboard.PollInterval)
	}
	code, err := domain.NormalizeCurrency(c.Dashboard.Currency)
	if err != nil {
		return fmt.Errorf("dashboard.currency: %w", err)
	}
	c.Dashboard.Currency = code
	if !domain.ValidTimeRange(c.Dashboard.ChartDays) {
		return fmt.Errorf("dashboard.chart_days: unsupported range %q", c.Dashboard.ChartDays)
	}
	if c.Dashboard.SearchLimit < 0 {
		return fmt.Errorf("dashboard.search_limit must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
