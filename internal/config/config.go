package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Server struct {
	Port            string `json:"port" env:"PORT"`
	Host            string `json:"host" env:"HOST"`
	StaticDir       string `json:"static_dir" env:"STATIC_DIR"`
	DebugAPI        bool   `json:"debug_api" env:"DEBUG_API"`
	ReadTimeoutSec  int    `json:"read_timeout_sec" env:"SERVER_READ_TIMEOUT_SEC"`
	WriteTimeoutSec int    `json:"write_timeout_sec" env:"SERVER_WRITE_TIMEOUT_SEC"`
	Version         string `json:"-"`
}

// Addr is the listen address; an empty host binds all interfaces.
func (s Server) Addr() string { return s.Host + ":" + s.Port }

type Upstream struct {
	URL        string `json:"url" env:"UPSTREAM_URL"`
	TimeoutSec int    `json:"timeout_sec" env:"UPSTREAM_TIMEOUT_SEC"`
	UserAgent  string `json:"user_agent" env:"UPSTREAM_USER_AGENT"`
	// Headers are sent with every upstream request, e.g. an API key.
	// In the environment: UPSTREAM_HEADERS="X-Api-Key:abc,Accept-Language:cs".
	Headers map[string]string `json:"headers" env:"UPSTREAM_HEADERS"`
}

func (u Upstream) Timeout() time.Duration { return time.Duration(u.TimeoutSec) * time.Second }

type Prices struct {
	// Timezone decides which calendar day "today" is.
	Timezone string `json:"timezone" env:"PRICES_TIMEZONE"`
}

// Location loads the configured zone.
func (p Prices) Location() (*time.Location, error) {
	return time.LoadLocation(p.Timezone)
}

type Log struct {
	Level      string `json:"level" env:"LOG_LEVEL"`
	File       string `json:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `json:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
}

type Metrics struct {
	Enabled bool `json:"enabled" env:"METRICS_ENABLED"`
}

type Config struct {
	Server   Server   `json:"server"`
	Upstream Upstream `json:"upstream"`
	Prices   Prices   `json:"prices"`
	Log      Log      `json:"log"`
	Metrics  Metrics  `json:"metrics"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:            "3000",
			StaticDir:       ".",
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
			Version:         "1.0.0",
		},
		Upstream: Upstream{
			URL:        "https://spotovaelektrina.cz/api/v1/price/get-prices-json",
			TimeoutSec: 15,
			UserAgent:  "spot-prices/1.0",
		},
		Prices: Prices{Timezone: "Europe/Prague"},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Metrics: Metrics{Enabled: true},
	}
}

// Load reads JSON config from path. If path is empty, ./config.json is used
// when present; a missing file means defaults. A .env file in the working
// directory is loaded into the environment, then environment variables
// override file values. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}
	if c.Upstream.TimeoutSec <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %d", c.Upstream.TimeoutSec)
	}
	u, err := url.Parse(c.Upstream.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream url %q", c.Upstream.URL)
	}
	if _, err := c.Prices.Location(); err != nil {
		return fmt.Errorf("invalid prices timezone %q: %w", c.Prices.Timezone, err)
	}
	return nil
}
