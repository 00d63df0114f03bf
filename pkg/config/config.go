// Package config loads picobot settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const DefaultAPIRoot = "https://api.telegram.org"

type Config struct {
	Token            string        `env:"PICOBOT_TOKEN"`
	APIRoot          string        `env:"PICOBOT_API_ROOT" envDefault:"https://api.telegram.org"`
	Transport        string        `env:"PICOBOT_TRANSPORT" envDefault:"nethttp"`
	Timeout          time.Duration `env:"PICOBOT_TIMEOUT" envDefault:"60s"`
	ChunkSize        int           `env:"PICOBOT_CHUNK_SIZE" envDefault:"65536"`
	LogLevel         string        `env:"PICOBOT_LOG_LEVEL" envDefault:"info"`
	MetricsDir       string        `env:"PICOBOT_METRICS_DIR"`
	ProgressInterval time.Duration `env:"PICOBOT_PROGRESS_INTERVAL" envDefault:"1500ms"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return finish(&cfg)
}

// LoadFrom reads the configuration from vars instead of the process
// environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.APIRoot = strings.TrimRight(cfg.APIRoot, "/")
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be fixed up silently. A missing
// token is not an error here; the client reports it when it is created.
func (c *Config) Validate() error {
	var errs []error
	switch c.Transport {
	case "nethttp", "resty", "fasthttp":
	default:
		errs = append(errs, fmt.Errorf("transport %q: want nethttp, resty or fasthttp", c.Transport))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if !strings.HasPrefix(c.APIRoot, "http://") && !strings.HasPrefix(c.APIRoot, "https://") {
		errs = append(errs, fmt.Errorf("api root %q is not an http(s) URL", c.APIRoot))
	}
	return errors.Join(errs...)
}

// MaskedToken returns the token with all but the bot id hidden, for logs.
func (c *Config) MaskedToken() string {
	id, _, ok := strings.Cut(c.Token, ":")
	if !ok {
		if c.Token == "" {
			return ""
		}
		return "***"
	}
	return id + ":***"
}
