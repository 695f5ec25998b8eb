package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// URL is the panel base URL, e.g. https://server.example.com:2222.
	URL      string        `env:"DA_URL"`
	Username string        `env:"DA_USERNAME"`
	Password string        `env:"DA_PASSWORD"`
	LoginAs  string        `env:"DA_LOGIN_AS"`
	Timeout  time.Duration `env:"DA_TIMEOUT, default=30s"`
	Insecure bool          `env:"DA_INSECURE, default=false"`
	CACert   string        `env:"DA_CA_CERT"`

	LogLevel string `env:"LOG_LEVEL, default=info"`

	MetricsAddr       string `env:"METRICS_ADDR, default=:9222"`
	ScrapeConcurrency int    `env:"SCRAPE_CONCURRENCY, default=4"`

	// Profile is the name of the CLI profile the connection settings came
	// from, if any.
	Profile string
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the connection settings are present.
func (c *Config) Validate() error {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "DA_URL")
	}
	if c.Username == "" {
		missing = append(missing, "DA_USERNAME")
	}
	if c.Password == "" {
		missing = append(missing, "DA_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.ScrapeConcurrency < 1 {
		return fmt.Errorf("SCRAPE_CONCURRENCY must be at least 1, got %d", c.ScrapeConcurrency)
	}
	return nil
}
