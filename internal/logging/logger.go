package logging

import (
	"io"
	"net/url"
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/directadmin/internal/config"
)

// NewLogger creates a structured JSON zerolog.Logger on stdout with context
// fields from the config. Non-empty fields are added automatically.
func NewLogger(cfg *config.Config, service string) zerolog.Logger {
	return newLogger(os.Stdout, cfg, service)
}

// NewConsoleLogger creates a human-readable logger on stderr for interactive
// commands, leaving stdout to command output.
func NewConsoleLogger(cfg *config.Config) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return newLogger(w, cfg, "")
}

func newLogger(w io.Writer, cfg *config.Config, service string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()

	if service != "" {
		ctx = ctx.Str("service", service)
	}
	if host := serverHost(cfg.URL); host != "" {
		ctx = ctx.Str("server", host)
	}
	if cfg.Username != "" {
		ctx = ctx.Str("user", cfg.Username)
	}
	if cfg.LoginAs != "" {
		ctx = ctx.Str("login_as", cfg.LoginAs)
	}
	if cfg.Profile != "" {
		ctx = ctx.Str("profile", cfg.Profile)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}

func serverHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
