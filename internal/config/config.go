package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/text/currency"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	Currency    currency.Unit
	LogLevel    zapcore.Level

	// KafkaBrokers is empty when the outbox relay is disabled
	KafkaBrokers       []string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	ShutdownTimeout time.Duration
}

// Load reads the configuration from environment variables.
// Unset variables take defaults, malformed ones are errors.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL: env("DATABASE_URL", ""),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}

	var err error

	cfg.Currency, err = currency.ParseISO(env("CURRENCY", "USD"))
	if err != nil {
		return Config{}, fmt.Errorf("CURRENCY: currency.ParseISO: %w", err)
	}

	cfg.LogLevel, err = zapcore.ParseLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: zapcore.ParseLevel: %w", err)
	}

	cfg.KafkaBrokers = splitCSV(env("KAFKA_BROKERS", ""))

	cfg.OutboxPollInterval, err = positiveDuration("OUTBOX_POLL_INTERVAL", "1s")
	if err != nil {
		return Config{}, err
	}

	cfg.OutboxBatchSize, err = strconv.Atoi(env("OUTBOX_BATCH_SIZE", "100"))
	if err != nil {
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE: strconv.Atoi: %w", err)
	}
	if cfg.OutboxBatchSize <= 0 {
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE[%d] must be positive", cfg.OutboxBatchSize)
	}

	cfg.ShutdownTimeout, err = positiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) RelayEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func positiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(env(key, def))
	if err != nil {
		return 0, fmt.Errorf("%s: time.ParseDuration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s[%s] must be positive", key, d)
	}
	return d, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
