// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the ledger engine.
type Config struct {
	DatabaseURL  string
	LogLevel     string
	MainCurrency string

	// Rate ingestion.
	RateAPIBaseURL      string
	RateRefreshInterval time.Duration

	// Report recompute workers.
	ReportWorkerCount int
	ReportQueueSize   int

	// Duplicate-report cleanup safety net.
	DedupInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		MainCurrency:   os.Getenv("MAIN_CURRENCY"),
		RateAPIBaseURL: os.Getenv("RATE_API_BASE_URL"),
	}

	if cfg.MainCurrency == "" {
		cfg.MainCurrency = "USD"
	}

	cfg.RateRefreshInterval = hoursFromEnv("RATE_REFRESH_HOURS", 6)
	cfg.DedupInterval = hoursFromEnv("DEDUP_INTERVAL_HOURS", 24)

	cfg.ReportWorkerCount = intFromEnv("REPORT_WORKER_COUNT", 2)
	cfg.ReportQueueSize = intFromEnv("REPORT_QUEUE_SIZE", 64)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.ReportWorkerCount < 1 {
		errs = append(errs, "REPORT_WORKER_COUNT must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func intFromEnv(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func hoursFromEnv(key string, fallback int) time.Duration {
	return time.Duration(intFromEnv(key, fallback)) * time.Hour
}
