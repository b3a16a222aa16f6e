// Package main is the entry point for the ledger engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/ledger-engine/internal/config"
	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/jobs"
	"gitlab.com/yelinaung/ledger-engine/internal/logger"
	"gitlab.com/yelinaung/ledger-engine/internal/rates"
	"gitlab.com/yelinaung/ledger-engine/internal/reports"
	"gitlab.com/yelinaung/ledger-engine/internal/repository"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("ledger-engine %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := database.SeedCurrencies(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed currencies")
	}

	if err := database.SeedCategories(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed categories")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	aggregator := reports.NewAggregator(pool)

	dispatcher := jobs.NewDispatcher(func(ctx context.Context, job jobs.RecomputeJob) error {
		return aggregator.RecomputeLatestForAccount(ctx, job.AccountID)
	}, cfg.ReportWorkerCount, cfg.ReportQueueSize)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	rateSource := rates.NewCachedSource(
		rates.NewDolarAPIClient(cfg.RateAPIBaseURL, 5*time.Second),
		cfg.RateRefreshInterval/2,
	)
	refresher := rates.NewRefresher(
		rateSource,
		repository.NewConversionRateRepository(pool),
		repository.NewCurrencyRepository(pool),
		nil,
	)

	go runEvery(ctx, cfg.RateRefreshInterval, func() {
		if err := refresher.RefreshAll(ctx); err != nil {
			logger.Log.Error().Err(err).Msg("Rate refresh failed")
		}
	})

	go runEvery(ctx, cfg.DedupInterval, func() {
		if _, err := aggregator.RemoveDuplicateReports(ctx); err != nil {
			logger.Log.Error().Err(err).Msg("Duplicate report cleanup failed")
		}
	})

	logger.Log.Info().
		Int("workers", cfg.ReportWorkerCount).
		Str("main_currency", cfg.MainCurrency).
		Msg("Ledger engine started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Log.Info().Msg("Shutting down...")
	cancel()
}

// runEvery runs fn immediately and then on every tick until the context
// is cancelled.
func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
