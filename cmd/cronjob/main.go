package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"loyalty-ledger-backend/internal/app"
	"loyalty-ledger-backend/internal/cache"
	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/jobs"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/metrics"
	"loyalty-ledger-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit ('expire-virtual-currency', 'reconcile-wallets', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	logger.Info("Starting loyalty cronjob runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()
	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err)
		log.Fatalf("Failed to open ledger store: %v", err)
	}
	defer closeStore()

	rdb := cache.InitRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	var m *metrics.LedgerMetrics
	if cfg.Metrics.Enabled {
		m = metrics.Ledger()
	}
	svcs := app.NewServices(cfg, store, cache.New(rdb, cfg.BalanceCacheTTL()), nil, m)

	jobRunner := jobs.NewJobRunner(&jobs.Services{Expiry: svcs.Expiry, Ledger: svcs.Ledger}, cfg, m)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := jobRunner.Run(*runOnce); err != nil {
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			fmt.Printf("Available jobs:\n")
			fmt.Printf("  - %s\n", jobs.JobExpireVirtualCurrency)
			fmt.Printf("  - %s\n", jobs.JobReconcileWalletBalances)
			fmt.Printf("  - all\n")
			closeStore()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}
