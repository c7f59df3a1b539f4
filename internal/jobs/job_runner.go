package jobs

import (
	"context"
	"fmt"
	"time"

	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/metrics"
	"loyalty-ledger-backend/internal/service"
)

const (
	JobExpireVirtualCurrency   = "expire-virtual-currency"
	JobReconcileWalletBalances = "reconcile-wallets"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	metrics  *metrics.LedgerMetrics
	timeout  time.Duration
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Expiry service.ExpiryService
	Ledger service.LedgerService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config, m *metrics.LedgerMetrics) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		metrics:  m,
		timeout:  30 * time.Minute,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		jr.metrics.ObserveJobRun(jobName, err)
	}()

	logger.Info("Starting job", "job", jobName)
	started := time.Now()
	if err = jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "took", time.Since(started))
		return err
	}
	logger.Info("Job completed", "job", jobName, "took", time.Since(started))
	return nil
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() error {
	if err := jr.ExpireVirtualCurrency(); err != nil {
		return err
	}
	return jr.ReconcileWalletBalances()
}

// Run executes a job by name.
func (jr *JobRunner) Run(name string) error {
	switch name {
	case JobExpireVirtualCurrency:
		return jr.ExpireVirtualCurrency()
	case JobReconcileWalletBalances:
		return jr.ReconcileWalletBalances()
	case "all":
		return jr.RunAll()
	}
	return fmt.Errorf("unknown job %q", name)
}
