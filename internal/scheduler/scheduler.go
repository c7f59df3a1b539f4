package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"loyalty-ledger-backend/internal/jobs"
	"loyalty-ledger-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner.
// An invalid cron spec in the configuration is returned as an error.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	specs := []struct {
		name string
		spec string
		run  func() error
	}{
		{jobs.JobExpireVirtualCurrency, cfg.ExpireVirtualCurrency, s.jobs.ExpireVirtualCurrency},
		{jobs.JobReconcileWalletBalances, cfg.ReconcileWalletBalances, s.jobs.ReconcileWalletBalances},
	}
	for _, j := range specs {
		run := j.run
		if _, err := s.cron.AddFunc(j.spec, func() { _ = run() }); err != nil {
			logger.Error("Failed to register job", "job", j.name, "spec", j.spec, "error", err)
			return fmt.Errorf("register %s: %w", j.name, err)
		}
		logger.Debug("Registered job", "job", j.name, "spec", j.spec)
	}

	logger.Info("All cron jobs registered successfully", "count", len(specs))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
