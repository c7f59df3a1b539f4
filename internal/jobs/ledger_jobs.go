package jobs

import (
	"context"
	"fmt"

	"loyalty-ledger-backend/internal/logger"
)

// ExpireVirtualCurrency closes earn lots whose expiry has passed
func (jr *JobRunner) ExpireVirtualCurrency() error {
	return jr.runWithRecovery(JobExpireVirtualCurrency, func(ctx context.Context) error {
		report, err := jr.services.Expiry.SweepExpired(ctx)
		if err != nil {
			return fmt.Errorf("expiry sweep: %w", err)
		}
		if report.Failed > 0 {
			logger.Warn("Some ledger entries could not be expired and will be retried",
				"failed", report.Failed, "expired", report.Expired)
		}
		return nil
	})
}

// ReconcileWalletBalances compares every projected wallet with its ledger
func (jr *JobRunner) ReconcileWalletBalances() error {
	return jr.runWithRecovery(JobReconcileWalletBalances, func(ctx context.Context) error {
		drift, err := jr.services.Ledger.ReconcileWallets(ctx)
		if err != nil {
			return fmt.Errorf("wallet reconciliation: %w", err)
		}
		if len(drift) > 0 {
			logger.Error("Wallet projections drifted from the ledger", "wallets", len(drift))
		}
		return nil
	})
}
