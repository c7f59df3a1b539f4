package service

import (
	"context"
	"fmt"
	"time"

	"loyalty-ledger-backend/internal/cache"
	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"
	"loyalty-ledger-backend/internal/utils"
)

// SweepReport summarizes one expiry run.
type SweepReport struct {
	Scanned       int   `json:"scanned"`
	Expired       int   `json:"expired"`
	Skipped       int   `json:"skipped"`
	Failed        int   `json:"failed"`
	ExpiredAmount int64 `json:"expired_amount"`
}

type expiryService struct {
	store    repository.Store
	balances cache.BalanceCache
	settings
}

func NewExpiryService(store repository.Store, balances cache.BalanceCache, opts ...Option) ExpiryService {
	if balances == nil {
		balances = cache.Nop{}
	}
	return &expiryService{store: store, balances: balances, settings: newSettings(opts)}
}

// SweepExpired closes every earn lot whose expiry has passed. Each lot is
// expired in its own unit of work; a failed lot is left open for the next run.
func (s *expiryService) SweepExpired(ctx context.Context) (*SweepReport, error) {
	logger.EnterMethod("expiryService.SweepExpired", "batchSize", s.batchSize)
	started := time.Now()
	asOf := s.now()
	report := &SweepReport{}

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			logger.ExitMethodWithError("expiryService.SweepExpired", err, "scanned", report.Scanned)
			return report, err
		}
		batch, err := s.store.Ledger().ListExpiredEarns(ctx, asOf, afterID, s.batchSize)
		if err != nil {
			logger.ExitMethodWithError("expiryService.SweepExpired", err, "scanned", report.Scanned)
			return report, err
		}
		for i := range batch {
			e := &batch[i]
			afterID = e.ID
			report.Scanned++

			amount, closed, err := s.expireLot(ctx, e)
			switch {
			case err != nil:
				report.Failed++
				s.observeFailure(ctx, "expire", err)
				logger.Error("Failed to expire ledger entry", "entryID", e.ID, "userID", e.UserID,
					"restaurantID", e.RestaurantID, "error", err)
			case !closed:
				report.Skipped++
			default:
				report.Expired++
				report.ExpiredAmount += amount
			}
		}
		if len(batch) < s.batchSize {
			break
		}
	}

	s.metrics.ObserveSweep(report.ExpiredAmount, report.Failed, time.Since(started))
	logger.Info("Expiry sweep finished", "scanned", report.Scanned, "expired", report.Expired,
		"skipped", report.Skipped, "failed", report.Failed, "expiredAmount", report.ExpiredAmount)
	logger.ExitMethod("expiryService.SweepExpired")
	return report, nil
}

// expireLot posts the expire entry of one earn lot. It reports false when
// the lot was closed by someone else in the meantime.
func (s *expiryService) expireLot(ctx context.Context, lot *domain.LedgerEntry) (int64, bool, error) {
	key := lot.Wallet()
	var amount int64
	closed := false
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockWallets(ctx, []domain.WalletKey{key}); err != nil {
			return err
		}
		open, err := tx.Ledger().ListOpenEarns(ctx, key.UserID, key.RestaurantID)
		if err != nil {
			return err
		}
		// Spending is attributed to the earliest-expiring lots first, so the
		// part of this lot still unspent is whatever the balance holds beyond
		// the lots expiring after it.
		found := false
		var later int64
		for i := range open {
			if open[i].ID == lot.ID {
				found = true
				continue
			}
			if found {
				later += open[i].Amount
			}
		}
		if !found {
			return nil
		}

		bal, err := tx.Ledger().GetBalance(ctx, key.UserID, key.RestaurantID)
		if err != nil {
			return err
		}
		remainder := bal.Available() - later
		if remainder < 0 {
			remainder = 0
		}
		amount = utils.MinInt64(lot.Amount, remainder)

		source := lot.ID
		entry := &domain.LedgerEntry{
			UserID:               key.UserID,
			RestaurantID:         key.RestaurantID,
			Type:                 domain.LedgerEntryTypeExpire,
			Amount:               amount,
			RelatedTransactionID: lot.RelatedTransactionID,
			SourceLedgerEntryID:  &source,
			Description:          fmt.Sprintf("expired %d of %d earned by entry %d", amount, lot.Amount, lot.ID),
			CreatedAt:            s.now(),
		}
		if err := tx.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{entry}); err != nil {
			return err
		}
		closed = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	if closed {
		s.balances.Invalidate(ctx, key)
	}
	return amount, closed, nil
}
