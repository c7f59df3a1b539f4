package service

import (
	"context"
	"errors"
	"fmt"

	"loyalty-ledger-backend/internal/cache"
	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"
)

type ledgerService struct {
	store    repository.Store
	balances cache.BalanceCache
	settings
}

func NewLedgerService(store repository.Store, balances cache.BalanceCache, opts ...Option) LedgerService {
	if balances == nil {
		balances = cache.Nop{}
	}
	return &ledgerService{store: store, balances: balances, settings: newSettings(opts)}
}

func walletsOf(entries []*domain.LedgerEntry) []domain.WalletKey {
	keys := make([]domain.WalletKey, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Wallet())
	}
	return repository.SortWalletKeys(keys)
}

// AppendEntries writes a batch of entries atomically under the wallet locks.
func (s *ledgerService) AppendEntries(ctx context.Context, entries []*domain.LedgerEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no ledger entries", domain.ErrValidation)
	}
	wallets := walletsOf(entries)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockWallets(ctx, wallets); err != nil {
			return err
		}
		return tx.Ledger().AppendEntries(ctx, entries)
	})
	if err != nil {
		s.observeFailure(ctx, "append", err)
		return err
	}
	s.balances.Invalidate(ctx, wallets...)
	return nil
}

func (s *ledgerService) GetBalance(ctx context.Context, userID, restaurantID int32) (*domain.WalletBalance, error) {
	if userID <= 0 || restaurantID <= 0 {
		return nil, fmt.Errorf("%w: user and restaurant are required", domain.ErrValidation)
	}
	key := domain.WalletKey{UserID: userID, RestaurantID: restaurantID}
	cached, gen, hit := s.balances.Lookup(ctx, key)
	s.metrics.ObserveCacheLookup(hit)
	if hit {
		return cached, nil
	}
	bal, err := s.store.Ledger().GetBalance(ctx, userID, restaurantID)
	if err != nil {
		return nil, err
	}
	s.balances.Store(ctx, key, gen, bal)
	return bal, nil
}

func (s *ledgerService) GetLedgerEntries(ctx context.Context, userID, restaurantID int32, page, pageSize int32) ([]domain.LedgerEntry, int32, error) {
	if userID <= 0 || restaurantID <= 0 {
		return nil, 0, fmt.Errorf("%w: user and restaurant are required", domain.ErrValidation)
	}
	page, pageSize = s.pageBounds(page, pageSize)
	return s.store.Ledger().ListEntries(ctx, userID, restaurantID, page, pageSize)
}

// AdjustBalance posts a manual correction. Debits may not exceed the
// available balance.
func (s *ledgerService) AdjustBalance(ctx context.Context, req *domain.AdjustRequest) (*domain.LedgerEntry, error) {
	logger.EnterMethod("ledgerService.AdjustBalance", "userID", req.UserID, "restaurantID", req.RestaurantID, "direction", req.Direction)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	key := domain.WalletKey{UserID: req.UserID, RestaurantID: req.RestaurantID}
	entry := &domain.LedgerEntry{
		UserID:       req.UserID,
		RestaurantID: req.RestaurantID,
		Type:         domain.LedgerEntryTypeAdjust,
		Amount:       req.Amount,
		Direction:    req.Direction,
		Description:  fmt.Sprintf("manual adjustment by staff %d: %s", req.StaffID, req.Reason),
		CreatedAt:    s.now(),
	}
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Users().GetByID(ctx, req.UserID); err != nil {
			return err
		}
		if _, err := tx.Restaurants().GetByID(ctx, req.RestaurantID); err != nil {
			return err
		}
		if err := tx.LockWallets(ctx, []domain.WalletKey{key}); err != nil {
			return err
		}
		if req.Direction == domain.AdjustDirectionDebit {
			bal, err := tx.Ledger().GetBalance(ctx, req.UserID, req.RestaurantID)
			if err != nil {
				return err
			}
			if req.Amount > bal.Available() {
				return fmt.Errorf("%w: debit %d exceeds available balance %d", domain.ErrValidation, req.Amount, bal.Available())
			}
		}
		return tx.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{entry})
	})
	if err != nil {
		s.observeFailure(ctx, "adjust", err)
		logger.ExitMethodWithError("ledgerService.AdjustBalance", err)
		return nil, err
	}
	s.balances.Invalidate(ctx, key)

	logger.Info("Wallet adjusted", "userID", req.UserID, "restaurantID", req.RestaurantID,
		"direction", req.Direction, "amount", req.Amount, "staffID", req.StaffID, "entryID", entry.ID)
	logger.ExitMethod("ledgerService.AdjustBalance")
	return entry, nil
}

// ReconcileWallets compares every projected wallet with its ledger sum.
func (s *ledgerService) ReconcileWallets(ctx context.Context) ([]domain.WalletDrift, error) {
	drift, err := s.store.Ledger().FindDrift(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range drift {
		logger.Defect(ctx, "Wallet projection drifted from ledger",
			"userID", d.Wallet.UserID, "restaurantID", d.Wallet.RestaurantID,
			"projected", d.Projected, "ledger", d.Ledger)
	}
	s.metrics.SetWalletDrift(len(drift))
	logger.Info("Wallet reconciliation finished", "drifted", len(drift))
	return drift, nil
}

// observeFailure records lock conflicts and logs invariant violations as defects.
func (s settings) observeFailure(ctx context.Context, operation string, err error) {
	switch {
	case errors.Is(err, domain.ErrConcurrentModification):
		s.metrics.ObserveConflict(operation)
		logger.Warn("Wallet lock not acquired", "operation", operation, "error", err)
	case errors.Is(err, domain.ErrInvariantViolation):
		logger.Defect(ctx, "Ledger invariant violated", "operation", operation, "error", err)
	}
}
