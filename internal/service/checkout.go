package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loyalty-ledger-backend/internal/cache"
	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"
	"loyalty-ledger-backend/internal/utils"
)

type checkoutService struct {
	store    repository.Store
	balances cache.BalanceCache
	receipts ReceiptService
	settings
}

// NewCheckoutService builds the checkout processor. receipts may be nil, in
// which case receipt references are stored without an existence check.
func NewCheckoutService(store repository.Store, balances cache.BalanceCache, receipts ReceiptService, opts ...Option) CheckoutService {
	if balances == nil {
		balances = cache.Nop{}
	}
	return &checkoutService{store: store, balances: balances, receipts: receipts, settings: newSettings(opts)}
}

// checkoutContext is everything loaded and validated before wallets are locked.
type checkoutContext struct {
	config      domain.RewardConfigSnapshot
	edgeCreated bool
	rewards     []domain.AttributedReward
}

func (s *checkoutService) ProcessCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	logger.EnterMethod("checkoutService.ProcessCheckout", "customerID", req.CustomerID, "restaurantID", req.RestaurantID,
		"branchID", req.BranchID, "staffID", req.StaffID, "billAmount", req.BillAmount, "requestedRedeem", req.RequestedRedeemAmount)

	if err := validateStruct(req); err != nil {
		logger.ExitMethodWithError("checkoutService.ProcessCheckout", err)
		return nil, err
	}
	req.ReceiptRef = strings.TrimSpace(req.ReceiptRef)
	if req.ReceiptRef != "" && s.receipts != nil {
		exists, err := s.receipts.ReceiptExists(ctx, req.ReceiptRef)
		if err != nil {
			logger.ExitMethodWithError("checkoutService.ProcessCheckout", err)
			return nil, err
		}
		if !exists {
			err := fmt.Errorf("%w: receipt %q", domain.ErrNotFound, req.ReceiptRef)
			logger.ExitMethodWithError("checkoutService.ProcessCheckout", err)
			return nil, err
		}
	}

	now := s.now()
	txnID := uuid.New().String()
	customerWallet := domain.WalletKey{UserID: req.CustomerID, RestaurantID: req.RestaurantID}

	var (
		result  *domain.CheckoutResult
		wallets []domain.WalletKey
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		cc, err := s.prepare(ctx, tx, req, now)
		if err != nil {
			return err
		}

		wallets = []domain.WalletKey{customerWallet}
		for _, r := range cc.rewards {
			wallets = append(wallets, domain.WalletKey{UserID: r.UplineUserID, RestaurantID: req.RestaurantID})
		}
		wallets = repository.SortWalletKeys(wallets)
		if err := tx.LockWallets(ctx, wallets); err != nil {
			return err
		}

		// A concurrent checkout may have recorded the first visit while this
		// one waited for the lock.
		hist, err := tx.History().Get(ctx, req.CustomerID, req.RestaurantID)
		if err != nil {
			return err
		}
		isFirst := hist == nil
		// Only the checkout that records the first visit owns the conversion.
		cc.edgeCreated = cc.edgeCreated && isFirst

		bal, err := tx.Ledger().GetBalance(ctx, req.CustomerID, req.RestaurantID)
		if err != nil {
			return err
		}
		pricing := utils.CalculateCheckoutPricing(utils.CheckoutPricingInput{
			BillAmount:            req.BillAmount,
			RequestedRedeemAmount: req.RequestedRedeemAmount,
			AvailableBalance:      bal.Available(),
			IsFirstTransaction:    isFirst,
			Config:                cc.config,
		})

		txn := &domain.Transaction{
			ID:                       txnID,
			CustomerID:               req.CustomerID,
			RestaurantID:             req.RestaurantID,
			BranchID:                 req.BranchID,
			StaffID:                  req.StaffID,
			BillAmount:               req.BillAmount,
			GuaranteedDiscountAmount: pricing.GuaranteedDiscount,
			RequestedRedeemAmount:    req.RequestedRedeemAmount,
			VirtualCurrencyRedeemed:  pricing.Redeemed,
			FinalAmount:              pricing.FinalAmount,
			IsFirstTransaction:       isFirst,
			Status:                   domain.TransactionStatusCompleted,
			ReceiptRef:               req.ReceiptRef,
			Notes:                    req.Notes,
			RewardConfig:             cc.config,
			CreatedAt:                now,
		}
		if err := tx.Transactions().Create(ctx, txn); err != nil {
			return err
		}

		entries := make([]*domain.LedgerEntry, 0, len(cc.rewards)+1)
		if pricing.Redeemed > 0 {
			entries = append(entries, &domain.LedgerEntry{
				UserID:               req.CustomerID,
				RestaurantID:         req.RestaurantID,
				Type:                 domain.LedgerEntryTypeRedeem,
				Amount:               pricing.Redeemed,
				RelatedTransactionID: &txnID,
				Description:          fmt.Sprintf("redeemed at checkout %s", txnID),
				CreatedAt:            now,
			})
		}
		expiresAt := now.AddDate(0, 0, int(cc.config.VCExpiryDays))
		earns := make([]*domain.LedgerEntry, len(cc.rewards))
		for i, r := range cc.rewards {
			earns[i] = &domain.LedgerEntry{
				UserID:               r.UplineUserID,
				RestaurantID:         req.RestaurantID,
				Type:                 domain.LedgerEntryTypeEarn,
				Amount:               r.Amount,
				ReferralLevel:        r.Level,
				RelatedTransactionID: &txnID,
				ExpiresAt:            &expiresAt,
				Description:          fmt.Sprintf("level %d referral reward from user %d on a %s bill", r.Level, req.CustomerID, utils.FormatCents(req.BillAmount)),
				CreatedAt:            now,
			}
			entries = append(entries, earns[i])
		}
		if len(entries) > 0 {
			if err := tx.Ledger().AppendEntries(ctx, entries); err != nil {
				return err
			}
		}
		for i := range cc.rewards {
			cc.rewards[i].LedgerEntryID = earns[i].ID
		}

		if err := tx.History().RecordVisit(ctx, req.CustomerID, req.RestaurantID, req.BillAmount, now); err != nil {
			return err
		}

		result = &domain.CheckoutResult{
			TransactionID: txnID,
			Breakdown: domain.CheckoutBreakdown{
				BillAmount:          req.BillAmount,
				GuaranteedDiscount:  pricing.GuaranteedDiscount,
				RequestedRedeem:     req.RequestedRedeemAmount,
				Redeemed:            pricing.Redeemed,
				RedemptionClamped:   pricing.RedemptionClamped,
				FinalAmount:         pricing.FinalAmount,
				IsFirstTransaction:  isFirst,
				ReferralEdgeCreated: cc.edgeCreated,
				BalanceAfter:        bal.Available() - pricing.Redeemed,
				Rewards:             cc.rewards,
			},
		}
		return nil
	})
	if err != nil {
		s.observeFailure(ctx, "checkout", err)
		s.metrics.ObserveCheckout(checkoutOutcome(err), 0, nil)
		logger.ExitMethodWithError("checkoutService.ProcessCheckout", err)
		return nil, err
	}
	s.balances.Invalidate(ctx, wallets...)

	byLevel := make(map[int32]int64, len(result.Breakdown.Rewards))
	for _, r := range result.Breakdown.Rewards {
		byLevel[r.Level] += r.Amount
	}
	s.metrics.ObserveCheckout("completed", result.Breakdown.Redeemed, byLevel)

	b := result.Breakdown
	logger.Info("Checkout processed", "transactionID", txnID, "customerID", req.CustomerID,
		"restaurantID", req.RestaurantID, "billAmount", b.BillAmount, "discount", b.GuaranteedDiscount,
		"redeemed", b.Redeemed, "clamped", b.RedemptionClamped, "finalAmount", b.FinalAmount,
		"firstVisit", b.IsFirstTransaction, "edgeCreated", b.ReferralEdgeCreated, "rewards", len(b.Rewards))
	logger.ExitMethod("checkoutService.ProcessCheckout", "transactionID", txnID)
	return result, nil
}

// prepare loads the references of a checkout, converts a pending referral
// code on a first visit and resolves the upline rewards. Nothing is locked yet.
func (s *checkoutService) prepare(ctx context.Context, tx repository.Tx, req *domain.CheckoutRequest, now time.Time) (*checkoutContext, error) {
	restaurant, err := tx.Restaurants().GetByID(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.Active {
		return nil, fmt.Errorf("%w: restaurant %d is not active", domain.ErrNotFound, req.RestaurantID)
	}
	cfg, err := tx.Restaurants().GetRewardConfig(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Users().GetByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	branch, err := tx.Restaurants().GetBranch(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}
	if branch.RestaurantID != req.RestaurantID {
		return nil, fmt.Errorf("%w: branch %d at restaurant %d", domain.ErrNotFound, req.BranchID, req.RestaurantID)
	}
	staff, err := tx.Restaurants().GetStaff(ctx, req.StaffID)
	if err != nil {
		return nil, err
	}
	if !staff.WorksAt(req.RestaurantID, req.BranchID) {
		return nil, fmt.Errorf("%w: staff %d at branch %d", domain.ErrNotFound, req.StaffID, req.BranchID)
	}

	cc := &checkoutContext{config: cfg.Snapshot()}

	hist, err := tx.History().Get(ctx, req.CustomerID, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	if hist == nil {
		cc.edgeCreated, err = convertPendingReferral(ctx, tx, req.CustomerID, req.RestaurantID, now)
		if err != nil {
			return nil, err
		}
	}

	cc.rewards, err = ResolveRewards(ctx, tx, req.RestaurantID, req.CustomerID, req.BillAmount,
		cc.config.UplineRewardPercent, cc.config.MaxUplineLevels)
	if err != nil {
		return nil, err
	}
	return cc, nil
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		return "rejected"
	}
	return "failed"
}

// VoidTransaction reverses a checkout with compensating entries. Voiding a
// voided transaction returns it unchanged.
func (s *checkoutService) VoidTransaction(ctx context.Context, req *domain.VoidRequest) (*domain.Transaction, error) {
	logger.EnterMethod("checkoutService.VoidTransaction", "transactionID", req.TransactionID, "voidedBy", req.VoidedBy)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validateStruct(req); err != nil {
		logger.ExitMethodWithError("checkoutService.VoidTransaction", err)
		return nil, err
	}

	now := s.now()
	var (
		voided  *domain.Transaction
		wallets []domain.WalletKey
		already bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		txn, err := tx.LockTransaction(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		if txn.Status == domain.TransactionStatusVoided {
			voided, already = txn, true
			return nil
		}

		entries, err := tx.Ledger().ListByTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}
		wallets = []domain.WalletKey{{UserID: txn.CustomerID, RestaurantID: txn.RestaurantID}}
		for i := range entries {
			wallets = append(wallets, entries[i].Wallet())
		}
		wallets = repository.SortWalletKeys(wallets)
		if err := tx.LockWallets(ctx, wallets); err != nil {
			return err
		}

		reversals, err := s.reversalsFor(ctx, tx, txn, entries, req, now)
		if err != nil {
			return err
		}
		if len(reversals) > 0 {
			if err := tx.Ledger().AppendEntries(ctx, reversals); err != nil {
				return err
			}
		}
		if err := tx.History().ReverseVisit(ctx, txn.CustomerID, txn.RestaurantID, txn.BillAmount); err != nil {
			return err
		}
		if err := tx.Transactions().MarkVoided(ctx, txn.ID, req.Reason, req.VoidedBy, now); err != nil {
			return err
		}

		txn.Status = domain.TransactionStatusVoided
		txn.VoidReason = req.Reason
		txn.VoidedBy = &req.VoidedBy
		txn.VoidedAt = &now
		voided = txn
		return nil
	})
	if err != nil {
		s.observeFailure(ctx, "void", err)
		logger.ExitMethodWithError("checkoutService.VoidTransaction", err)
		return nil, err
	}
	if already {
		logger.Info("Transaction already voided", "transactionID", req.TransactionID)
		logger.ExitMethod("checkoutService.VoidTransaction")
		return voided, nil
	}

	s.balances.Invalidate(ctx, wallets...)
	s.metrics.ObserveVoid()
	logger.Info("Transaction voided", "transactionID", voided.ID, "voidedBy", req.VoidedBy, "reason", req.Reason)
	logger.ExitMethod("checkoutService.VoidTransaction")
	return voided, nil
}

// reversalsFor builds the compensating entries of a void. Redemptions are
// credited back in full. Rewards are clawed back up to what the upline still
// holds; lots already expired or offset are skipped.
func (s *checkoutService) reversalsFor(ctx context.Context, tx repository.Tx, txn *domain.Transaction, entries []domain.LedgerEntry, req *domain.VoidRequest, now time.Time) ([]*domain.LedgerEntry, error) {
	available := make(map[domain.WalletKey]int64)
	availableOf := func(k domain.WalletKey) (int64, error) {
		if v, ok := available[k]; ok {
			return v, nil
		}
		bal, err := tx.Ledger().GetBalance(ctx, k.UserID, k.RestaurantID)
		if err != nil {
			return 0, err
		}
		available[k] = bal.Available()
		return available[k], nil
	}

	var out []*domain.LedgerEntry
	for i := range entries {
		e := entries[i]
		if e.Type != domain.LedgerEntryTypeRedeem && e.Type != domain.LedgerEntryTypeEarn {
			continue
		}
		offset, err := tx.Ledger().HasOffset(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		if offset {
			continue
		}

		k := e.Wallet()
		bal, err := availableOf(k)
		if err != nil {
			return nil, err
		}
		source := e.ID
		rev := &domain.LedgerEntry{
			UserID:               e.UserID,
			RestaurantID:         e.RestaurantID,
			Type:                 domain.LedgerEntryTypeAdjust,
			RelatedTransactionID: &txn.ID,
			SourceLedgerEntryID:  &source,
			CreatedAt:            now,
		}
		if e.Type == domain.LedgerEntryTypeRedeem {
			rev.Direction = domain.AdjustDirectionCredit
			rev.Amount = e.Amount
			rev.Description = fmt.Sprintf("redemption reversed by void of %s: %s", txn.ID, req.Reason)
			available[k] = bal + e.Amount
		} else {
			rev.Direction = domain.AdjustDirectionDebit
			rev.Amount = utils.MinInt64(e.Amount, bal)
			if rev.Amount < 0 {
				rev.Amount = 0
			}
			rev.Description = fmt.Sprintf("level %d reward clawed back by void of %s: %s", e.ReferralLevel, txn.ID, req.Reason)
			if rev.Amount < e.Amount {
				logger.Warn("Reward partially spent, clawback clamped",
					"transactionID", txn.ID, "uplineUserID", e.UserID, "earned", e.Amount, "clawedBack", rev.Amount)
			}
			available[k] = bal - rev.Amount
		}
		out = append(out, rev)
	}
	return out, nil
}

func (s *checkoutService) GetTransaction(ctx context.Context, id string) (*domain.TransactionDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid transaction id %q", domain.ErrValidation, id)
	}
	txn, err := s.store.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Ledger().ListByTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.TransactionDetail{Transaction: *txn, Entries: entries}, nil
}

func (s *checkoutService) GetTransactionHistory(ctx context.Context, customerID, restaurantID int32, page, pageSize int32) ([]domain.Transaction, int32, error) {
	if customerID <= 0 || restaurantID <= 0 {
		return nil, 0, fmt.Errorf("%w: customer and restaurant are required", domain.ErrValidation)
	}
	page, pageSize = s.pageBounds(page, pageSize)
	return s.store.Transactions().ListByCustomer(ctx, customerID, restaurantID, page, pageSize)
}
