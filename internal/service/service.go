package service

import (
	"context"
	"time"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/metrics"
)

type CheckoutService interface {
	ProcessCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error)
	VoidTransaction(ctx context.Context, req *domain.VoidRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.TransactionDetail, error)
	GetTransactionHistory(ctx context.Context, customerID, restaurantID int32, page, pageSize int32) ([]domain.Transaction, int32, error)
}

type LedgerService interface {
	AppendEntries(ctx context.Context, entries []*domain.LedgerEntry) error
	GetBalance(ctx context.Context, userID, restaurantID int32) (*domain.WalletBalance, error)
	GetLedgerEntries(ctx context.Context, userID, restaurantID int32, page, pageSize int32) ([]domain.LedgerEntry, int32, error)
	AdjustBalance(ctx context.Context, req *domain.AdjustRequest) (*domain.LedgerEntry, error)
	ReconcileWallets(ctx context.Context) ([]domain.WalletDrift, error)
}

type ReferralService interface {
	ValidateCode(ctx context.Context, customerID, restaurantID int32, code string) (*domain.CodeValidation, error)
	SaveReferralCode(ctx context.Context, customerID, restaurantID int32, code string) (*domain.PendingReferral, error)
	GetUplineChain(ctx context.Context, customerID, restaurantID int32) ([]domain.UplineLink, error)
}

type ExpiryService interface {
	SweepExpired(ctx context.Context) (*SweepReport, error)
}

type RestaurantService interface {
	GetRewardConfig(ctx context.Context, restaurantID int32) (*domain.RewardConfig, error)
	SetRewardConfig(ctx context.Context, cfg *domain.RewardConfig) error
}

type ReceiptService interface {
	GetUploadUrl(ctx context.Context, restaurantID int32, filename, contentType string) (*ReceiptUpload, error)
	ReceiptExists(ctx context.Context, ref string) (bool, error)
}

// Option customizes a service.
type Option func(*settings)

type settings struct {
	now         func() time.Time
	metrics     *metrics.LedgerMetrics
	maxPageSize int32
	batchSize   int
}

const defaultPageSize = 20

func newSettings(opts []Option) settings {
	s := settings{now: time.Now, maxPageSize: 100, batchSize: 500}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithMetrics records operation metrics. Without it nothing is recorded.
func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithMaxPageSize caps the page size of list operations.
func WithMaxPageSize(n int32) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxPageSize = n
		}
	}
}

// WithBatchSize sets how many expired entries the sweeper loads per query.
func WithBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func (s settings) pageBounds(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return page, pageSize
}
