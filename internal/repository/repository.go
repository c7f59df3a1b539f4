package repository

import (
	"context"
	"sort"
	"time"

	"loyalty-ledger-backend/internal/domain"
)

// Lookups of reference entities (users, restaurants, branches, staff,
// transactions, ledger entries) return an error wrapping domain.ErrNotFound
// when the row is missing. Lookups whose absence is meaningful (edges,
// pending codes, visit history) return nil without error.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
}

type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *domain.Restaurant) error
	GetByID(ctx context.Context, id int32) (*domain.Restaurant, error)
	CreateBranch(ctx context.Context, branch *domain.Branch) error
	GetBranch(ctx context.Context, id int32) (*domain.Branch, error)
	CreateStaff(ctx context.Context, staff *domain.Staff) error
	GetStaff(ctx context.Context, id int32) (*domain.Staff, error)
	GetRewardConfig(ctx context.Context, restaurantID int32) (*domain.RewardConfig, error)
	UpsertRewardConfig(ctx context.Context, cfg *domain.RewardConfig) error
}

type ReferralRepository interface {
	// GetEdge returns the direct upline edge of a customer at a restaurant.
	GetEdge(ctx context.Context, downlineUserID, restaurantID int32) (*domain.ReferralEdge, error)
	// CreateEdge inserts a level-1 edge. It reports false when the customer
	// already had an edge at the restaurant; existing edges are never changed.
	CreateEdge(ctx context.Context, edge *domain.ReferralEdge) (bool, error)
	GetPending(ctx context.Context, customerID, restaurantID int32) (*domain.PendingReferral, error)
	// SavePending fails with domain.ErrAlreadyReferred when a code is already saved.
	SavePending(ctx context.Context, pending *domain.PendingReferral) error
	ResolvePending(ctx context.Context, customerID, restaurantID int32, status domain.PendingReferralStatus, reason string, at time.Time) error
}

type LedgerRepository interface {
	// AppendEntries assigns ids, writes the entries and folds them into the
	// wallet projections. Callers inside a Tx must hold the wallet locks.
	AppendEntries(ctx context.Context, entries []*domain.LedgerEntry) error
	// GetBalance returns the projected balance; unknown wallets are empty.
	GetBalance(ctx context.Context, userID, restaurantID int32) (*domain.WalletBalance, error)
	GetEntry(ctx context.Context, id int64) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, userID, restaurantID int32, page, pageSize int32) ([]domain.LedgerEntry, int32, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)
	// ListOpenEarns returns the wallet's earn entries without an offset,
	// ordered by expiry then id.
	ListOpenEarns(ctx context.Context, userID, restaurantID int32) ([]domain.LedgerEntry, error)
	// ListExpiredEarns returns open earn entries with expires_at <= asOf and
	// id > afterID, ordered by id.
	ListExpiredEarns(ctx context.Context, asOf time.Time, afterID int64, limit int) ([]domain.LedgerEntry, error)
	HasOffset(ctx context.Context, entryID int64) (bool, error)
	// FindDrift compares every projected wallet with the sum of its entries.
	FindDrift(ctx context.Context) ([]domain.WalletDrift, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	MarkVoided(ctx context.Context, id, reason string, voidedBy int32, at time.Time) error
	ListByCustomer(ctx context.Context, customerID, restaurantID int32, page, pageSize int32) ([]domain.Transaction, int32, error)
}

type HistoryRepository interface {
	Get(ctx context.Context, customerID, restaurantID int32) (*domain.CustomerRestaurantHistory, error)
	RecordVisit(ctx context.Context, customerID, restaurantID int32, amount int64, at time.Time) error
	ReverseVisit(ctx context.Context, customerID, restaurantID int32, amount int64) error
}

// Repositories groups the repositories of one backend.
type Repositories interface {
	Users() UserRepository
	Restaurants() RestaurantRepository
	Referrals() ReferralRepository
	Ledger() LedgerRepository
	Transactions() TransactionRepository
	History() HistoryRepository
}

// Tx is a unit of work. Its writes become visible only after commit and are
// discarded entirely on failure.
type Tx interface {
	Repositories
	// LockWallets takes exclusive locks on the wallets in (user, restaurant)
	// order. A lock not granted within the configured timeout fails with
	// domain.ErrConcurrentModification.
	LockWallets(ctx context.Context, keys []domain.WalletKey) error
	// LockTransaction locks a transaction for a status change and returns it.
	LockTransaction(ctx context.Context, id string) (*domain.Transaction, error)
}

// Store is a backend. Repositories used outside WithinTx autocommit.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

// SortWalletKeys returns the distinct keys in lock order.
func SortWalletKeys(keys []domain.WalletKey) []domain.WalletKey {
	seen := make(map[domain.WalletKey]struct{}, len(keys))
	out := make([]domain.WalletKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Offset normalizes page/pageSize into a SQL offset.
func Offset(page, pageSize int32) int32 {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
