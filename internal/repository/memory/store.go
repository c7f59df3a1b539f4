// Package memory is an in-process backend with the same locking and
// atomicity contract as the Postgres store. It backs the test suites and the
// "memory" database driver.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"
)

type pairKey struct {
	a, b int32
}

// state is the committed data. Guarded by Store.mu.
type state struct {
	users       map[int32]domain.User
	codes       map[string]int32
	restaurants map[int32]domain.Restaurant
	branches    map[int32]domain.Branch
	staff       map[int32]domain.Staff
	configs     map[int32]domain.RewardConfig
	edges       map[pairKey]domain.ReferralEdge
	pending     map[pairKey]domain.PendingReferral
	entries     []domain.LedgerEntry
	entryIdx    map[int64]int
	offsets     map[int64]int64
	wallets     map[domain.WalletKey]domain.WalletBalance
	txns        map[string]domain.Transaction
	history     map[pairKey]domain.CustomerRestaurantHistory
}

func newState() *state {
	return &state{
		users:       make(map[int32]domain.User),
		codes:       make(map[string]int32),
		restaurants: make(map[int32]domain.Restaurant),
		branches:    make(map[int32]domain.Branch),
		staff:       make(map[int32]domain.Staff),
		configs:     make(map[int32]domain.RewardConfig),
		edges:       make(map[pairKey]domain.ReferralEdge),
		pending:     make(map[pairKey]domain.PendingReferral),
		entryIdx:    make(map[int64]int),
		offsets:     make(map[int64]int64),
		wallets:     make(map[domain.WalletKey]domain.WalletBalance),
		txns:        make(map[string]domain.Transaction),
		history:     make(map[pairKey]domain.CustomerRestaurantHistory),
	}
}

type Store struct {
	mu          sync.RWMutex
	st          *state
	locks       *lockTable
	lockTimeout time.Duration
	now         func() time.Time

	entrySeq      atomic.Int64
	userSeq       atomic.Int32
	restaurantSeq atomic.Int32
	branchSeq     atomic.Int32
	staffSeq      atomic.Int32

	commitFault atomic.Pointer[error]
}

type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(lockTimeout time.Duration, opts ...Option) *Store {
	s := &Store{
		st:          newState(),
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNextCommit makes the next commit fail with err after all repository
// calls succeeded, discarding the unit of work.
func (s *Store) FailNextCommit(err error) {
	s.commitFault.Store(&err)
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	tx := s.begin(false)
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return tx.commit()
}

func (s *Store) Users() repository.UserRepository { return &userRepo{tx: s.begin(true)} }
func (s *Store) Restaurants() repository.RestaurantRepository {
	return &restaurantRepo{tx: s.begin(true)}
}
func (s *Store) Referrals() repository.ReferralRepository { return &referralRepo{tx: s.begin(true)} }
func (s *Store) Ledger() repository.LedgerRepository     { return &ledgerRepo{tx: s.begin(true)} }
func (s *Store) Transactions() repository.TransactionRepository {
	return &transactionRepo{tx: s.begin(true)}
}
func (s *Store) History() repository.HistoryRepository { return &historyRepo{tx: s.begin(true)} }

// memTx stages writes and applies them under Store.mu on commit.
type memTx struct {
	s    *Store
	auto bool
	held []string
	done bool

	users       map[int32]domain.User
	restaurants map[int32]domain.Restaurant
	branches    map[int32]domain.Branch
	staff       map[int32]domain.Staff
	configs     map[int32]domain.RewardConfig
	edges       map[pairKey]domain.ReferralEdge
	pending     map[pairKey]domain.PendingReferral
	newPending  map[pairKey]bool
	entries     []domain.LedgerEntry
	offsets     map[int64]int64
	wallets     map[domain.WalletKey]walletWrite
	txns        map[string]domain.Transaction
	history     map[pairKey]domain.CustomerRestaurantHistory
}

type walletWrite struct {
	base    int64
	balance domain.WalletBalance
}

func (s *Store) begin(auto bool) *memTx {
	return &memTx{
		s:           s,
		auto:        auto,
		users:       make(map[int32]domain.User),
		restaurants: make(map[int32]domain.Restaurant),
		branches:    make(map[int32]domain.Branch),
		staff:       make(map[int32]domain.Staff),
		configs:     make(map[int32]domain.RewardConfig),
		edges:       make(map[pairKey]domain.ReferralEdge),
		pending:     make(map[pairKey]domain.PendingReferral),
		newPending:  make(map[pairKey]bool),
		offsets:     make(map[int64]int64),
		wallets:     make(map[domain.WalletKey]walletWrite),
		txns:        make(map[string]domain.Transaction),
		history:     make(map[pairKey]domain.CustomerRestaurantHistory),
	}
}

func (tx *memTx) Users() repository.UserRepository             { return &userRepo{tx: tx} }
func (tx *memTx) Restaurants() repository.RestaurantRepository { return &restaurantRepo{tx: tx} }
func (tx *memTx) Referrals() repository.ReferralRepository     { return &referralRepo{tx: tx} }
func (tx *memTx) Ledger() repository.LedgerRepository          { return &ledgerRepo{tx: tx} }
func (tx *memTx) Transactions() repository.TransactionRepository {
	return &transactionRepo{tx: tx}
}
func (tx *memTx) History() repository.HistoryRepository { return &historyRepo{tx: tx} }

func (tx *memTx) LockWallets(ctx context.Context, keys []domain.WalletKey) error {
	for _, k := range repository.SortWalletKeys(keys) {
		if err := tx.lock(ctx, walletLockKey(k)); err != nil {
			return err
		}
	}
	return nil
}

func (tx *memTx) LockTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := tx.lock(ctx, transactionLockKey(id)); err != nil {
		return nil, err
	}
	return tx.Transactions().GetByID(ctx, id)
}

func (tx *memTx) lock(ctx context.Context, key string) error {
	for _, h := range tx.held {
		if h == key {
			return nil
		}
	}
	if err := tx.s.locks.acquire(ctx, key, tx.s.lockTimeout); err != nil {
		return err
	}
	tx.held = append(tx.held, key)
	return nil
}

func (tx *memTx) releaseLocks() {
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.s.locks.release(tx.held[i])
	}
	tx.held = nil
}

func (tx *memTx) rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.releaseLocks()
}

// flush commits an autocommit unit after each successful write.
func (tx *memTx) flush() error {
	if !tx.auto {
		return nil
	}
	err := tx.commit()
	*tx = *tx.s.begin(true)
	return err
}

func (tx *memTx) commit() error {
	if tx.done {
		return fmt.Errorf("%w: transaction already finished", domain.ErrInvariantViolation)
	}
	defer tx.rollback()

	if fault := tx.s.commitFault.Swap(nil); fault != nil {
		return *fault
	}

	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.st

	// Conflict checks happen before any write so a failed commit leaves no trace.
	for k, e := range tx.edges {
		if existing, ok := st.edges[k]; ok && existing.UplineUserID != e.UplineUserID {
			return fmt.Errorf("%w: referral edge for user %d changed concurrently", domain.ErrConcurrentModification, k.a)
		}
	}
	for k := range tx.newPending {
		if _, ok := st.pending[k]; ok {
			return domain.ErrAlreadyReferred
		}
	}
	for src := range tx.offsets {
		if _, ok := st.offsets[src]; ok {
			return fmt.Errorf("%w: entry %d", domain.ErrAlreadyOffset, src)
		}
	}
	for k, w := range tx.wallets {
		if st.wallets[k].Version != w.base {
			return fmt.Errorf("%w: wallet %d/%d", domain.ErrConcurrentModification, k.UserID, k.RestaurantID)
		}
	}
	for id, u := range tx.users {
		if u.ReferralCode == "" {
			continue
		}
		if owner, ok := st.codes[u.ReferralCode]; ok && owner != id {
			return fmt.Errorf("%w: referral code %q already in use", domain.ErrValidation, u.ReferralCode)
		}
	}

	for id, u := range tx.users {
		st.users[id] = u
		if u.ReferralCode != "" {
			st.codes[u.ReferralCode] = id
		}
	}
	for id, r := range tx.restaurants {
		st.restaurants[id] = r
	}
	for id, b := range tx.branches {
		st.branches[id] = b
	}
	for id, m := range tx.staff {
		st.staff[id] = m
	}
	for id, c := range tx.configs {
		st.configs[id] = c
	}
	for k, e := range tx.edges {
		if _, ok := st.edges[k]; !ok {
			st.edges[k] = e
		}
	}
	for k, p := range tx.pending {
		st.pending[k] = p
	}
	for _, e := range tx.entries {
		st.entryIdx[e.ID] = len(st.entries)
		st.entries = append(st.entries, e)
	}
	for src, id := range tx.offsets {
		st.offsets[src] = id
	}
	for k, w := range tx.wallets {
		st.wallets[k] = w.balance
	}
	for id, t := range tx.txns {
		st.txns[id] = t
	}
	for k, h := range tx.history {
		st.history[k] = h
	}

	logger.Debug("memory store commit", "entries", len(tx.entries), "transactions", len(tx.txns))
	return nil
}
