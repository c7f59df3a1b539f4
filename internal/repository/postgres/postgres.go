package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repos struct {
	users        repository.UserRepository
	restaurants  repository.RestaurantRepository
	referrals    repository.ReferralRepository
	ledger       repository.LedgerRepository
	transactions repository.TransactionRepository
	history      repository.HistoryRepository
}

func newRepos(db dbtx) repos {
	return repos{
		users:        &userRepository{db: db},
		restaurants:  &restaurantRepository{db: db},
		referrals:    &referralRepository{db: db},
		ledger:       &ledgerRepository{db: db},
		transactions: &transactionRepository{db: db},
		history:      &historyRepository{db: db},
	}
}

func (r repos) Users() repository.UserRepository               { return r.users }
func (r repos) Restaurants() repository.RestaurantRepository   { return r.restaurants }
func (r repos) Referrals() repository.ReferralRepository       { return r.referrals }
func (r repos) Ledger() repository.LedgerRepository            { return r.ledger }
func (r repos) Transactions() repository.TransactionRepository { return r.transactions }
func (r repos) History() repository.HistoryRepository          { return r.history }

type Store struct {
	repos
	db          *sql.DB
	lockTimeout time.Duration
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB, lockTimeout time.Duration) *Store {
	return &Store{
		repos:       newRepos(db),
		db:          db,
		lockTimeout: lockTimeout,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken inside
// fn wait at most lockTimeout before failing with ErrConcurrentModification.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return mapError(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logger.Warn("Rollback failed", "error", rbErr)
			}
		}
	}()

	if s.lockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err = sqlTx.ExecContext(ctx, stmt); err != nil {
			return mapError(err)
		}
	}

	if err = fn(&pgTx{repos: newRepos(sqlTx), tx: sqlTx}); err != nil {
		return mapError(err)
	}
	if err = sqlTx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

type pgTx struct {
	repos
	tx *sql.Tx
}

func (t *pgTx) LockWallets(ctx context.Context, keys []domain.WalletKey) error {
	sorted := repository.SortWalletKeys(keys)
	if len(sorted) == 0 {
		return nil
	}
	users := make([]int64, len(sorted))
	restaurants := make([]int64, len(sorted))
	for i, k := range sorted {
		users[i], restaurants[i] = int64(k.UserID), int64(k.RestaurantID)
	}

	// Rows must exist before they can be locked.
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO wallet_balances (user_id, restaurant_id)
		 SELECT * FROM unnest($1::int[], $2::int[])
		 ON CONFLICT (user_id, restaurant_id) DO NOTHING`, pq.Array(users), pq.Array(restaurants))
	if err != nil {
		return mapError(err)
	}

	rows, err := t.tx.QueryContext(ctx,
		`SELECT w.version FROM wallet_balances w
		 JOIN unnest($1::int[], $2::int[]) AS k(user_id, restaurant_id)
		   ON w.user_id = k.user_id AND w.restaurant_id = k.restaurant_id
		 ORDER BY w.user_id, w.restaurant_id
		 FOR UPDATE OF w`, pq.Array(users), pq.Array(restaurants))
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()
	locked := 0
	for rows.Next() {
		locked++
	}
	if err := rows.Err(); err != nil {
		return mapError(err)
	}
	if locked != len(sorted) {
		return fmt.Errorf("%w: locked %d of %d wallets", domain.ErrConcurrentModification, locked, len(sorted))
	}
	return nil
}

func (t *pgTx) LockTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return txn, nil
}
