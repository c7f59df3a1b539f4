package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"
)

type ledgerRepository struct {
	db dbtx
}

const entryColumns = `id, user_id, restaurant_id, type, amount, direction, referral_level,
	related_transaction_id, source_ledger_entry_id, expires_at, description, created_at`

func (r *ledgerRepository) AppendEntries(ctx context.Context, entries []*domain.LedgerEntry) error {
	// Outside a unit of work the batch still has to land atomically.
	if db, ok := r.db.(*sql.DB); ok {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return mapError(err)
		}
		if err := (&ledgerRepository{db: tx}).AppendEntries(ctx, entries); err != nil {
			_ = tx.Rollback()
			return err
		}
		return mapError(tx.Commit())
	}

	logger.EnterMethod("ledgerRepository.AppendEntries", "count", len(entries))
	for _, e := range entries {
		if !e.Type.Valid() {
			return fmt.Errorf("%w: unknown ledger entry type %q", domain.ErrValidation, e.Type)
		}
		if e.Amount < 0 {
			return fmt.Errorf("%w: negative ledger amount %d", domain.ErrValidation, e.Amount)
		}
		if err := r.insertEntry(ctx, e); err != nil {
			logger.ExitMethodWithError("ledgerRepository.AppendEntries", err, "type", e.Type)
			return err
		}
		if err := r.applyToWallet(ctx, e); err != nil {
			logger.ExitMethodWithError("ledgerRepository.AppendEntries", err, "type", e.Type)
			return err
		}
	}

	logger.ExitMethod("ledgerRepository.AppendEntries")
	return nil
}

func (r *ledgerRepository) insertEntry(ctx context.Context, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (user_id, restaurant_id, type, amount, direction, referral_level,
	                 related_transaction_id, source_ledger_entry_id, expires_at, description)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at`
	var direction sql.NullString
	if e.Direction != "" {
		direction = sql.NullString{String: string(e.Direction), Valid: true}
	}
	var level sql.NullInt32
	if e.ReferralLevel > 0 {
		level = sql.NullInt32{Int32: e.ReferralLevel, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query, e.UserID, e.RestaurantID, string(e.Type), e.Amount, direction, level,
		e.RelatedTransactionID, e.SourceLedgerEntryID, e.ExpiresAt, e.Description).Scan(&e.ID, &e.CreatedAt)
	return mapError(err)
}

// applyToWallet folds the entry into wallet_balances. The table's CHECK
// constraint rejects a negative available balance.
func (r *ledgerRepository) applyToWallet(ctx context.Context, e *domain.LedgerEntry) error {
	var delta domain.WalletBalance
	delta.Apply(e)
	query := `INSERT INTO wallet_balances (user_id, restaurant_id, earned, redeemed, expired, adjusted_credit, adjusted_debit, version, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, 1, now())
	          ON CONFLICT (user_id, restaurant_id) DO UPDATE SET
	              earned = wallet_balances.earned + EXCLUDED.earned,
	              redeemed = wallet_balances.redeemed + EXCLUDED.redeemed,
	              expired = wallet_balances.expired + EXCLUDED.expired,
	              adjusted_credit = wallet_balances.adjusted_credit + EXCLUDED.adjusted_credit,
	              adjusted_debit = wallet_balances.adjusted_debit + EXCLUDED.adjusted_debit,
	              version = wallet_balances.version + 1,
	              updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, query, e.UserID, e.RestaurantID,
		delta.Earned, delta.Redeemed, delta.Expired, delta.AdjustedCredit, delta.AdjustedDebit)
	return mapError(err)
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID, restaurantID int32) (*domain.WalletBalance, error) {
	query := `SELECT earned, redeemed, expired, adjusted_credit, adjusted_debit, version, updated_at
	          FROM wallet_balances WHERE user_id = $1 AND restaurant_id = $2`
	b := &domain.WalletBalance{UserID: userID, RestaurantID: restaurantID}
	err := r.db.QueryRowContext(ctx, query, userID, restaurantID).Scan(
		&b.Earned, &b.Redeemed, &b.Expired, &b.AdjustedCredit, &b.AdjustedDebit, &b.Version, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return b, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var (
		e         domain.LedgerEntry
		direction sql.NullString
		level     sql.NullInt32
		related   sql.NullString
		source    sql.NullInt64
		expires   sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.RestaurantID, &e.Type, &e.Amount, &direction, &level,
		&related, &source, &expires, &e.Description, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Direction = domain.AdjustDirection(direction.String)
	e.ReferralLevel = level.Int32
	if related.Valid {
		e.RelatedTransactionID = &related.String
	}
	if source.Valid {
		e.SourceLedgerEntryID = &source.Int64
	}
	if expires.Valid {
		e.ExpiresAt = &expires.Time
	}
	return &e, nil
}

func (r *ledgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *ledgerRepository) GetEntry(ctx context.Context, id int64) (*domain.LedgerEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: ledger entry %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, userID, restaurantID int32, page, pageSize int32) ([]domain.LedgerEntry, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM ledger_entries WHERE user_id = $1 AND restaurant_id = $2`
	if err := r.db.QueryRowContext(ctx, countQuery, userID, restaurantID).Scan(&count); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries
	          WHERE user_id = $1 AND restaurant_id = $2 ORDER BY id DESC LIMIT $3 OFFSET $4`
	entries, err := r.queryEntries(ctx, query, userID, restaurantID, pageSize, repository.Offset(page, pageSize))
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (r *ledgerRepository) ListByTransaction(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE related_transaction_id = $1 ORDER BY id`
	return r.queryEntries(ctx, query, transactionID)
}

func (r *ledgerRepository) ListOpenEarns(ctx context.Context, userID, restaurantID int32) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries e
	          WHERE e.user_id = $1 AND e.restaurant_id = $2 AND e.type = 'EARN'
	            AND NOT EXISTS (SELECT 1 FROM ledger_entries o WHERE o.source_ledger_entry_id = e.id)
	          ORDER BY e.expires_at NULLS LAST, e.id`
	return r.queryEntries(ctx, query, userID, restaurantID)
}

func (r *ledgerRepository) ListExpiredEarns(ctx context.Context, asOf time.Time, afterID int64, limit int) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries e
	          WHERE e.type = 'EARN' AND e.expires_at <= $1 AND e.id > $2
	            AND NOT EXISTS (SELECT 1 FROM ledger_entries o WHERE o.source_ledger_entry_id = e.id)
	          ORDER BY e.id LIMIT $3`
	logger.DatabaseCall("SELECT", "ledger_entries expired earns", "afterID", afterID, "limit", limit)
	entries, err := r.queryEntries(ctx, query, asOf, afterID, limit)
	logger.DatabaseResult("SELECT", int64(len(entries)), err, "afterID", afterID)
	return entries, err
}

func (r *ledgerRepository) HasOffset(ctx context.Context, entryID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE source_ledger_entry_id = $1)`, entryID).Scan(&exists)
	return exists, mapError(err)
}

func (r *ledgerRepository) FindDrift(ctx context.Context) ([]domain.WalletDrift, error) {
	query := `SELECT w.user_id, w.restaurant_id,
	                 w.earned - w.redeemed - w.expired + w.adjusted_credit - w.adjusted_debit AS projected,
	                 COALESCE(l.total, 0) AS ledger
	          FROM wallet_balances w
	          LEFT JOIN (
	              SELECT user_id, restaurant_id,
	                     SUM(CASE WHEN type = 'EARN' THEN amount
	                              WHEN type = 'ADJUST' AND direction = 'CREDIT' THEN amount
	                              ELSE -amount END) AS total
	              FROM ledger_entries GROUP BY user_id, restaurant_id
	          ) l ON l.user_id = w.user_id AND l.restaurant_id = w.restaurant_id
	          WHERE w.earned - w.redeemed - w.expired + w.adjusted_credit - w.adjusted_debit <> COALESCE(l.total, 0)
	          ORDER BY w.user_id, w.restaurant_id`
	logger.DatabaseCall("SELECT", "wallet_balances LEFT JOIN ledger_entries")
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, mapError(err)
	}
	defer rows.Close()

	var drift []domain.WalletDrift
	for rows.Next() {
		var d domain.WalletDrift
		if err := rows.Scan(&d.Wallet.UserID, &d.Wallet.RestaurantID, &d.Projected, &d.Ledger); err != nil {
			logger.DatabaseResult("SELECT", int64(len(drift)), err)
			return nil, err
		}
		drift = append(drift, d)
	}
	logger.DatabaseResult("SELECT", int64(len(drift)), rows.Err())
	return drift, rows.Err()
}
