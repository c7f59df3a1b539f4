package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"
)

type transactionRepository struct {
	db dbtx
}

const transactionColumns = `id, customer_id, restaurant_id, branch_id, staff_id, bill_amount,
	guaranteed_discount_amount, requested_redeem_amount, vc_redeemed, final_amount, is_first_transaction,
	status, receipt_ref, notes, reward_config_snapshot, void_reason, voided_by, voided_at, created_at`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t        domain.Transaction
		snapshot []byte
		voidedBy sql.NullInt32
		voidedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.CustomerID, &t.RestaurantID, &t.BranchID, &t.StaffID, &t.BillAmount,
		&t.GuaranteedDiscountAmount, &t.RequestedRedeemAmount, &t.VirtualCurrencyRedeemed, &t.FinalAmount,
		&t.IsFirstTransaction, &t.Status, &t.ReceiptRef, &t.Notes, &snapshot, &t.VoidReason, &voidedBy,
		&voidedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &t.RewardConfig); err != nil {
		return nil, fmt.Errorf("decode reward config snapshot of %s: %w", t.ID, err)
	}
	if voidedBy.Valid {
		t.VoidedBy = &voidedBy.Int32
	}
	if voidedAt.Valid {
		t.VoidedAt = &voidedAt.Time
	}
	return &t, nil
}

func (r *transactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	logger.EnterMethod("transactionRepository.Create", "transactionID", txn.ID)
	snapshot, err := json.Marshal(txn.RewardConfig)
	if err != nil {
		return err
	}
	query := `INSERT INTO transactions (id, customer_id, restaurant_id, branch_id, staff_id, bill_amount,
	                 guaranteed_discount_amount, requested_redeem_amount, vc_redeemed, final_amount,
	                 is_first_transaction, status, receipt_ref, notes, reward_config_snapshot)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query, txn.ID, txn.CustomerID, txn.RestaurantID, txn.BranchID, txn.StaffID,
		txn.BillAmount, txn.GuaranteedDiscountAmount, txn.RequestedRedeemAmount, txn.VirtualCurrencyRedeemed,
		txn.FinalAmount, txn.IsFirstTransaction, string(txn.Status), txn.ReceiptRef, txn.Notes, snapshot).Scan(&txn.CreatedAt)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.Create", err)
		return mapError(err)
	}
	logger.ExitMethod("transactionRepository.Create")
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *transactionRepository) MarkVoided(ctx context.Context, id, reason string, voidedBy int32, at time.Time) error {
	query := `UPDATE transactions SET status = 'VOIDED', void_reason = $2, voided_by = $3, voided_at = $4 WHERE id = $1`
	logger.DatabaseCall("UPDATE", "transactions", "transactionID", id)
	res, err := r.db.ExecContext(ctx, query, id, reason, voidedBy, at)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "transactionID", id)
		return mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "transactionID", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *transactionRepository) ListByCustomer(ctx context.Context, customerID, restaurantID int32, page, pageSize int32) ([]domain.Transaction, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM transactions WHERE customer_id = $1 AND restaurant_id = $2`
	if err := r.db.QueryRowContext(ctx, countQuery, customerID, restaurantID).Scan(&count); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE customer_id = $1 AND restaurant_id = $2
	          ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, customerID, restaurantID, pageSize, repository.Offset(page, pageSize))
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, *t)
	}
	return txns, count, rows.Err()
}

type historyRepository struct {
	db dbtx
}

func (r *historyRepository) Get(ctx context.Context, customerID, restaurantID int32) (*domain.CustomerRestaurantHistory, error) {
	query := `SELECT customer_id, restaurant_id, first_visit_date, last_visit_date, total_visits, total_spent
	          FROM customer_restaurant_history WHERE customer_id = $1 AND restaurant_id = $2`
	h := &domain.CustomerRestaurantHistory{}
	err := r.db.QueryRowContext(ctx, query, customerID, restaurantID).Scan(
		&h.CustomerID, &h.RestaurantID, &h.FirstVisitDate, &h.LastVisitDate, &h.TotalVisits, &h.TotalSpent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return h, nil
}

func (r *historyRepository) RecordVisit(ctx context.Context, customerID, restaurantID int32, amount int64, at time.Time) error {
	query := `INSERT INTO customer_restaurant_history (customer_id, restaurant_id, first_visit_date, last_visit_date, total_visits, total_spent)
	          VALUES ($1, $2, $3, $3, 1, $4)
	          ON CONFLICT (customer_id, restaurant_id) DO UPDATE SET
	              last_visit_date = EXCLUDED.last_visit_date,
	              total_visits = customer_restaurant_history.total_visits + 1,
	              total_spent = customer_restaurant_history.total_spent + EXCLUDED.total_spent`
	_, err := r.db.ExecContext(ctx, query, customerID, restaurantID, at, amount)
	return mapError(err)
}

func (r *historyRepository) ReverseVisit(ctx context.Context, customerID, restaurantID int32, amount int64) error {
	query := `UPDATE customer_restaurant_history
	          SET total_visits = GREATEST(total_visits - 1, 0), total_spent = GREATEST(total_spent - $3, 0)
	          WHERE customer_id = $1 AND restaurant_id = $2`
	_, err := r.db.ExecContext(ctx, query, customerID, restaurantID, amount)
	return mapError(err)
}
