package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
)

type referralRepository struct {
	db dbtx
}

func (r *referralRepository) GetEdge(ctx context.Context, downlineUserID, restaurantID int32) (*domain.ReferralEdge, error) {
	query := `SELECT downline_user_id, upline_user_id, restaurant_id, level, created_at
	          FROM referral_edges WHERE downline_user_id = $1 AND restaurant_id = $2`
	e := &domain.ReferralEdge{}
	err := r.db.QueryRowContext(ctx, query, downlineUserID, restaurantID).Scan(
		&e.DownlineUserID, &e.UplineUserID, &e.RestaurantID, &e.Level, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (r *referralRepository) CreateEdge(ctx context.Context, edge *domain.ReferralEdge) (bool, error) {
	if edge.Level == 0 {
		edge.Level = 1
	}
	query := `INSERT INTO referral_edges (downline_user_id, upline_user_id, restaurant_id, level)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (downline_user_id, restaurant_id) DO NOTHING
	          RETURNING created_at`
	logger.DatabaseCall("INSERT", "referral_edges", "downlineUserID", edge.DownlineUserID, "uplineUserID", edge.UplineUserID)
	err := r.db.QueryRowContext(ctx, query, edge.DownlineUserID, edge.UplineUserID, edge.RestaurantID, edge.Level).Scan(&edge.CreatedAt)
	if err == nil {
		logger.DatabaseResult("INSERT", 1, nil, "downlineUserID", edge.DownlineUserID)
		return true, nil
	}
	if err != sql.ErrNoRows {
		logger.DatabaseResult("INSERT", 0, err, "downlineUserID", edge.DownlineUserID)
		return false, mapError(err)
	}
	logger.DatabaseResult("INSERT", 0, nil, "downlineUserID", edge.DownlineUserID, "conflict", true)

	existing, err := r.GetEdge(ctx, edge.DownlineUserID, edge.RestaurantID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("%w: edge for user %d vanished", domain.ErrConcurrentModification, edge.DownlineUserID)
	}
	*edge = *existing
	return false, nil
}

func (r *referralRepository) GetPending(ctx context.Context, customerID, restaurantID int32) (*domain.PendingReferral, error) {
	query := `SELECT customer_id, restaurant_id, code, upline_user_id, status, reject_reason, created_at, resolved_at
	          FROM pending_referrals WHERE customer_id = $1 AND restaurant_id = $2`
	p := &domain.PendingReferral{}
	var resolvedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, customerID, restaurantID).Scan(
		&p.CustomerID, &p.RestaurantID, &p.Code, &p.UplineUserID, &p.Status, &p.RejectReason, &p.CreatedAt, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	if resolvedAt.Valid {
		p.ResolvedAt = &resolvedAt.Time
	}
	return p, nil
}

func (r *referralRepository) SavePending(ctx context.Context, pending *domain.PendingReferral) error {
	if pending.Status == "" {
		pending.Status = domain.PendingReferralStatusPending
	}
	query := `INSERT INTO pending_referrals (customer_id, restaurant_id, code, upline_user_id, status)
	          VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, pending.CustomerID, pending.RestaurantID, pending.Code,
		pending.UplineUserID, pending.Status).Scan(&pending.CreatedAt)
	return mapError(err)
}

func (r *referralRepository) ResolvePending(ctx context.Context, customerID, restaurantID int32, status domain.PendingReferralStatus, reason string, at time.Time) error {
	query := `UPDATE pending_referrals SET status = $3, reject_reason = $4, resolved_at = $5
	          WHERE customer_id = $1 AND restaurant_id = $2`
	res, err := r.db.ExecContext(ctx, query, customerID, restaurantID, status, reason, at)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: pending referral for user %d at restaurant %d", domain.ErrNotFound, customerID, restaurantID)
	}
	return nil
}
