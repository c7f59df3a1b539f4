package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"loyalty-ledger-backend/internal/domain"
)

type restaurantRepository struct {
	db dbtx
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *domain.Restaurant) error {
	query := `INSERT INTO restaurants (name, active) VALUES ($1, $2) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, restaurant.Name, restaurant.Active).Scan(&restaurant.ID, &restaurant.CreatedAt)
	return mapError(err)
}

func (r *restaurantRepository) GetByID(ctx context.Context, id int32) (*domain.Restaurant, error) {
	query := `SELECT id, name, active, created_at FROM restaurants WHERE id = $1`
	rest := &domain.Restaurant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rest.ID, &rest.Name, &rest.Active, &rest.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: restaurant %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return rest, nil
}

func (r *restaurantRepository) CreateBranch(ctx context.Context, branch *domain.Branch) error {
	query := `INSERT INTO branches (restaurant_id, name) VALUES ($1, $2) RETURNING id`
	return mapError(r.db.QueryRowContext(ctx, query, branch.RestaurantID, branch.Name).Scan(&branch.ID))
}

func (r *restaurantRepository) GetBranch(ctx context.Context, id int32) (*domain.Branch, error) {
	query := `SELECT id, restaurant_id, name FROM branches WHERE id = $1`
	b := &domain.Branch{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.RestaurantID, &b.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: branch %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *restaurantRepository) CreateStaff(ctx context.Context, staff *domain.Staff) error {
	query := `INSERT INTO staff (restaurant_id, branch_id, name, role) VALUES ($1, NULLIF($2, 0), $3, $4) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, staff.RestaurantID, staff.BranchID, staff.Name, staff.Role).Scan(&staff.ID)
	return mapError(err)
}

func (r *restaurantRepository) GetStaff(ctx context.Context, id int32) (*domain.Staff, error) {
	query := `SELECT id, restaurant_id, COALESCE(branch_id, 0), name, role FROM staff WHERE id = $1`
	s := &domain.Staff{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.RestaurantID, &s.BranchID, &s.Name, &s.Role)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: staff %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *restaurantRepository) GetRewardConfig(ctx context.Context, restaurantID int32) (*domain.RewardConfig, error) {
	query := `SELECT restaurant_id, guaranteed_discount_percent, upline_reward_percent, max_redemption_percent,
	                 vc_expiry_days, max_upline_levels, updated_at
	          FROM restaurant_reward_config WHERE restaurant_id = $1`
	c := &domain.RewardConfig{}
	err := r.db.QueryRowContext(ctx, query, restaurantID).Scan(
		&c.RestaurantID, &c.GuaranteedDiscountPercent, &c.UplineRewardPercent, &c.MaxRedemptionPercent,
		&c.VCExpiryDays, &c.MaxUplineLevels, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: reward config for restaurant %d", domain.ErrNotFound, restaurantID)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *restaurantRepository) UpsertRewardConfig(ctx context.Context, cfg *domain.RewardConfig) error {
	query := `INSERT INTO restaurant_reward_config (restaurant_id, guaranteed_discount_percent, upline_reward_percent,
	                 max_redemption_percent, vc_expiry_days, max_upline_levels, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, now())
	          ON CONFLICT (restaurant_id) DO UPDATE SET
	              guaranteed_discount_percent = EXCLUDED.guaranteed_discount_percent,
	              upline_reward_percent = EXCLUDED.upline_reward_percent,
	              max_redemption_percent = EXCLUDED.max_redemption_percent,
	              vc_expiry_days = EXCLUDED.vc_expiry_days,
	              max_upline_levels = EXCLUDED.max_upline_levels,
	              updated_at = EXCLUDED.updated_at
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, cfg.RestaurantID, cfg.GuaranteedDiscountPercent, cfg.UplineRewardPercent,
		cfg.MaxRedemptionPercent, cfg.VCExpiryDays, cfg.MaxUplineLevels).Scan(&cfg.UpdatedAt)
	return mapError(err)
}
