package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"loyalty-ledger-backend/internal/domain"
)

type userRepository struct {
	db dbtx
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (name, email, referral_code) VALUES ($1, $2, NULLIF($3, ''))
	          RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Name, user.Email, user.ReferralCode).Scan(&user.ID, &user.CreatedAt)
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT id, name, email, COALESCE(referral_code, ''), created_at FROM users WHERE id = $1`
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.ReferralCode, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	query := `SELECT id, name, email, COALESCE(referral_code, ''), created_at FROM users WHERE referral_code = $1`
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(&u.ID, &u.Name, &u.Email, &u.ReferralCode, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: referral code %q", domain.ErrNotFound, code)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}
