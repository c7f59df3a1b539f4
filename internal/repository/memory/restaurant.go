package memory

import (
	"context"
	"fmt"

	"loyalty-ledger-backend/internal/domain"
)

type userRepo struct {
	tx *memTx
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	if user.ReferralCode != "" {
		if existing, err := r.GetByReferralCode(ctx, user.ReferralCode); err == nil && existing.ID != user.ID {
			return fmt.Errorf("%w: referral code %q already in use", domain.ErrValidation, user.ReferralCode)
		}
	}
	if user.ID == 0 {
		user.ID = r.tx.s.userSeq.Add(1)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.tx.s.now()
	}
	r.tx.users[user.ID] = *user
	return r.tx.flush()
}

func (r *userRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	if u, ok := r.tx.users[id]; ok {
		return &u, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if u, ok := r.tx.s.st.users[id]; ok {
		return &u, nil
	}
	return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
}

func (r *userRepo) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	for _, u := range r.tx.users {
		if u.ReferralCode == code {
			u := u
			return &u, nil
		}
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if id, ok := r.tx.s.st.codes[code]; ok {
		u := r.tx.s.st.users[id]
		return &u, nil
	}
	return nil, fmt.Errorf("%w: referral code %q", domain.ErrNotFound, code)
}

type restaurantRepo struct {
	tx *memTx
}

func (r *restaurantRepo) Create(ctx context.Context, restaurant *domain.Restaurant) error {
	if restaurant.ID == 0 {
		restaurant.ID = r.tx.s.restaurantSeq.Add(1)
	}
	if restaurant.CreatedAt.IsZero() {
		restaurant.CreatedAt = r.tx.s.now()
	}
	r.tx.restaurants[restaurant.ID] = *restaurant
	return r.tx.flush()
}

func (r *restaurantRepo) GetByID(ctx context.Context, id int32) (*domain.Restaurant, error) {
	if v, ok := r.tx.restaurants[id]; ok {
		return &v, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if v, ok := r.tx.s.st.restaurants[id]; ok {
		return &v, nil
	}
	return nil, fmt.Errorf("%w: restaurant %d", domain.ErrNotFound, id)
}

func (r *restaurantRepo) CreateBranch(ctx context.Context, branch *domain.Branch) error {
	if branch.ID == 0 {
		branch.ID = r.tx.s.branchSeq.Add(1)
	}
	r.tx.branches[branch.ID] = *branch
	return r.tx.flush()
}

func (r *restaurantRepo) GetBranch(ctx context.Context, id int32) (*domain.Branch, error) {
	if v, ok := r.tx.branches[id]; ok {
		return &v, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if v, ok := r.tx.s.st.branches[id]; ok {
		return &v, nil
	}
	return nil, fmt.Errorf("%w: branch %d", domain.ErrNotFound, id)
}

func (r *restaurantRepo) CreateStaff(ctx context.Context, staff *domain.Staff) error {
	if staff.ID == 0 {
		staff.ID = r.tx.s.staffSeq.Add(1)
	}
	r.tx.staff[staff.ID] = *staff
	return r.tx.flush()
}

func (r *restaurantRepo) GetStaff(ctx context.Context, id int32) (*domain.Staff, error) {
	if v, ok := r.tx.staff[id]; ok {
		return &v, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if v, ok := r.tx.s.st.staff[id]; ok {
		return &v, nil
	}
	return nil, fmt.Errorf("%w: staff %d", domain.ErrNotFound, id)
}

func (r *restaurantRepo) GetRewardConfig(ctx context.Context, restaurantID int32) (*domain.RewardConfig, error) {
	if v, ok := r.tx.configs[restaurantID]; ok {
		return &v, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if v, ok := r.tx.s.st.configs[restaurantID]; ok {
		return &v, nil
	}
	return nil, fmt.Errorf("%w: reward config for restaurant %d", domain.ErrNotFound, restaurantID)
}

func (r *restaurantRepo) UpsertRewardConfig(ctx context.Context, cfg *domain.RewardConfig) error {
	cfg.UpdatedAt = r.tx.s.now()
	r.tx.configs[cfg.RestaurantID] = *cfg
	return r.tx.flush()
}
