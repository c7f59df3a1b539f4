package memory

import (
	"context"
	"fmt"
	"time"

	"loyalty-ledger-backend/internal/domain"
)

type referralRepo struct {
	tx *memTx
}

func (r *referralRepo) GetEdge(ctx context.Context, downlineUserID, restaurantID int32) (*domain.ReferralEdge, error) {
	k := pairKey{downlineUserID, restaurantID}
	if e, ok := r.tx.edges[k]; ok {
		return &e, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if e, ok := r.tx.s.st.edges[k]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *referralRepo) CreateEdge(ctx context.Context, edge *domain.ReferralEdge) (bool, error) {
	existing, err := r.GetEdge(ctx, edge.DownlineUserID, edge.RestaurantID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		*edge = *existing
		return false, nil
	}
	if edge.Level == 0 {
		edge.Level = 1
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = r.tx.s.now()
	}
	r.tx.edges[pairKey{edge.DownlineUserID, edge.RestaurantID}] = *edge
	return true, r.tx.flush()
}

func (r *referralRepo) GetPending(ctx context.Context, customerID, restaurantID int32) (*domain.PendingReferral, error) {
	k := pairKey{customerID, restaurantID}
	if p, ok := r.tx.pending[k]; ok {
		return &p, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if p, ok := r.tx.s.st.pending[k]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *referralRepo) SavePending(ctx context.Context, pending *domain.PendingReferral) error {
	existing, err := r.GetPending(ctx, pending.CustomerID, pending.RestaurantID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrAlreadyReferred
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = r.tx.s.now()
	}
	if pending.Status == "" {
		pending.Status = domain.PendingReferralStatusPending
	}
	k := pairKey{pending.CustomerID, pending.RestaurantID}
	r.tx.pending[k] = *pending
	r.tx.newPending[k] = true
	return r.tx.flush()
}

func (r *referralRepo) ResolvePending(ctx context.Context, customerID, restaurantID int32, status domain.PendingReferralStatus, reason string, at time.Time) error {
	p, err := r.GetPending(ctx, customerID, restaurantID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: pending referral for user %d at restaurant %d", domain.ErrNotFound, customerID, restaurantID)
	}
	p.Status = status
	p.RejectReason = reason
	p.ResolvedAt = &at
	r.tx.pending[pairKey{customerID, restaurantID}] = *p
	return r.tx.flush()
}
