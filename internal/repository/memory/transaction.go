package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"loyalty-ledger-backend/internal/domain"
)

type transactionRepo struct {
	tx *memTx
}

func (r *transactionRepo) Create(ctx context.Context, txn *domain.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: transaction id is required", domain.ErrValidation)
	}
	if _, err := r.GetByID(ctx, txn.ID); err == nil {
		return fmt.Errorf("%w: transaction %s already exists", domain.ErrValidation, txn.ID)
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = r.tx.s.now()
	}
	r.tx.txns[txn.ID] = *txn
	return r.tx.flush()
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if t, ok := r.tx.txns[id]; ok {
		return &t, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if t, ok := r.tx.s.st.txns[id]; ok {
		return &t, nil
	}
	return nil, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
}

func (r *transactionRepo) MarkVoided(ctx context.Context, id, reason string, voidedBy int32, at time.Time) error {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	t.Status = domain.TransactionStatusVoided
	t.VoidReason = reason
	t.VoidedBy = &voidedBy
	t.VoidedAt = &at
	r.tx.txns[id] = *t
	return r.tx.flush()
}

func (r *transactionRepo) ListByCustomer(ctx context.Context, customerID, restaurantID int32, page, pageSize int32) ([]domain.Transaction, int32, error) {
	seen := make(map[string]bool)
	var out []domain.Transaction
	for id, t := range r.tx.txns {
		seen[id] = true
		if t.CustomerID == customerID && t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	r.tx.s.mu.RLock()
	for id, t := range r.tx.s.st.txns {
		if !seen[id] && t.CustomerID == customerID && t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	r.tx.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page, pageSize), int32(len(out)), nil
}

type historyRepo struct {
	tx *memTx
}

func (r *historyRepo) Get(ctx context.Context, customerID, restaurantID int32) (*domain.CustomerRestaurantHistory, error) {
	k := pairKey{customerID, restaurantID}
	if h, ok := r.tx.history[k]; ok {
		return &h, nil
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if h, ok := r.tx.s.st.history[k]; ok {
		return &h, nil
	}
	return nil, nil
}

func (r *historyRepo) RecordVisit(ctx context.Context, customerID, restaurantID int32, amount int64, at time.Time) error {
	h, err := r.Get(ctx, customerID, restaurantID)
	if err != nil {
		return err
	}
	if h == nil {
		h = &domain.CustomerRestaurantHistory{
			CustomerID:     customerID,
			RestaurantID:   restaurantID,
			FirstVisitDate: at,
		}
	}
	h.LastVisitDate = at
	h.TotalVisits++
	h.TotalSpent += amount
	r.tx.history[pairKey{customerID, restaurantID}] = *h
	return r.tx.flush()
}

func (r *historyRepo) ReverseVisit(ctx context.Context, customerID, restaurantID int32, amount int64) error {
	h, err := r.Get(ctx, customerID, restaurantID)
	if err != nil {
		return err
	}
	if h == nil {
		return nil
	}
	if h.TotalVisits > 0 {
		h.TotalVisits--
	}
	h.TotalSpent -= amount
	if h.TotalSpent < 0 {
		h.TotalSpent = 0
	}
	r.tx.history[pairKey{customerID, restaurantID}] = *h
	return r.tx.flush()
}
