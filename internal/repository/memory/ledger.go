package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/repository"
)

type ledgerRepo struct {
	tx *memTx
}

func (r *ledgerRepo) AppendEntries(ctx context.Context, entries []*domain.LedgerEntry) error {
	tx := r.tx
	for _, e := range entries {
		if !e.Type.Valid() {
			return fmt.Errorf("%w: unknown ledger entry type %q", domain.ErrValidation, e.Type)
		}
		if e.Amount < 0 {
			return fmt.Errorf("%w: negative ledger amount %d", domain.ErrValidation, e.Amount)
		}
		if e.SourceLedgerEntryID != nil {
			offset, err := r.HasOffset(ctx, *e.SourceLedgerEntryID)
			if err != nil {
				return err
			}
			if offset {
				return fmt.Errorf("%w: entry %d", domain.ErrAlreadyOffset, *e.SourceLedgerEntryID)
			}
		}

		w := tx.walletForWrite(e.Wallet())
		w.balance.Apply(e)
		if w.balance.Available() < 0 {
			return fmt.Errorf("%w: wallet %d/%d would go negative", domain.ErrInvariantViolation, e.UserID, e.RestaurantID)
		}
		w.balance.Version++
		w.balance.UpdatedAt = tx.s.now()

		e.ID = tx.s.entrySeq.Add(1)
		if e.CreatedAt.IsZero() {
			e.CreatedAt = tx.s.now()
		}
		tx.wallets[e.Wallet()] = w
		tx.entries = append(tx.entries, *e)
		if e.SourceLedgerEntryID != nil {
			tx.offsets[*e.SourceLedgerEntryID] = e.ID
		}
	}
	return tx.flush()
}

func (tx *memTx) walletForWrite(k domain.WalletKey) walletWrite {
	if w, ok := tx.wallets[k]; ok {
		return w
	}
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	b, ok := tx.s.st.wallets[k]
	if !ok {
		b = domain.WalletBalance{UserID: k.UserID, RestaurantID: k.RestaurantID}
	}
	return walletWrite{base: b.Version, balance: b}
}

func (r *ledgerRepo) GetBalance(ctx context.Context, userID, restaurantID int32) (*domain.WalletBalance, error) {
	b := r.tx.walletForWrite(domain.WalletKey{UserID: userID, RestaurantID: restaurantID}).balance
	return &b, nil
}

// visibleEntries returns committed entries followed by this unit's staged ones.
func (tx *memTx) visibleEntries(match func(*domain.LedgerEntry) bool) []domain.LedgerEntry {
	tx.s.mu.RLock()
	var out []domain.LedgerEntry
	for i := range tx.s.st.entries {
		if match(&tx.s.st.entries[i]) {
			out = append(out, tx.s.st.entries[i])
		}
	}
	tx.s.mu.RUnlock()
	for i := range tx.entries {
		if match(&tx.entries[i]) {
			out = append(out, tx.entries[i])
		}
	}
	return out
}

func (tx *memTx) isOffset(id int64) bool {
	if _, ok := tx.offsets[id]; ok {
		return true
	}
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	_, ok := tx.s.st.offsets[id]
	return ok
}

func (r *ledgerRepo) GetEntry(ctx context.Context, id int64) (*domain.LedgerEntry, error) {
	found := r.tx.visibleEntries(func(e *domain.LedgerEntry) bool { return e.ID == id })
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: ledger entry %d", domain.ErrNotFound, id)
	}
	return &found[0], nil
}

func (r *ledgerRepo) ListEntries(ctx context.Context, userID, restaurantID int32, page, pageSize int32) ([]domain.LedgerEntry, int32, error) {
	all := r.tx.visibleEntries(func(e *domain.LedgerEntry) bool {
		return e.UserID == userID && e.RestaurantID == restaurantID
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r *ledgerRepo) ListByTransaction(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	out := r.tx.visibleEntries(func(e *domain.LedgerEntry) bool {
		return e.RelatedTransactionID != nil && *e.RelatedTransactionID == transactionID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ledgerRepo) ListOpenEarns(ctx context.Context, userID, restaurantID int32) ([]domain.LedgerEntry, error) {
	out := r.tx.visibleEntries(func(e *domain.LedgerEntry) bool {
		return e.Type == domain.LedgerEntryTypeEarn && e.UserID == userID && e.RestaurantID == restaurantID
	})
	open := out[:0]
	for _, e := range out {
		if !r.tx.isOffset(e.ID) {
			open = append(open, e)
		}
	}
	sort.Slice(open, func(i, j int) bool { return earnBefore(&open[i], &open[j]) })
	return open, nil
}

func earnBefore(a, b *domain.LedgerEntry) bool {
	switch {
	case a.ExpiresAt == nil && b.ExpiresAt == nil:
	case a.ExpiresAt == nil:
		return false
	case b.ExpiresAt == nil:
		return true
	case !a.ExpiresAt.Equal(*b.ExpiresAt):
		return a.ExpiresAt.Before(*b.ExpiresAt)
	}
	return a.ID < b.ID
}

func (r *ledgerRepo) ListExpiredEarns(ctx context.Context, asOf time.Time, afterID int64, limit int) ([]domain.LedgerEntry, error) {
	out := r.tx.visibleEntries(func(e *domain.LedgerEntry) bool {
		return e.Type == domain.LedgerEntryTypeEarn && e.ID > afterID &&
			e.ExpiresAt != nil && !e.ExpiresAt.After(asOf)
	})
	open := out[:0]
	for _, e := range out {
		if !r.tx.isOffset(e.ID) {
			open = append(open, e)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (r *ledgerRepo) HasOffset(ctx context.Context, entryID int64) (bool, error) {
	return r.tx.isOffset(entryID), nil
}

func (r *ledgerRepo) FindDrift(ctx context.Context) ([]domain.WalletDrift, error) {
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	st := r.tx.s.st

	sums := make(map[domain.WalletKey]int64)
	for i := range st.entries {
		e := &st.entries[i]
		sums[e.Wallet()] += e.SignedAmount()
	}

	keys := make([]domain.WalletKey, 0, len(st.wallets)+len(sums))
	for k := range st.wallets {
		keys = append(keys, k)
	}
	for k := range sums {
		keys = append(keys, k)
	}

	var drift []domain.WalletDrift
	for _, k := range repository.SortWalletKeys(keys) {
		b := st.wallets[k]
		if b.Available() != sums[k] {
			drift = append(drift, domain.WalletDrift{Wallet: k, Projected: b.Available(), Ledger: sums[k]})
		}
	}
	return drift, nil
}

func paginate[T any](items []T, page, pageSize int32) []T {
	if pageSize <= 0 {
		return items
	}
	start := int(repository.Offset(page, pageSize))
	if start >= len(items) {
		return []T{}
	}
	end := start + int(pageSize)
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
