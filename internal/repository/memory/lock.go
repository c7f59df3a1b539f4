package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"loyalty-ledger-backend/internal/domain"
)

// lockTable hands out exclusive named locks with a bounded wait.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (lt *lockTable) slot(key string) chan struct{} {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	ch, ok := lt.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		lt.slots[key] = ch
	}
	return ch
}

func (lt *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := lt.slot(key)

	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: lock %s not granted within %s", domain.ErrConcurrentModification, key, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (lt *lockTable) release(key string) {
	<-lt.slot(key)
}

func walletLockKey(k domain.WalletKey) string {
	return fmt.Sprintf("wallet:%d:%d", k.UserID, k.RestaurantID)
}

func transactionLockKey(id string) string {
	return "txn:" + id
}
