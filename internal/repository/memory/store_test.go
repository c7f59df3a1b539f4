package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/repository"
)

func earn(userID, restaurantID int32, amount int64, expiresAt time.Time) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		UserID:        userID,
		RestaurantID:  restaurantID,
		Type:          domain.LedgerEntryTypeEarn,
		Amount:        amount,
		ReferralLevel: 1,
		ExpiresAt:     &expiresAt,
	}
}

func TestStore_AppendEntriesProjectsBalance(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	e1 := earn(1, 10, 500, exp)
	require.NoError(t, s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{e1}))
	assert.NotZero(t, e1.ID)

	redeem := &domain.LedgerEntry{UserID: 1, RestaurantID: 10, Type: domain.LedgerEntryTypeRedeem, Amount: 200}
	require.NoError(t, s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{redeem}))

	bal, err := s.Ledger().GetBalance(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal.Earned)
	assert.Equal(t, int64(200), bal.Redeemed)
	assert.Equal(t, int64(300), bal.Available())
	assert.Equal(t, int64(2), bal.Version)
	assert.Greater(t, redeem.ID, e1.ID)
}

func TestStore_NegativeBalanceRejected(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()

	err := s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{
		{UserID: 1, RestaurantID: 10, Type: domain.LedgerEntryTypeRedeem, Amount: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	bal, _ := s.Ledger().GetBalance(ctx, 1, 10)
	assert.Equal(t, int64(0), bal.Available())
	entries, total, _ := s.Ledger().ListEntries(ctx, 1, 10, 1, 10)
	assert.Empty(t, entries)
	assert.Equal(t, int32(0), total)
}

func TestStore_WithinTxIsAllOrNothing(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.LockWallets(ctx, []domain.WalletKey{{UserID: 1, RestaurantID: 10}}))
		require.NoError(t, tx.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{earn(1, 10, 100, time.Now())}))
		require.NoError(t, tx.History().RecordVisit(ctx, 1, 10, 1000, time.Now()))

		// Staged writes are visible inside the unit.
		bal, err := tx.Ledger().GetBalance(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(100), bal.Available())
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bal, _ := s.Ledger().GetBalance(ctx, 1, 10)
	assert.Equal(t, int64(0), bal.Available())
	h, _ := s.History().Get(ctx, 1, 10)
	assert.Nil(t, h)
}

func TestStore_FailNextCommitDiscardsWork(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	crash := errors.New("connection reset")
	s.FailNextCommit(crash)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{earn(1, 10, 100, time.Now())})
	})
	assert.ErrorIs(t, err, crash)

	bal, _ := s.Ledger().GetBalance(ctx, 1, 10)
	assert.Equal(t, int64(0), bal.Available())

	// Locks were released: the next unit proceeds.
	err = s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.LockWallets(ctx, []domain.WalletKey{{UserID: 1, RestaurantID: 10}})
	})
	assert.NoError(t, err)
}

func TestStore_LockTimeoutIsConcurrentModification(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	ctx := context.Background()
	key := []domain.WalletKey{{UserID: 1, RestaurantID: 10}}

	held := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.WithinTx(ctx, func(tx repository.Tx) error {
			assert.NoError(t, tx.LockWallets(ctx, key))
			close(held)
			<-release
			return nil
		})
	}()

	<-held
	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.LockWallets(ctx, key)
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	close(release)
	wg.Wait()
}

func TestStore_OffsetIsUnique(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()

	e := earn(1, 10, 100, time.Now())
	require.NoError(t, s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{e}))

	expire := func() *domain.LedgerEntry {
		return &domain.LedgerEntry{UserID: 1, RestaurantID: 10, Type: domain.LedgerEntryTypeExpire, Amount: 100, SourceLedgerEntryID: &e.ID}
	}
	require.NoError(t, s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{expire()}))
	err := s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{expire()})
	assert.ErrorIs(t, err, domain.ErrAlreadyOffset)

	open, err := s.Ledger().ListOpenEarns(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestStore_EdgesAreImmutable(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()

	created, err := s.Referrals().CreateEdge(ctx, &domain.ReferralEdge{DownlineUserID: 2, UplineUserID: 1, RestaurantID: 10})
	require.NoError(t, err)
	assert.True(t, created)

	other := &domain.ReferralEdge{DownlineUserID: 2, UplineUserID: 3, RestaurantID: 10}
	created, err = s.Referrals().CreateEdge(ctx, other)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int32(1), other.UplineUserID)

	edge, err := s.Referrals().GetEdge(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), edge.UplineUserID)
	assert.Equal(t, int32(1), edge.Level)
}

func TestStore_PendingReferralIsUnique(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()

	require.NoError(t, s.Referrals().SavePending(ctx, &domain.PendingReferral{CustomerID: 2, RestaurantID: 10, Code: "AAA", UplineUserID: 1}))
	err := s.Referrals().SavePending(ctx, &domain.PendingReferral{CustomerID: 2, RestaurantID: 10, Code: "BBB", UplineUserID: 3})
	assert.ErrorIs(t, err, domain.ErrAlreadyReferred)

	p, err := s.Referrals().GetPending(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, "AAA", p.Code)
	assert.Equal(t, domain.PendingReferralStatusPending, p.Status)
}

func TestStore_ListExpiredEarnsSkipsOffsets(t *testing.T) {
	now := time.Now()
	s := NewStore(time.Second)
	ctx := context.Background()

	past := earn(1, 10, 100, now.Add(-time.Hour))
	future := earn(1, 10, 100, now.Add(time.Hour))
	closed := earn(2, 10, 100, now.Add(-time.Hour))
	require.NoError(t, s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{past, future, closed}))
	require.NoError(t, s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{
		{UserID: 2, RestaurantID: 10, Type: domain.LedgerEntryTypeExpire, Amount: 100, SourceLedgerEntryID: &closed.ID},
	}))

	got, err := s.Ledger().ListExpiredEarns(ctx, now, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, past.ID, got[0].ID)

	got, err = s.Ledger().ListExpiredEarns(ctx, now, past.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_FindDriftOnHealthyLedger(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	require.NoError(t, s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{earn(1, 10, 100, time.Now())}))

	drift, err := s.Ledger().FindDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	// Corrupt the projection directly.
	s.mu.Lock()
	w := s.st.wallets[domain.WalletKey{UserID: 1, RestaurantID: 10}]
	w.Earned = 90
	s.st.wallets[domain.WalletKey{UserID: 1, RestaurantID: 10}] = w
	s.mu.Unlock()

	drift, err = s.Ledger().FindDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, int64(90), drift[0].Projected)
	assert.Equal(t, int64(100), drift[0].Ledger)
}

func TestStore_UserReferralCodeLookup(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()

	u := &domain.User{Name: "Aina", ReferralCode: "AINA01"}
	require.NoError(t, s.Users().Create(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := s.Users().GetByReferralCode(ctx, "AINA01")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Users().GetByReferralCode(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.Users().Create(ctx, &domain.User{Name: "Copy", ReferralCode: "AINA01"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
