package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/repository"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, 2*time.Second), mock
}

func TestUserRepository_GetByID(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, email, COALESCE\\(referral_code, ''\\), created_at FROM users").
			WithArgs(int32(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "referral_code", "created_at"}).
				AddRow(7, "Aina", "aina@example.com", "AINA01", now))

		u, err := s.Users().GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "AINA01", u.ReferralCode)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, email").
			WithArgs(int32(8)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "referral_code", "created_at"}))

		_, err := s.Users().GetByID(ctx, 8)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_AppendEntriesWithinTx(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	exp := time.Now().Add(30 * 24 * time.Hour)
	txnID := "5b0d0a6e-8f9e-4d7c-9f43-1f9c2f0d3e11"

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout = '2000ms'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO wallet_balances \\(user_id, restaurant_id\\)\\s+SELECT \\* FROM unnest").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT w.version FROM wallet_balances w .* FOR UPDATE OF w").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO ledger_entries").
		WithArgs(int32(1), int32(10), "EARN", int64(250), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "referral reward").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(41, time.Now()))
	mock.ExpectExec("INSERT INTO wallet_balances .* ON CONFLICT \\(user_id, restaurant_id\\) DO UPDATE").
		WithArgs(int32(1), int32(10), int64(250), int64(0), int64(0), int64(0), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry := &domain.LedgerEntry{
		UserID: 1, RestaurantID: 10, Type: domain.LedgerEntryTypeEarn, Amount: 250,
		ReferralLevel: 1, RelatedTransactionID: &txnID, ExpiresAt: &exp, Description: "referral reward",
	}
	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockWallets(ctx, []domain.WalletKey{entry.Wallet()}); err != nil {
			return err
		}
		return tx.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{entry})
	})
	require.NoError(t, err)
	assert.Equal(t, int64(41), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_AppendEntriesAutocommit(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ledger_entries").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectExec("INSERT INTO wallet_balances").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "wallet_balances_available_check"})
	mock.ExpectRollback()

	err := s.Ledger().AppendEntries(ctx, []*domain.LedgerEntry{
		{UserID: 1, RestaurantID: 10, Type: domain.LedgerEntryTypeRedeem, Amount: 100},
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTxMapsLockTimeout(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO wallet_balances").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT w.version FROM wallet_balances").
		WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.LockWallets(ctx, []domain.WalletKey{{UserID: 1, RestaurantID: 10}})
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(tx repository.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_GetBalanceUnknownWallet(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT earned, redeemed, expired, adjusted_credit, adjusted_debit, version, updated_at").
		WithArgs(int32(3), int32(10)).
		WillReturnRows(sqlmock.NewRows([]string{"earned", "redeemed", "expired", "adjusted_credit", "adjusted_debit", "version", "updated_at"}))

	b, err := s.Ledger().GetBalance(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Available())
	assert.Equal(t, int32(3), b.UserID)
}

func TestLedgerRepository_OffsetConflict(t *testing.T) {
	s, mock := newMockStore(t)
	src := int64(5)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ledger_entries").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "ledger_entries_source_uniq"})
	mock.ExpectRollback()

	err := s.Ledger().AppendEntries(context.Background(), []*domain.LedgerEntry{
		{UserID: 1, RestaurantID: 10, Type: domain.LedgerEntryTypeExpire, Amount: 10, SourceLedgerEntryID: &src},
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyOffset)
}

func TestLedgerRepository_FindDrift(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT w.user_id, w.restaurant_id").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "restaurant_id", "projected", "ledger"}).AddRow(1, 10, 90, 100))

	drift, err := s.Ledger().FindDrift(context.Background())
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, domain.WalletDrift{Wallet: domain.WalletKey{UserID: 1, RestaurantID: 10}, Projected: 90, Ledger: 100}, drift[0])
}

func TestReferralRepository_CreateEdgeKeepsExisting(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	created := time.Now().Add(-time.Hour)

	mock.ExpectQuery("INSERT INTO referral_edges").
		WithArgs(int32(2), int32(3), int32(10), int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	mock.ExpectQuery("SELECT downline_user_id, upline_user_id, restaurant_id, level, created_at").
		WithArgs(int32(2), int32(10)).
		WillReturnRows(sqlmock.NewRows([]string{"downline_user_id", "upline_user_id", "restaurant_id", "level", "created_at"}).
			AddRow(2, 1, 10, 1, created))

	edge := &domain.ReferralEdge{DownlineUserID: 2, UplineUserID: 3, RestaurantID: 10}
	ok, err := s.Referrals().CreateEdge(ctx, edge)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(1), edge.UplineUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralRepository_SavePendingConflict(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO pending_referrals").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "pending_referrals_pkey"})

	err := s.Referrals().SavePending(context.Background(), &domain.PendingReferral{CustomerID: 2, RestaurantID: 10, Code: "X", UplineUserID: 1})
	assert.ErrorIs(t, err, domain.ErrAlreadyReferred)
}

func TestTransactionRepository_GetByIDDecodesSnapshot(t *testing.T) {
	s, mock := newMockStore(t)
	id := "5b0d0a6e-8f9e-4d7c-9f43-1f9c2f0d3e11"
	snapshot := []byte(`{"guaranteed_discount_percent":"5","upline_reward_percent":"2.5","max_redemption_percent":"20","vc_expiry_days":90,"max_upline_levels":3}`)
	cols := []string{"id", "customer_id", "restaurant_id", "branch_id", "staff_id", "bill_amount",
		"guaranteed_discount_amount", "requested_redeem_amount", "vc_redeemed", "final_amount", "is_first_transaction",
		"status", "receipt_ref", "notes", "reward_config_snapshot", "void_reason", "voided_by", "voided_at", "created_at"}

	mock.ExpectQuery("SELECT id, customer_id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(id, 2, 10, 1, 4, 10000, 500, 0, 0, 9500, true,
			"COMPLETED", "", "", snapshot, "", nil, nil, time.Now()))

	txn, err := s.Transactions().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(9500), txn.FinalAmount)
	assert.True(t, txn.RewardConfig.UplineRewardPercent.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, int32(90), txn.RewardConfig.VCExpiryDays)
	assert.Nil(t, txn.VoidedBy)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"deadlock", &pq.Error{Code: "40P01"}, domain.ErrConcurrentModification},
		{"serialization", &pq.Error{Code: "40001"}, domain.ErrConcurrentModification},
		{"check", &pq.Error{Code: "23514"}, domain.ErrInvariantViolation},
		{"fk", &pq.Error{Code: "23503"}, domain.ErrNotFound},
		{"other unique", &pq.Error{Code: "23505", Constraint: "users_referral_code_key"}, domain.ErrValidation},
		{"domain passthrough", domain.ErrAlreadyReferred, domain.ErrAlreadyReferred},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}
	assert.NoError(t, mapError(nil))
}
