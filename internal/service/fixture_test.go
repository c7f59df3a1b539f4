package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/repository/memory"
	"loyalty-ledger-backend/internal/service"
)

// fixture is a restaurant with one branch, a cashier and a manager, backed
// by the in-memory store.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	now   time.Time
	store *memory.Store

	restaurantID int32
	branchID     int32
	cashierID    int32
	managerID    int32

	checkout service.CheckoutService
	ledger   service.LedgerService
	referral service.ReferralService
	expiry   service.ExpiryService
	config   service.RestaurantService
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()
	f := &fixture{
		t:   t,
		ctx: context.Background(),
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.store = memory.NewStore(2*time.Second, memory.WithClock(clock))

	opts = append([]service.Option{service.WithClock(clock)}, opts...)
	f.checkout = service.NewCheckoutService(f.store, nil, nil, opts...)
	f.ledger = service.NewLedgerService(f.store, nil, opts...)
	f.referral = service.NewReferralService(f.store, opts...)
	f.expiry = service.NewExpiryService(f.store, nil, opts...)
	f.config = service.NewRestaurantService(f.store, opts...)

	r := &domain.Restaurant{Name: "Nasi Lemak House", Active: true}
	require.NoError(t, f.store.Restaurants().Create(f.ctx, r))
	f.restaurantID = r.ID

	b := &domain.Branch{RestaurantID: r.ID, Name: "Bangsar"}
	require.NoError(t, f.store.Restaurants().CreateBranch(f.ctx, b))
	f.branchID = b.ID

	cashier := &domain.Staff{RestaurantID: r.ID, BranchID: b.ID, Name: "Aina", Role: domain.StaffRoleCashier}
	require.NoError(t, f.store.Restaurants().CreateStaff(f.ctx, cashier))
	f.cashierID = cashier.ID

	manager := &domain.Staff{RestaurantID: r.ID, Name: "Hafiz", Role: domain.StaffRoleManager}
	require.NoError(t, f.store.Restaurants().CreateStaff(f.ctx, manager))
	f.managerID = manager.ID

	f.setConfig("5", "1", "20", 30)
	return f
}

func (f *fixture) setConfig(discount, reward, maxRedeem string, expiryDays int32) {
	f.t.Helper()
	require.NoError(f.t, f.config.SetRewardConfig(f.ctx, &domain.RewardConfig{
		RestaurantID:              f.restaurantID,
		GuaranteedDiscountPercent: decimal.RequireFromString(discount),
		UplineRewardPercent:       decimal.RequireFromString(reward),
		MaxRedemptionPercent:      decimal.RequireFromString(maxRedeem),
		VCExpiryDays:              expiryDays,
		MaxUplineLevels:           domain.MaxReferralLevels,
	}))
}

func (f *fixture) addUser(name, code string) int32 {
	f.t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", ReferralCode: code}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return u.ID
}

// link stores a level-1 edge directly, as if the downline's first visit
// had already converted it.
func (f *fixture) link(downline, upline int32) {
	f.t.Helper()
	created, err := f.store.Referrals().CreateEdge(f.ctx, &domain.ReferralEdge{
		DownlineUserID: downline,
		UplineUserID:   upline,
		RestaurantID:   f.restaurantID,
		Level:          1,
		CreatedAt:      f.now,
	})
	require.NoError(f.t, err)
	require.True(f.t, created)
}

// credit posts an earn lot for the user expiring after the given duration.
func (f *fixture) credit(userID int32, amount int64, expiresIn time.Duration) *domain.LedgerEntry {
	f.t.Helper()
	exp := f.now.Add(expiresIn)
	e := &domain.LedgerEntry{
		UserID:        userID,
		RestaurantID:  f.restaurantID,
		Type:          domain.LedgerEntryTypeEarn,
		Amount:        amount,
		ReferralLevel: 1,
		ExpiresAt:     &exp,
		Description:   "seed",
	}
	require.NoError(f.t, f.ledger.AppendEntries(f.ctx, []*domain.LedgerEntry{e}))
	return e
}

// visit records a prior visit so the next checkout is not the first.
func (f *fixture) visit(userID int32) {
	f.t.Helper()
	require.NoError(f.t, f.store.History().RecordVisit(f.ctx, userID, f.restaurantID, 1000, f.now.Add(-48*time.Hour)))
}

func (f *fixture) available(userID int32) int64 {
	f.t.Helper()
	bal, err := f.ledger.GetBalance(f.ctx, userID, f.restaurantID)
	require.NoError(f.t, err)
	return bal.Available()
}

func (f *fixture) checkoutReq(customerID int32, bill, redeem int64) *domain.CheckoutRequest {
	return &domain.CheckoutRequest{
		CustomerID:            customerID,
		RestaurantID:          f.restaurantID,
		BranchID:              f.branchID,
		StaffID:               f.cashierID,
		BillAmount:            bill,
		RequestedRedeemAmount: redeem,
	}
}

type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) GetUploadUrl(ctx context.Context, restaurantID int32, filename, contentType string) (*service.ReceiptUpload, error) {
	args := m.Called(ctx, restaurantID, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReceiptUpload), args.Error(1)
}

func (m *MockReceiptService) ReceiptExists(ctx context.Context, ref string) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}
