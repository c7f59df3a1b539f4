package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/service"
)

func TestValidateCode_Reasons(t *testing.T) {
	f := newFixture(t)
	x := f.addUser("x", "XCODE")
	y := f.addUser("y", "YCODE")
	e := f.addUser("e", "ECODE")
	z := f.addUser("z", "ZCODE")
	f.link(y, x)
	f.link(x, e)
	// m is already referred: m -> n -> o.
	m := f.addUser("m", "MCODE")
	n := f.addUser("n", "NCODE")
	o := f.addUser("o", "OCODE")
	f.link(m, n)
	f.link(n, o)

	closed := &domain.Restaurant{Name: "Closed", Active: false}
	require.NoError(t, f.store.Restaurants().Create(f.ctx, closed))

	tests := []struct {
		name       string
		customer   int32
		restaurant int32
		code       string
		valid      bool
		reason     domain.CodeRejectReason
		upline     int32
	}{
		{"unknown restaurant", z, 999, "XCODE", false, domain.CodeRejectRestaurantNotFound, 0},
		{"inactive restaurant", z, closed.ID, "XCODE", false, domain.CodeRejectRestaurantNotFound, 0},
		{"unknown code", z, f.restaurantID, "NOPE", false, domain.CodeRejectUnknownCode, 0},
		{"own code", z, f.restaurantID, "ZCODE", false, domain.CodeRejectSelfReferral, 0},
		// e would be referred by its own level-2 downline y.
		{"cycle", e, f.restaurantID, "YCODE", false, domain.CodeRejectCycle, 0},
		{"already referred", y, f.restaurantID, "ZCODE", false, domain.CodeRejectAlreadyReferred, 0},
		// m using its own level-2 upline's code is not a cycle.
		{"own level-2 upline", m, f.restaurantID, "OCODE", false, domain.CodeRejectAlreadyReferred, 0},
		{"valid", z, f.restaurantID, " YCODE ", true, "", y},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := f.referral.ValidateCode(f.ctx, tt.customer, tt.restaurant, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, v.Valid)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Equal(t, tt.upline, v.UplineUserID)
		})
	}

	edge, err := f.store.Referrals().GetEdge(f.ctx, e, f.restaurantID)
	require.NoError(t, err)
	assert.Nil(t, edge)
}

func TestSaveReferralCode(t *testing.T) {
	f := newFixture(t)
	up := f.addUser("upline", "UPCODE")
	other := f.addUser("other", "OTHER")
	c := f.addUser("c", "CCODE")

	p, err := f.referral.SaveReferralCode(f.ctx, c, f.restaurantID, "UPCODE")
	require.NoError(t, err)
	assert.Equal(t, up, p.UplineUserID)
	assert.Equal(t, domain.PendingReferralStatusPending, p.Status)

	// The first saved code wins.
	_, err = f.referral.SaveReferralCode(f.ctx, c, f.restaurantID, "OTHER")
	assert.ErrorIs(t, err, domain.ErrAlreadyReferred)

	_, err = f.referral.SaveReferralCode(f.ctx, other, f.restaurantID, "OTHER")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), string(domain.CodeRejectSelfReferral))

	_, err = f.referral.SaveReferralCode(f.ctx, 999, f.restaurantID, "UPCODE")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.referral.SaveReferralCode(f.ctx, other, f.restaurantID, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetUplineChain_StopsAtThreeLevels(t *testing.T) {
	f := newFixture(t)
	ids := make([]int32, 5)
	for i := range ids {
		ids[i] = f.addUser("u"+string(rune('a'+i)), "CODE"+string(rune('A'+i)))
	}
	for i := 0; i < len(ids)-1; i++ {
		f.link(ids[i], ids[i+1])
	}

	chain, err := f.referral.GetUplineChain(f.ctx, ids[0], f.restaurantID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	for i, l := range chain {
		assert.Equal(t, ids[i+1], l.UplineUserID)
		assert.Equal(t, int32(i+1), l.Level)
	}

	chain, err = f.referral.GetUplineChain(f.ctx, ids[3], f.restaurantID)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, ids[4], chain[0].UplineUserID)
}

func TestResolveRewards(t *testing.T) {
	f := newFixture(t)
	a := f.addUser("a", "ACODE")
	b := f.addUser("b", "BCODE")
	c := f.addUser("c", "CCODE")
	f.link(c, b)
	f.link(b, a)
	ctx := context.Background()

	rewards, err := service.ResolveRewards(ctx, f.store, f.restaurantID, c, 10050, decimal.RequireFromString("1.5"), 3)
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	assert.Equal(t, domain.AttributedReward{UplineUserID: b, Level: 1, Amount: 150}, rewards[0])
	assert.Equal(t, domain.AttributedReward{UplineUserID: a, Level: 2, Amount: 150}, rewards[1])

	rewards, err = service.ResolveRewards(ctx, f.store, f.restaurantID, c, 10050, decimal.RequireFromString("1.5"), 1)
	require.NoError(t, err)
	assert.Len(t, rewards, 1)

	// Rewards that round down to zero are omitted.
	rewards, err = service.ResolveRewards(ctx, f.store, f.restaurantID, c, 50, decimal.RequireFromString("1"), 3)
	require.NoError(t, err)
	assert.Empty(t, rewards)
}
