package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/service"
)

func (f *fixture) redeem(userID int32, amount int64) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.AppendEntries(f.ctx, []*domain.LedgerEntry{{
		UserID: userID, RestaurantID: f.restaurantID, Type: domain.LedgerEntryTypeRedeem, Amount: amount,
	}}))
}

func TestSweep_ExpiresUnspentRemainder(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("u", "UCODE")
	early := f.credit(u, 300, time.Hour)
	late := f.credit(u, 200, 48*time.Hour)
	f.redeem(u, 100)

	f.now = f.now.Add(2 * time.Hour)
	report, err := f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, int64(200), report.ExpiredAmount)
	assert.Equal(t, int64(200), f.available(u))

	offset, err := f.store.Ledger().HasOffset(f.ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, offset)

	f.now = f.now.Add(48 * time.Hour)
	report, err = f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, int64(200), report.ExpiredAmount)
	assert.Equal(t, int64(0), f.available(u))

	offset, err = f.store.Ledger().HasOffset(f.ctx, late.ID)
	require.NoError(t, err)
	assert.True(t, offset)
}

func TestSweep_SpendingConsumesEarliestLotsFirst(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("u", "UCODE")
	f.credit(u, 300, time.Hour)
	f.credit(u, 200, 48*time.Hour)
	f.redeem(u, 350)

	f.now = f.now.Add(2 * time.Hour)
	report, err := f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	// The first lot was spent entirely; its expire entry closes it at zero.
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, int64(0), report.ExpiredAmount)
	assert.Equal(t, int64(150), f.available(u))

	entries, _, err := f.ledger.GetLedgerEntries(f.ctx, u, f.restaurantID, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, domain.LedgerEntryTypeExpire, entries[0].Type)
	assert.Equal(t, int64(0), entries[0].Amount)
}

func TestSweep_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("u", "UCODE")
	f.credit(u, 300, time.Hour)

	f.now = f.now.Add(2 * time.Hour)
	first, err := f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Expired)

	second, err := f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Scanned)
	assert.Equal(t, int64(0), second.ExpiredAmount)

	bal, err := f.ledger.GetBalance(f.ctx, u, f.restaurantID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), bal.Expired)
}

func TestSweep_PagesThroughBatches(t *testing.T) {
	f := newFixture(t, service.WithBatchSize(2))
	u := f.addUser("u", "UCODE")
	for i := 0; i < 5; i++ {
		f.credit(u, 10, time.Hour)
	}
	f.credit(u, 10, 72*time.Hour)

	f.now = f.now.Add(2 * time.Hour)
	report, err := f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 5, report.Expired)
	assert.Equal(t, int64(50), report.ExpiredAmount)
	assert.Equal(t, int64(10), f.available(u))
}

func TestSweep_FailedLotIsRetriedNextRun(t *testing.T) {
	f := newFixture(t)
	a := f.addUser("a", "ACODE")
	b := f.addUser("b", "BCODE")
	f.credit(a, 100, time.Hour)
	f.credit(b, 100, time.Hour)

	f.now = f.now.Add(2 * time.Hour)
	f.store.FailNextCommit(errors.New("connection reset"))
	report, err := f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Expired)

	report, err = f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, int64(0), f.available(a))
	assert.Equal(t, int64(0), f.available(b))
}

func TestSweep_SkipsLotsClawedBackByVoid(t *testing.T) {
	f := newFixture(t)
	up := f.addUser("upline", "UPCODE")
	c := f.addUser("c", "CCODE")
	f.link(c, up)

	res, err := f.checkout.ProcessCheckout(f.ctx, f.checkoutReq(c, 10000, 0))
	require.NoError(t, err)
	_, err = f.checkout.VoidTransaction(f.ctx, &domain.VoidRequest{TransactionID: res.TransactionID, Reason: "refund", VoidedBy: f.managerID})
	require.NoError(t, err)

	f.now = f.now.AddDate(0, 0, 31)
	report, err := f.expiry.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, int64(0), f.available(up))
}
