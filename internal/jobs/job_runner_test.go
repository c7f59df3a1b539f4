package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/service"
)

type MockExpiryService struct {
	mock.Mock
}

func (m *MockExpiryService) SweepExpired(ctx context.Context) (*service.SweepReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepReport), args.Error(1)
}

// MockLedgerService implements only what the jobs call.
type MockLedgerService struct {
	service.LedgerService
	mock.Mock
}

func (m *MockLedgerService) ReconcileWallets(ctx context.Context) ([]domain.WalletDrift, error) {
	args := m.Called(ctx)
	drift, _ := args.Get(0).([]domain.WalletDrift)
	return drift, args.Error(1)
}

func TestJobRunner_ExpireVirtualCurrency(t *testing.T) {
	expiry := new(MockExpiryService)
	jr := NewJobRunner(&Services{Expiry: expiry}, &config.Config{}, nil)

	expiry.On("SweepExpired", mock.Anything).Return(&service.SweepReport{Scanned: 3, Expired: 2, Failed: 1}, nil).Once()
	assert.NoError(t, jr.ExpireVirtualCurrency())

	expiry.On("SweepExpired", mock.Anything).Return(nil, errors.New("db down")).Once()
	assert.Error(t, jr.ExpireVirtualCurrency())
	expiry.AssertExpectations(t)
}

func TestJobRunner_RecoversFromPanic(t *testing.T) {
	expiry := new(MockExpiryService)
	jr := NewJobRunner(&Services{Expiry: expiry}, &config.Config{}, nil)

	expiry.On("SweepExpired", mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Once()
	var err error
	require.NotPanics(t, func() { err = jr.ExpireVirtualCurrency() })
	assert.ErrorContains(t, err, "panicked")
}

func TestJobRunner_RunByName(t *testing.T) {
	expiry := new(MockExpiryService)
	ledger := new(MockLedgerService)
	jr := NewJobRunner(&Services{Expiry: expiry, Ledger: ledger}, &config.Config{}, nil)

	expiry.On("SweepExpired", mock.Anything).Return(&service.SweepReport{}, nil).Once()
	ledger.On("ReconcileWallets", mock.Anything).Return([]domain.WalletDrift{
		{Wallet: domain.WalletKey{UserID: 1, RestaurantID: 2}, Projected: 10, Ledger: 5},
	}, nil).Once()
	assert.NoError(t, jr.Run("all"))

	assert.Error(t, jr.Run("send-bill-reminders"))
	expiry.AssertExpectations(t)
	ledger.AssertExpectations(t)
}
