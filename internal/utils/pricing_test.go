package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"loyalty-ledger-backend/internal/domain"
)

func pct(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		percent  decimal.Decimal
		mode     Rounding
		expected int64
	}{
		{"exact", 10000, pct(5), RoundDown, 500},
		{"floor drops fraction", 999, pct(1), RoundDown, 9},
		{"half up rounds", 950, pct(5), RoundHalfUp, 48},
		{"half up keeps lower", 940, pct(5), RoundHalfUp, 47},
		{"fractional percent", 10000, pct(2.5), RoundDown, 250},
		{"zero percent", 10000, decimal.Zero, RoundDown, 0},
		{"zero amount", 0, pct(50), RoundHalfUp, 0},
		{"negative amount", -100, pct(50), RoundHalfUp, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PercentOf(tt.amount, tt.percent, tt.mode))
		})
	}
}

func TestValidatePercent(t *testing.T) {
	assert.NoError(t, ValidatePercent("discount", pct(0)))
	assert.NoError(t, ValidatePercent("discount", pct(100)))
	assert.NoError(t, ValidatePercent("discount", pct(12.5)))

	err := ValidatePercent("discount", pct(100.01))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "discount must be between 0 and 100")

	assert.Error(t, ValidatePercent("discount", pct(-1)))
}

func TestCalculateCheckoutPricing(t *testing.T) {
	cfg := domain.RewardConfigSnapshot{
		GuaranteedDiscountPercent: pct(5),
		UplineRewardPercent:       pct(1),
		MaxRedemptionPercent:      pct(20),
		VCExpiryDays:              90,
		MaxUplineLevels:           3,
	}

	t.Run("First visit with no balance", func(t *testing.T) {
		p := CalculateCheckoutPricing(CheckoutPricingInput{
			BillAmount:         10000,
			IsFirstTransaction: true,
			Config:             cfg,
		})
		assert.Equal(t, int64(500), p.GuaranteedDiscount)
		assert.Equal(t, int64(0), p.Redeemed)
		assert.False(t, p.RedemptionClamped)
		assert.Equal(t, int64(9500), p.FinalAmount)
	})

	t.Run("Redemption clamped to max percent", func(t *testing.T) {
		p := CalculateCheckoutPricing(CheckoutPricingInput{
			BillAmount:            4000,
			RequestedRedeemAmount: 2000,
			AvailableBalance:      5000,
			Config:                cfg,
		})
		assert.Equal(t, int64(0), p.GuaranteedDiscount)
		assert.Equal(t, int64(800), p.MaxRedeemable)
		assert.Equal(t, int64(800), p.Redeemed)
		assert.True(t, p.RedemptionClamped)
		assert.Equal(t, int64(3200), p.FinalAmount)
	})

	t.Run("Redemption clamped to balance", func(t *testing.T) {
		p := CalculateCheckoutPricing(CheckoutPricingInput{
			BillAmount:            10000,
			RequestedRedeemAmount: 800,
			AvailableBalance:      200,
			Config:                cfg,
		})
		assert.Equal(t, int64(200), p.Redeemed)
		assert.True(t, p.RedemptionClamped)
		assert.Equal(t, int64(9800), p.FinalAmount)
	})

	t.Run("Request within limits is honoured", func(t *testing.T) {
		p := CalculateCheckoutPricing(CheckoutPricingInput{
			BillAmount:            10000,
			RequestedRedeemAmount: 300,
			AvailableBalance:      1000,
			Config:                cfg,
		})
		assert.Equal(t, int64(300), p.Redeemed)
		assert.False(t, p.RedemptionClamped)
		assert.Equal(t, int64(9700), p.FinalAmount)
	})

	t.Run("Final amount never negative", func(t *testing.T) {
		generous := cfg
		generous.GuaranteedDiscountPercent = pct(100)
		generous.MaxRedemptionPercent = pct(100)
		p := CalculateCheckoutPricing(CheckoutPricingInput{
			BillAmount:            1000,
			RequestedRedeemAmount: 1000,
			AvailableBalance:      5000,
			IsFirstTransaction:    true,
			Config:                generous,
		})
		assert.Equal(t, int64(1000), p.GuaranteedDiscount)
		assert.Equal(t, int64(0), p.Redeemed)
		assert.Equal(t, int64(0), p.FinalAmount)
	})

	t.Run("Negative balance treated as empty", func(t *testing.T) {
		p := CalculateCheckoutPricing(CheckoutPricingInput{
			BillAmount:            1000,
			RequestedRedeemAmount: 100,
			AvailableBalance:      -50,
			Config:                cfg,
		})
		assert.Equal(t, int64(0), p.Redeemed)
		assert.Equal(t, int64(1000), p.FinalAmount)
	})
}

func TestCalculateUplineReward(t *testing.T) {
	assert.Equal(t, int64(100), CalculateUplineReward(10000, pct(1)))
	assert.Equal(t, int64(0), CalculateUplineReward(99, pct(1)))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12.34", FormatCents(1234))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "100.00", FormatCents(10000))
}
