package utils

import (
	"fmt"

	"github.com/shopspring/decimal"

	"loyalty-ledger-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Rounding selects how a fractional cent is resolved.
type Rounding int

const (
	// RoundDown never grants more than the percentage allows.
	RoundDown Rounding = iota
	// RoundHalfUp is used for customer-facing discounts.
	RoundHalfUp
)

// CheckoutPricingInput carries everything needed to price a checkout.
type CheckoutPricingInput struct {
	BillAmount            int64
	RequestedRedeemAmount int64
	AvailableBalance      int64
	IsFirstTransaction    bool
	Config                domain.RewardConfigSnapshot
}

// CheckoutPricing provides the detailed breakdown of a checkout.
type CheckoutPricing struct {
	GuaranteedDiscount int64
	MaxRedeemable      int64
	Redeemed           int64
	RedemptionClamped  bool
	FinalAmount        int64
}

// PercentOf returns percent% of amountCents in whole cents.
func PercentOf(amountCents int64, percent decimal.Decimal, mode Rounding) int64 {
	if amountCents <= 0 || !percent.IsPositive() {
		return 0
	}
	v := decimal.NewFromInt(amountCents).Mul(percent).Div(hundred)
	switch mode {
	case RoundHalfUp:
		v = v.Round(0)
	default:
		v = v.Floor()
	}
	return v.IntPart()
}

// ValidatePercent checks that p lies in [0, 100].
func ValidatePercent(name string, p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fmt.Errorf("%s must be between 0 and 100, got %s", name, p.String())
	}
	return nil
}

// CalculateCheckoutPricing applies the first-visit discount and clamps the
// requested redemption to min(bill x maxRedemption%, balance, bill - discount).
func CalculateCheckoutPricing(in CheckoutPricingInput) CheckoutPricing {
	var out CheckoutPricing

	if in.IsFirstTransaction {
		out.GuaranteedDiscount = PercentOf(in.BillAmount, in.Config.GuaranteedDiscountPercent, RoundHalfUp)
		if out.GuaranteedDiscount > in.BillAmount {
			out.GuaranteedDiscount = in.BillAmount
		}
	}

	available := in.AvailableBalance
	if available < 0 {
		available = 0
	}
	out.MaxRedeemable = MinInt64(
		PercentOf(in.BillAmount, in.Config.MaxRedemptionPercent, RoundDown),
		available,
		in.BillAmount-out.GuaranteedDiscount,
	)
	if out.MaxRedeemable < 0 {
		out.MaxRedeemable = 0
	}

	out.Redeemed = in.RequestedRedeemAmount
	if out.Redeemed > out.MaxRedeemable {
		out.Redeemed = out.MaxRedeemable
		out.RedemptionClamped = true
	}
	if out.Redeemed < 0 {
		out.Redeemed = 0
	}

	out.FinalAmount = in.BillAmount - out.GuaranteedDiscount - out.Redeemed
	if out.FinalAmount < 0 {
		out.FinalAmount = 0
	}
	return out
}

// CalculateUplineReward is the flat per-level reward for a bill.
func CalculateUplineReward(billAmount int64, rewardPercent decimal.Decimal) int64 {
	return PercentOf(billAmount, rewardPercent, RoundDown)
}

// MinInt64 returns the smallest of the given values.
func MinInt64(first int64, rest ...int64) int64 {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}

// FormatCents renders an amount as major.minor units, e.g. 1234 -> "12.34".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
