package grpc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pb "loyalty-ledger-backend/api/v1"
	"loyalty-ledger-backend/internal/domain"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func MapDomainTransactionToProto(t *domain.Transaction) *pb.Transaction {
	if t == nil {
		return nil
	}
	out := &pb.Transaction{
		Id:                       t.ID,
		CustomerId:               t.CustomerID,
		RestaurantId:             t.RestaurantID,
		BranchId:                 t.BranchID,
		StaffId:                  t.StaffID,
		BillAmount:               t.BillAmount,
		GuaranteedDiscountAmount: t.GuaranteedDiscountAmount,
		RequestedRedeemAmount:    t.RequestedRedeemAmount,
		VirtualCurrencyRedeemed:  t.VirtualCurrencyRedeemed,
		FinalAmount:              t.FinalAmount,
		IsFirstTransaction:       t.IsFirstTransaction,
		Status:                   string(t.Status),
		ReceiptRef:               t.ReceiptRef,
		Notes:                    t.Notes,
		RewardConfig:             MapDomainSnapshotToProto(&t.RewardConfig),
		VoidReason:               t.VoidReason,
		CreatedAt:                formatTime(t.CreatedAt),
	}
	if t.VoidedBy != nil {
		out.VoidedBy = *t.VoidedBy
	}
	if t.VoidedAt != nil {
		out.VoidedAt = formatTime(*t.VoidedAt)
	}
	return out
}

func MapDomainTransactionsToProto(txns []domain.Transaction) []*pb.Transaction {
	out := make([]*pb.Transaction, len(txns))
	for i := range txns {
		out[i] = MapDomainTransactionToProto(&txns[i])
	}
	return out
}

func MapDomainLedgerEntryToProto(e *domain.LedgerEntry) *pb.LedgerEntry {
	if e == nil {
		return nil
	}
	out := &pb.LedgerEntry{
		Id:            e.ID,
		UserId:        e.UserID,
		RestaurantId:  e.RestaurantID,
		Type:          string(e.Type),
		Amount:        e.Amount,
		Direction:     string(e.Direction),
		ReferralLevel: e.ReferralLevel,
		Description:   e.Description,
		CreatedAt:     formatTime(e.CreatedAt),
	}
	if e.RelatedTransactionID != nil {
		out.RelatedTransactionId = *e.RelatedTransactionID
	}
	if e.SourceLedgerEntryID != nil {
		out.SourceLedgerEntryId = *e.SourceLedgerEntryID
	}
	if e.ExpiresAt != nil {
		out.ExpiresAt = formatTime(*e.ExpiresAt)
	}
	return out
}

func MapDomainLedgerEntriesToProto(entries []domain.LedgerEntry) []*pb.LedgerEntry {
	out := make([]*pb.LedgerEntry, len(entries))
	for i := range entries {
		out[i] = MapDomainLedgerEntryToProto(&entries[i])
	}
	return out
}

func MapDomainBalanceToProto(b *domain.WalletBalance) *pb.WalletBalance {
	if b == nil {
		return nil
	}
	return &pb.WalletBalance{
		UserId:         b.UserID,
		RestaurantId:   b.RestaurantID,
		Earned:         b.Earned,
		Redeemed:       b.Redeemed,
		Expired:        b.Expired,
		AdjustedCredit: b.AdjustedCredit,
		AdjustedDebit:  b.AdjustedDebit,
		Available:      b.Available(),
		UpdatedAt:      formatTime(b.UpdatedAt),
	}
}

func MapDomainBreakdownToProto(b *domain.CheckoutBreakdown) *pb.CheckoutBreakdown {
	rewards := make([]*pb.AttributedReward, len(b.Rewards))
	for i, r := range b.Rewards {
		rewards[i] = &pb.AttributedReward{
			UplineUserId:  r.UplineUserID,
			Level:         r.Level,
			Amount:        r.Amount,
			LedgerEntryId: r.LedgerEntryID,
		}
	}
	return &pb.CheckoutBreakdown{
		BillAmount:          b.BillAmount,
		GuaranteedDiscount:  b.GuaranteedDiscount,
		RequestedRedeem:     b.RequestedRedeem,
		Redeemed:            b.Redeemed,
		RedemptionClamped:   b.RedemptionClamped,
		FinalAmount:         b.FinalAmount,
		IsFirstTransaction:  b.IsFirstTransaction,
		ReferralEdgeCreated: b.ReferralEdgeCreated,
		BalanceAfter:        b.BalanceAfter,
		Rewards:             rewards,
	}
}

func MapDomainSnapshotToProto(s *domain.RewardConfigSnapshot) *pb.RewardConfig {
	return &pb.RewardConfig{
		GuaranteedDiscountPercent: s.GuaranteedDiscountPercent.String(),
		UplineRewardPercent:       s.UplineRewardPercent.String(),
		MaxRedemptionPercent:      s.MaxRedemptionPercent.String(),
		VcExpiryDays:              s.VCExpiryDays,
		MaxUplineLevels:           s.MaxUplineLevels,
	}
}

func MapDomainRewardConfigToProto(c *domain.RewardConfig) *pb.RewardConfig {
	if c == nil {
		return nil
	}
	out := MapDomainSnapshotToProto(&domain.RewardConfigSnapshot{
		GuaranteedDiscountPercent: c.GuaranteedDiscountPercent,
		UplineRewardPercent:       c.UplineRewardPercent,
		MaxRedemptionPercent:      c.MaxRedemptionPercent,
		VCExpiryDays:              c.VCExpiryDays,
		MaxUplineLevels:           c.MaxUplineLevels,
	})
	out.RestaurantId = c.RestaurantID
	out.UpdatedAt = formatTime(c.UpdatedAt)
	return out
}

// MapProtoRewardConfigToDomain parses the percent strings. A malformed
// percent is a validation error.
func MapProtoRewardConfigToDomain(c *pb.RewardConfig) (*domain.RewardConfig, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: config is required", domain.ErrValidation)
	}
	parse := func(name, v string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", domain.ErrValidation, name, v)
		}
		return d, nil
	}
	discount, err := parse("guaranteed_discount_percent", c.GuaranteedDiscountPercent)
	if err != nil {
		return nil, err
	}
	reward, err := parse("upline_reward_percent", c.UplineRewardPercent)
	if err != nil {
		return nil, err
	}
	maxRedeem, err := parse("max_redemption_percent", c.MaxRedemptionPercent)
	if err != nil {
		return nil, err
	}
	return &domain.RewardConfig{
		RestaurantID:              c.RestaurantId,
		GuaranteedDiscountPercent: discount,
		UplineRewardPercent:       reward,
		MaxRedemptionPercent:      maxRedeem,
		VCExpiryDays:              c.VcExpiryDays,
		MaxUplineLevels:           c.MaxUplineLevels,
	}, nil
}

func MapDomainPendingReferralToProto(p *domain.PendingReferral) *pb.PendingReferral {
	if p == nil {
		return nil
	}
	return &pb.PendingReferral{
		CustomerId:   p.CustomerID,
		RestaurantId: p.RestaurantID,
		Code:         p.Code,
		UplineUserId: p.UplineUserID,
		Status:       string(p.Status),
		RejectReason: p.RejectReason,
		CreatedAt:    formatTime(p.CreatedAt),
	}
}

func MapDomainUplinesToProto(links []domain.UplineLink) []*pb.UplineLink {
	out := make([]*pb.UplineLink, len(links))
	for i, l := range links {
		out[i] = &pb.UplineLink{UplineUserId: l.UplineUserID, Level: l.Level}
	}
	return out
}
