package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Branch struct {
	ID           int32  `json:"id"`
	RestaurantID int32  `json:"restaurant_id"`
	Name         string `json:"name"`
}

type StaffRole string

const (
	StaffRoleCashier StaffRole = "CASHIER"
	StaffRoleManager StaffRole = "MANAGER"
)

type Staff struct {
	ID           int32     `json:"id"`
	RestaurantID int32     `json:"restaurant_id"`
	BranchID     int32     `json:"branch_id"` // 0 means all branches
	Name         string    `json:"name"`
	Role         StaffRole `json:"role"`
}

// WorksAt reports whether the staff member may ring up sales at the branch.
func (s *Staff) WorksAt(restaurantID, branchID int32) bool {
	return s.RestaurantID == restaurantID && (s.BranchID == 0 || s.BranchID == branchID)
}

// RewardConfig is the merchant-owned configuration of discounts and rewards.
// Percentages are expressed in percent, so 5 means 5%.
type RewardConfig struct {
	RestaurantID              int32           `json:"restaurant_id" validate:"required,gt=0"`
	GuaranteedDiscountPercent decimal.Decimal `json:"guaranteed_discount_percent"`
	UplineRewardPercent       decimal.Decimal `json:"upline_reward_percent"`
	MaxRedemptionPercent      decimal.Decimal `json:"max_redemption_percent"`
	VCExpiryDays              int32           `json:"vc_expiry_days" validate:"gte=1,lte=3650"`
	MaxUplineLevels           int32           `json:"max_upline_levels" validate:"gte=1,lte=3"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}

// Snapshot freezes the config for storage on a transaction.
func (c *RewardConfig) Snapshot() RewardConfigSnapshot {
	return RewardConfigSnapshot{
		GuaranteedDiscountPercent: c.GuaranteedDiscountPercent,
		UplineRewardPercent:       c.UplineRewardPercent,
		MaxRedemptionPercent:      c.MaxRedemptionPercent,
		VCExpiryDays:              c.VCExpiryDays,
		MaxUplineLevels:           c.MaxUplineLevels,
	}
}

// RewardConfigSnapshot is the config in force when a transaction was processed.
type RewardConfigSnapshot struct {
	GuaranteedDiscountPercent decimal.Decimal `json:"guaranteed_discount_percent"`
	UplineRewardPercent       decimal.Decimal `json:"upline_reward_percent"`
	MaxRedemptionPercent      decimal.Decimal `json:"max_redemption_percent"`
	VCExpiryDays              int32           `json:"vc_expiry_days"`
	MaxUplineLevels           int32           `json:"max_upline_levels"`
}
