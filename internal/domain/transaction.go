package domain

import "time"

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusVoided    TransactionStatus = "VOIDED"
)

// Transaction is one point-of-sale checkout. Amounts are in cents.
type Transaction struct {
	ID                       string               `json:"id"`
	CustomerID               int32                `json:"customer_id"`
	RestaurantID             int32                `json:"restaurant_id"`
	BranchID                 int32                `json:"branch_id"`
	StaffID                  int32                `json:"staff_id"`
	BillAmount               int64                `json:"bill_amount"`
	GuaranteedDiscountAmount int64                `json:"guaranteed_discount_amount"`
	RequestedRedeemAmount    int64                `json:"requested_redeem_amount"`
	VirtualCurrencyRedeemed  int64                `json:"virtual_currency_redeemed"`
	FinalAmount              int64                `json:"final_amount"`
	IsFirstTransaction       bool                 `json:"is_first_transaction"`
	Status                   TransactionStatus    `json:"status"`
	ReceiptRef               string               `json:"receipt_ref,omitempty"`
	Notes                    string               `json:"notes,omitempty"`
	RewardConfig             RewardConfigSnapshot `json:"reward_config"`
	VoidReason               string               `json:"void_reason,omitempty"`
	VoidedBy                 *int32               `json:"voided_by,omitempty"`
	VoidedAt                 *time.Time           `json:"voided_at,omitempty"`
	CreatedAt                time.Time            `json:"created_at"`
}

// CheckoutRequest is the input of a point-of-sale checkout.
type CheckoutRequest struct {
	CustomerID            int32  `json:"customer_id" validate:"required,gt=0"`
	RestaurantID          int32  `json:"restaurant_id" validate:"required,gt=0"`
	BranchID              int32  `json:"branch_id" validate:"required,gt=0"`
	StaffID               int32  `json:"staff_id" validate:"required,gt=0"`
	BillAmount            int64  `json:"bill_amount" validate:"gt=0"`
	RequestedRedeemAmount int64  `json:"requested_redeem_amount" validate:"gte=0"`
	ReceiptRef            string `json:"receipt_ref,omitempty" validate:"max=512"`
	Notes                 string `json:"notes,omitempty" validate:"max=1000"`
}

// CheckoutBreakdown explains how the final amount was derived.
type CheckoutBreakdown struct {
	BillAmount          int64              `json:"bill_amount"`
	GuaranteedDiscount  int64              `json:"guaranteed_discount"`
	RequestedRedeem     int64              `json:"requested_redeem"`
	Redeemed            int64              `json:"redeemed"`
	RedemptionClamped   bool               `json:"redemption_clamped"`
	FinalAmount         int64              `json:"final_amount"`
	IsFirstTransaction  bool               `json:"is_first_transaction"`
	ReferralEdgeCreated bool               `json:"referral_edge_created"`
	BalanceAfter        int64              `json:"balance_after"`
	Rewards             []AttributedReward `json:"rewards"`
}

type CheckoutResult struct {
	TransactionID string            `json:"transaction_id"`
	Breakdown     CheckoutBreakdown `json:"breakdown"`
}

type VoidRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid"`
	Reason        string `json:"reason" validate:"required,max=500"`
	VoidedBy      int32  `json:"voided_by" validate:"required,gt=0"`
}

// TransactionDetail is a transaction together with the ledger entries it posted.
type TransactionDetail struct {
	Transaction Transaction   `json:"transaction"`
	Entries     []LedgerEntry `json:"entries"`
}
