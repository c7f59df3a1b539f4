package domain

import "time"

const MaxReferralLevels = 3

// ReferralEdge links a customer to the upline that referred them at one
// restaurant. Stored edges are always level 1; deeper levels are derived.
type ReferralEdge struct {
	DownlineUserID int32     `json:"downline_user_id"`
	UplineUserID   int32     `json:"upline_user_id"`
	RestaurantID   int32     `json:"restaurant_id"`
	Level          int32     `json:"level"`
	CreatedAt      time.Time `json:"created_at"`
}

type PendingReferralStatus string

const (
	PendingReferralStatusPending   PendingReferralStatus = "PENDING"
	PendingReferralStatusConverted PendingReferralStatus = "CONVERTED"
	PendingReferralStatusRejected  PendingReferralStatus = "REJECTED"
)

// PendingReferral is a referral code saved at registration and converted into
// an edge on the customer's first transaction at the restaurant.
type PendingReferral struct {
	CustomerID   int32                 `json:"customer_id"`
	RestaurantID int32                 `json:"restaurant_id"`
	Code         string                `json:"code"`
	UplineUserID int32                 `json:"upline_user_id"`
	Status       PendingReferralStatus `json:"status"`
	RejectReason string                `json:"reject_reason,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	ResolvedAt   *time.Time            `json:"resolved_at,omitempty"`
}

type CodeRejectReason string

const (
	CodeRejectRestaurantNotFound CodeRejectReason = "restaurant_not_found"
	CodeRejectUnknownCode        CodeRejectReason = "unknown_code"
	CodeRejectSelfReferral       CodeRejectReason = "self_referral"
	CodeRejectCycle              CodeRejectReason = "cycle"
	CodeRejectAlreadyReferred    CodeRejectReason = "already_referred"
)

type CodeValidation struct {
	Valid        bool             `json:"valid"`
	UplineUserID int32            `json:"upline_user_id,omitempty"`
	Reason       CodeRejectReason `json:"reason,omitempty"`
}

// AttributedReward is the VC one upline earns from a downline's checkout.
type AttributedReward struct {
	UplineUserID  int32 `json:"upline_user_id"`
	Level         int32 `json:"level"`
	Amount        int64 `json:"amount"`
	LedgerEntryID int64 `json:"ledger_entry_id,omitempty"`
}

type UplineLink struct {
	UplineUserID int32 `json:"upline_user_id"`
	Level        int32 `json:"level"`
}
