package domain

import "time"

type LedgerEntryType string

const (
	LedgerEntryTypeEarn   LedgerEntryType = "EARN"
	LedgerEntryTypeRedeem LedgerEntryType = "REDEEM"
	LedgerEntryTypeExpire LedgerEntryType = "EXPIRE"
	LedgerEntryTypeAdjust LedgerEntryType = "ADJUST"
)

func (t LedgerEntryType) Valid() bool {
	switch t {
	case LedgerEntryTypeEarn, LedgerEntryTypeRedeem, LedgerEntryTypeExpire, LedgerEntryTypeAdjust:
		return true
	}
	return false
}

type AdjustDirection string

const (
	AdjustDirectionCredit AdjustDirection = "CREDIT"
	AdjustDirectionDebit  AdjustDirection = "DEBIT"
)

// LedgerEntry is an immutable movement of virtual currency in one wallet.
// Amount is always non-negative; Type and Direction decide the sign.
type LedgerEntry struct {
	ID                   int64           `json:"id"`
	UserID               int32           `json:"user_id"`
	RestaurantID         int32           `json:"restaurant_id"`
	Type                 LedgerEntryType `json:"type"`
	Amount               int64           `json:"amount"`
	Direction            AdjustDirection `json:"direction,omitempty"`
	ReferralLevel        int32           `json:"referral_level,omitempty"`
	RelatedTransactionID *string         `json:"related_transaction_id,omitempty"`
	SourceLedgerEntryID  *int64          `json:"source_ledger_entry_id,omitempty"`
	ExpiresAt            *time.Time      `json:"expires_at,omitempty"`
	Description          string          `json:"description"`
	CreatedAt            time.Time       `json:"created_at"`
}

func (e *LedgerEntry) Wallet() WalletKey {
	return WalletKey{UserID: e.UserID, RestaurantID: e.RestaurantID}
}

// SignedAmount is the effect of the entry on the available balance.
func (e *LedgerEntry) SignedAmount() int64 {
	switch e.Type {
	case LedgerEntryTypeEarn:
		return e.Amount
	case LedgerEntryTypeRedeem, LedgerEntryTypeExpire:
		return -e.Amount
	case LedgerEntryTypeAdjust:
		if e.Direction == AdjustDirectionCredit {
			return e.Amount
		}
		return -e.Amount
	}
	return 0
}

// IsOffset reports whether the entry closes another entry (expiry of a lot,
// clawback of an earn or reversal of a redemption).
func (e *LedgerEntry) IsOffset() bool {
	return e.SourceLedgerEntryID != nil
}

// WalletKey identifies a restaurant-scoped wallet.
type WalletKey struct {
	UserID       int32 `json:"user_id"`
	RestaurantID int32 `json:"restaurant_id"`
}

// Less orders wallets for lock acquisition.
func (k WalletKey) Less(o WalletKey) bool {
	if k.UserID != o.UserID {
		return k.UserID < o.UserID
	}
	return k.RestaurantID < o.RestaurantID
}

// WalletBalance is the projection of a wallet's ledger entries.
type WalletBalance struct {
	UserID         int32     `json:"user_id"`
	RestaurantID   int32     `json:"restaurant_id"`
	Earned         int64     `json:"earned"`
	Redeemed       int64     `json:"redeemed"`
	Expired        int64     `json:"expired"`
	AdjustedCredit int64     `json:"adjusted_credit"`
	AdjustedDebit  int64     `json:"adjusted_debit"`
	Version        int64     `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (b *WalletBalance) Available() int64 {
	return b.Earned - b.Redeemed - b.Expired + b.AdjustedCredit - b.AdjustedDebit
}

// Apply folds an entry into the projection.
func (b *WalletBalance) Apply(e *LedgerEntry) {
	switch e.Type {
	case LedgerEntryTypeEarn:
		b.Earned += e.Amount
	case LedgerEntryTypeRedeem:
		b.Redeemed += e.Amount
	case LedgerEntryTypeExpire:
		b.Expired += e.Amount
	case LedgerEntryTypeAdjust:
		if e.Direction == AdjustDirectionCredit {
			b.AdjustedCredit += e.Amount
		} else {
			b.AdjustedDebit += e.Amount
		}
	}
}

// AdjustRequest is a manual correction posted by restaurant staff.
type AdjustRequest struct {
	UserID       int32           `json:"user_id" validate:"required,gt=0"`
	RestaurantID int32           `json:"restaurant_id" validate:"required,gt=0"`
	Amount       int64           `json:"amount" validate:"gt=0"`
	Direction    AdjustDirection `json:"direction" validate:"required,oneof=CREDIT DEBIT"`
	Reason       string          `json:"reason" validate:"required,max=500"`
	StaffID      int32           `json:"staff_id"`
}

// WalletDrift is reported by reconciliation when the projected row disagrees
// with the ledger.
type WalletDrift struct {
	Wallet    WalletKey `json:"wallet"`
	Projected int64     `json:"projected"`
	Ledger    int64     `json:"ledger"`
}
