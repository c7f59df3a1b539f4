package v1

// Amounts are integer cents. Percentages are decimal strings in percent.
// Timestamps are RFC 3339 strings.

type Transaction struct {
	Id                       string        `json:"id"`
	CustomerId               int32         `json:"customerId"`
	RestaurantId             int32         `json:"restaurantId"`
	BranchId                 int32         `json:"branchId"`
	StaffId                  int32         `json:"staffId"`
	BillAmount               int64         `json:"billAmount"`
	GuaranteedDiscountAmount int64         `json:"guaranteedDiscountAmount"`
	RequestedRedeemAmount    int64         `json:"requestedRedeemAmount"`
	VirtualCurrencyRedeemed  int64         `json:"virtualCurrencyRedeemed"`
	FinalAmount              int64         `json:"finalAmount"`
	IsFirstTransaction       bool          `json:"isFirstTransaction"`
	Status                   string        `json:"status"`
	ReceiptRef               string        `json:"receiptRef,omitempty"`
	Notes                    string        `json:"notes,omitempty"`
	RewardConfig             *RewardConfig `json:"rewardConfig,omitempty"`
	VoidReason               string        `json:"voidReason,omitempty"`
	VoidedBy                 int32         `json:"voidedBy,omitempty"`
	VoidedAt                 string        `json:"voidedAt,omitempty"`
	CreatedAt                string        `json:"createdAt"`
}

type LedgerEntry struct {
	Id                   int64  `json:"id"`
	UserId               int32  `json:"userId"`
	RestaurantId         int32  `json:"restaurantId"`
	Type                 string `json:"type"`
	Amount               int64  `json:"amount"`
	Direction            string `json:"direction,omitempty"`
	ReferralLevel        int32  `json:"referralLevel,omitempty"`
	RelatedTransactionId string `json:"relatedTransactionId,omitempty"`
	SourceLedgerEntryId  int64  `json:"sourceLedgerEntryId,omitempty"`
	ExpiresAt            string `json:"expiresAt,omitempty"`
	Description          string `json:"description,omitempty"`
	CreatedAt            string `json:"createdAt"`
}

type WalletBalance struct {
	UserId         int32  `json:"userId"`
	RestaurantId   int32  `json:"restaurantId"`
	Earned         int64  `json:"earned"`
	Redeemed       int64  `json:"redeemed"`
	Expired        int64  `json:"expired"`
	AdjustedCredit int64  `json:"adjustedCredit"`
	AdjustedDebit  int64  `json:"adjustedDebit"`
	Available      int64  `json:"available"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

type AttributedReward struct {
	UplineUserId  int32 `json:"uplineUserId"`
	Level         int32 `json:"level"`
	Amount        int64 `json:"amount"`
	LedgerEntryId int64 `json:"ledgerEntryId,omitempty"`
}

type CheckoutBreakdown struct {
	BillAmount          int64               `json:"billAmount"`
	GuaranteedDiscount  int64               `json:"guaranteedDiscount"`
	RequestedRedeem     int64               `json:"requestedRedeem"`
	Redeemed            int64               `json:"redeemed"`
	RedemptionClamped   bool                `json:"redemptionClamped"`
	FinalAmount         int64               `json:"finalAmount"`
	IsFirstTransaction  bool                `json:"isFirstTransaction"`
	ReferralEdgeCreated bool                `json:"referralEdgeCreated"`
	BalanceAfter        int64               `json:"balanceAfter"`
	Rewards             []*AttributedReward `json:"rewards"`
}

type RewardConfig struct {
	RestaurantId              int32  `json:"restaurantId,omitempty"`
	GuaranteedDiscountPercent string `json:"guaranteedDiscountPercent"`
	UplineRewardPercent       string `json:"uplineRewardPercent"`
	MaxRedemptionPercent      string `json:"maxRedemptionPercent"`
	VcExpiryDays              int32  `json:"vcExpiryDays"`
	MaxUplineLevels           int32  `json:"maxUplineLevels"`
	UpdatedAt                 string `json:"updatedAt,omitempty"`
}

type PendingReferral struct {
	CustomerId   int32  `json:"customerId"`
	RestaurantId int32  `json:"restaurantId"`
	Code         string `json:"code"`
	UplineUserId int32  `json:"uplineUserId"`
	Status       string `json:"status"`
	RejectReason string `json:"rejectReason,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

type UplineLink struct {
	UplineUserId int32 `json:"uplineUserId"`
	Level        int32 `json:"level"`
}

// CheckoutService

type ProcessCheckoutRequest struct {
	CustomerId            int32  `json:"customerId"`
	RestaurantId          int32  `json:"restaurantId"`
	BranchId              int32  `json:"branchId"`
	BillAmount            int64  `json:"billAmount"`
	RequestedRedeemAmount int64  `json:"requestedRedeemAmount"`
	ReceiptRef            string `json:"receiptRef,omitempty"`
	Notes                 string `json:"notes,omitempty"`
}

type ProcessCheckoutResponse struct {
	TransactionId string             `json:"transactionId"`
	Breakdown     *CheckoutBreakdown `json:"breakdown"`
}

type VoidTransactionRequest struct {
	TransactionId string `json:"transactionId"`
	Reason        string `json:"reason"`
}

type VoidTransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type GetTransactionRequest struct {
	TransactionId string `json:"transactionId"`
}

type GetTransactionResponse struct {
	Transaction *Transaction   `json:"transaction"`
	Entries     []*LedgerEntry `json:"entries"`
}

type GetTransactionHistoryRequest struct {
	CustomerId   int32 `json:"customerId"`
	RestaurantId int32 `json:"restaurantId"`
	Page         int32 `json:"page"`
	PageSize     int32 `json:"pageSize"`
}

type GetTransactionHistoryResponse struct {
	Transactions []*Transaction `json:"transactions"`
	TotalCount   int32          `json:"totalCount"`
}

// WalletService

type GetBalanceRequest struct {
	UserId       int32 `json:"userId"`
	RestaurantId int32 `json:"restaurantId"`
}

type GetBalanceResponse struct {
	Balance *WalletBalance `json:"balance"`
}

type GetLedgerEntriesRequest struct {
	UserId       int32 `json:"userId"`
	RestaurantId int32 `json:"restaurantId"`
	Page         int32 `json:"page"`
	PageSize     int32 `json:"pageSize"`
}

type GetLedgerEntriesResponse struct {
	Entries    []*LedgerEntry `json:"entries"`
	TotalCount int32          `json:"totalCount"`
}

type AdjustBalanceRequest struct {
	UserId       int32  `json:"userId"`
	RestaurantId int32  `json:"restaurantId"`
	Amount       int64  `json:"amount"`
	Direction    string `json:"direction"`
	Reason       string `json:"reason"`
}

type AdjustBalanceResponse struct {
	Entry *LedgerEntry `json:"entry"`
}

// ReferralService

type ValidateCodeRequest struct {
	CustomerId   int32  `json:"customerId"`
	RestaurantId int32  `json:"restaurantId"`
	Code         string `json:"code"`
}

type ValidateCodeResponse struct {
	Valid        bool   `json:"valid"`
	UplineUserId int32  `json:"uplineUserId,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type SaveReferralCodeRequest struct {
	CustomerId   int32  `json:"customerId"`
	RestaurantId int32  `json:"restaurantId"`
	Code         string `json:"code"`
}

type SaveReferralCodeResponse struct {
	Pending *PendingReferral `json:"pending"`
}

type GetUplineChainRequest struct {
	CustomerId   int32 `json:"customerId"`
	RestaurantId int32 `json:"restaurantId"`
}

type GetUplineChainResponse struct {
	Uplines []*UplineLink `json:"uplines"`
}

// RestaurantService

type GetRewardConfigRequest struct {
	RestaurantId int32 `json:"restaurantId"`
}

type GetRewardConfigResponse struct {
	Config *RewardConfig `json:"config"`
}

type SetRewardConfigRequest struct {
	Config *RewardConfig `json:"config"`
}

type SetRewardConfigResponse struct {
	Config *RewardConfig `json:"config"`
}

// ReceiptService

type GetUploadUrlRequest struct {
	RestaurantId int32  `json:"restaurantId"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType"`
}

type GetUploadUrlResponse struct {
	Key         string `json:"key"`
	UploadUrl   string `json:"uploadUrl"`
	DownloadUrl string `json:"downloadUrl"`
	ExpiresAt   string `json:"expiresAt"`
}
