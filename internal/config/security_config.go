// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityAccess                       // Access token required
	SecurityStaff                        // Access token with a staff role
	SecurityManager                      // Access token with the manager role
)

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// CheckoutService
	"/loyalty.v1.CheckoutService/ProcessCheckout":       SecurityStaff,
	"/loyalty.v1.CheckoutService/VoidTransaction":       SecurityManager,
	"/loyalty.v1.CheckoutService/GetTransaction":        SecurityStaff,
	"/loyalty.v1.CheckoutService/GetTransactionHistory": SecurityAccess,

	// WalletService
	"/loyalty.v1.WalletService/GetBalance":       SecurityAccess,
	"/loyalty.v1.WalletService/GetLedgerEntries": SecurityAccess,
	"/loyalty.v1.WalletService/AdjustBalance":    SecurityManager,

	// ReferralService
	"/loyalty.v1.ReferralService/ValidateCode":     SecurityAccess,
	"/loyalty.v1.ReferralService/SaveReferralCode": SecurityAccess,
	"/loyalty.v1.ReferralService/GetUplineChain":   SecurityAccess,

	// RestaurantService
	"/loyalty.v1.RestaurantService/GetRewardConfig": SecurityStaff,
	"/loyalty.v1.RestaurantService/SetRewardConfig": SecurityManager,

	// ReceiptService
	"/loyalty.v1.ReceiptService/GetUploadUrl": SecurityStaff,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityManager
}
