package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"loyalty-ledger-backend/internal/security"
)

// GetClaimsFromContext returns the claims the auth interceptor attached to
// the request context.
func GetClaimsFromContext(ctx context.Context) (*security.UserClaims, error) {
	claims, ok := security.FromContext(ctx)
	if !ok {
		return nil, status.Errorf(codes.Unauthenticated, "access token is not provided")
	}
	return claims, nil
}

// requireStaff returns the claims of a staff member of the restaurant.
func requireStaff(ctx context.Context, restaurantID int32) (*security.UserClaims, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !claims.IsStaffOf(restaurantID) {
		return nil, status.Errorf(codes.PermissionDenied, "not staff of restaurant %d", restaurantID)
	}
	return claims, nil
}

func requireManager(ctx context.Context, restaurantID int32) (*security.UserClaims, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !claims.IsManagerOf(restaurantID) {
		return nil, status.Errorf(codes.PermissionDenied, "not a manager of restaurant %d", restaurantID)
	}
	return claims, nil
}

// requireSelfOrStaff admits the customer themselves or staff of the restaurant.
func requireSelfOrStaff(ctx context.Context, userID, restaurantID int32) error {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	if claims.IsCustomer(userID) || claims.IsStaffOf(restaurantID) {
		return nil
	}
	return status.Error(codes.PermissionDenied, "not allowed to access this wallet")
}
