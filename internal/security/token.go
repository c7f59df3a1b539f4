package security

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

// Roles carried by access tokens. Staff roles match domain.StaffRole.
const (
	RoleCustomer = "CUSTOMER"
	RoleCashier  = "CASHIER"
	RoleManager  = "MANAGER"
)

// UserClaims defines the standard claims for our application.
// Customer tokens carry UserID; staff tokens carry StaffID and the
// restaurant they work for.
type UserClaims struct {
	UserID       int32     `json:"user_id,omitempty"`
	StaffID      int32     `json:"staff_id,omitempty"`
	RestaurantID int32     `json:"restaurant_id,omitempty"`
	Type         TokenType `json:"type"`
	Roles        []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c *UserClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaffOf reports whether the token belongs to staff of the restaurant.
func (c *UserClaims) IsStaffOf(restaurantID int32) bool {
	return c.StaffID > 0 && c.RestaurantID == restaurantID &&
		(c.HasRole(RoleCashier) || c.HasRole(RoleManager))
}

// IsManagerOf reports whether the token belongs to a manager of the restaurant.
func (c *UserClaims) IsManagerOf(restaurantID int32) bool {
	return c.StaffID > 0 && c.RestaurantID == restaurantID && c.HasRole(RoleManager)
}

// IsCustomer reports whether the token belongs to the given customer.
func (c *UserClaims) IsCustomer(userID int32) bool {
	return c.UserID > 0 && c.UserID == userID && c.HasRole(RoleCustomer)
}

type TokenManager interface {
	GenerateCustomerToken(userID int32) (string, error)
	GenerateStaffToken(staffID, restaurantID int32, role string) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *tokenManager) GenerateCustomerToken(userID int32) (string, error) {
	return m.sign(UserClaims{
		UserID: userID,
		Type:   TokenTypeAccess,
		Roles:  []string{RoleCustomer},
	}, "user:"+strconv.Itoa(int(userID)))
}

func (m *tokenManager) GenerateStaffToken(staffID, restaurantID int32, role string) (string, error) {
	if role != RoleCashier && role != RoleManager {
		return "", ErrWrongTokenType
	}
	return m.sign(UserClaims{
		StaffID:      staffID,
		RestaurantID: restaurantID,
		Type:         TokenTypeAccess,
		Roles:        []string{role},
	}, "staff:"+strconv.Itoa(int(staffID)))
}

func (m *tokenManager) sign(claims UserClaims, subject string) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    "loyalty-ledger",
		Audience:  jwt.ClaimStrings{"api-access"},
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		if claims.Type != TokenTypeAccess {
			return nil, ErrWrongTokenType
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

type claimsKey struct{}

// NewContext returns a context carrying the authenticated claims.
func NewContext(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext returns the claims stored by NewContext.
func FromContext(ctx context.Context) (*UserClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*UserClaims)
	return c, ok && c != nil
}
