// Package authtest mints operator tokens for tests. Production tokens are
// issued by the identity service; payment-svc only verifies them.
package authtest

import (
	"time"

	"overcooked-payments/payment-svc/internal/auth"
	"overcooked-payments/payment-svc/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

// Token signs an HS256 operator token with secret that expires after ttl.
func Token(secret string, op domain.Operator, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &auth.Claims{
		UserID:       op.UserID,
		RestaurantID: op.RestaurantID,
		Role:         string(op.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   op.UserID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
