package auth

import (
	"errors"
	"fmt"
	"strings"

	"overcooked-payments/payment-svc/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

var errInvalidToken = errors.New("invalid token")

// roleAliases maps role names used by older tokens onto current roles.
var roleAliases = map[string]domain.Role{
	"desarrollador": domain.RoleDeveloper,
	"dev":           domain.RoleDeveloper,
	"cajero":        domain.RoleCashier,
}

type Claims struct {
	UserID       string `json:"user_id"`
	RestaurantID string `json:"restaurant_id"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator turns operator bearer tokens (HS256) into Operators.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errInvalidToken
}

// Operator validates a bearer token and returns the operator it names. Any
// failure is reported as domain.ErrUnauthenticated.
func (a *Authenticator) Operator(tokenStr string) (domain.Operator, error) {
	claims, err := a.ParseToken(strings.TrimSpace(tokenStr))
	if err != nil {
		return domain.Operator{}, domain.Wrap(domain.KindUnauthorized, domain.ErrUnauthenticated.Message, err)
	}
	if claims.RestaurantID == "" {
		return domain.Operator{}, domain.ErrUnauthenticated
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	return domain.Operator{
		UserID:       userID,
		RestaurantID: claims.RestaurantID,
		Role:         normalizeRole(claims.Role),
	}, nil
}

func normalizeRole(role string) domain.Role {
	role = strings.ToLower(strings.TrimSpace(role))
	if alias, ok := roleAliases[role]; ok {
		return alias
	}
	return domain.Role(role)
}
