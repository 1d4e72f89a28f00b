// Package auth derives the owner id that scopes every remote query from the
// stored session token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken issues an HS256 session token whose subject is ownerID.
func GenerateToken(ownerID string, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   ownerID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
	})
	return token.SignedString(secretKey)
}

// OwnerFromToken returns the "sub" claim of tokenString. With a secret the
// signature and expiry are verified; without one the token is only decoded,
// as the remote store performs its own verification.
func OwnerFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	if len(secretKey) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
		}
	} else {
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secretKey, nil
		})
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
		}
		if !token.Valid {
			return "", common.ErrInvalidToken
		}
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}
	return claims.Subject, nil
}

// ErrTokenExpired is returned for a verified token past its expiry.
var ErrTokenExpired = errors.New("token expired")
