// Package security provides admin token signing and credential verification.
package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminClaims are the JWT claims carried by operator tokens.
type AdminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SignAdminToken issues a signed operator token.
func SignAdminToken(secret, username string, expiry time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("security: jwt secret is not configured")
	}
	now := time.Now().UTC()
	claims := AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseAdminToken validates a signed operator token and returns its claims.
func ParseAdminToken(secret, raw string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, errParse := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return nil, errParse
	}
	if !token.Valid {
		return nil, fmt.Errorf("security: invalid token")
	}
	return claims, nil
}

// VerifyPassword compares a bcrypt hash against a candidate password.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, errHash := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errHash != nil {
		return "", fmt.Errorf("security: hash password: %w", errHash)
	}
	return string(hash), nil
}
