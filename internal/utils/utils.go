package utils

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

// NewID returns a random UUIDv4 string for entity ids.
func NewID() string {
	id, err := uuid.NewV4()
	if err != nil {
		// v4 generation only fails when the entropy source is broken
		panic(fmt.Sprintf("uuid generation failed: %v", err))
	}
	return id.String()
}

// AvatarURL derives a deterministic placeholder avatar from an email.
func AvatarURL(email string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/200/200", url.PathEscape(email))
}

// SessionClaims are the JWT claims carried by a bearer token.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken mints a signed session token for an account.
func GenerateToken(email, secret string, expiry time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(expiry)

	claims := &SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        NewID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseToken verifies a bearer token and returns its claims.
func ParseToken(tokenString, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// NowMillis returns the current time as unix milliseconds, the wire
// format used for feed and scan timestamps.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
