package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload carried by every session token: who the
// caller is, which app they belong to and whether their phone is verified.
type SessionClaims struct {
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	PhoneVerified bool   `json:"phone_verified"`
	jwt.RegisteredClaims
}

// Session is the parsed, validated form handed to handlers.
type Session struct {
	UserID        uuid.UUID
	Role          string
	PhoneVerified bool
}

// GenerateToken creates a signed JWT for the provided user.
func GenerateToken(secret string, userID uuid.UUID, role string, phoneVerified bool, ttl time.Duration) (string, error) {
	claims := &SessionClaims{
		UserID:        userID.String(),
		Role:          role,
		PhoneVerified: phoneVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded session.
func ParseToken(secret, tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Session{}, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return Session{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Session{}, jwt.ErrTokenInvalidClaims
	}

	return Session{
		UserID:        userID,
		Role:          claims.Role,
		PhoneVerified: claims.PhoneVerified,
	}, nil
}
