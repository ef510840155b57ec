package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// context keys set by the middlewares
	ContextUserID = "user_id"
	ContextEmail  = "user_email"

	defaultTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrMissingSecret = errors.New("jwt secret not set")
	ErrInvalidToken  = errors.New("invalid token")
)

// represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// issues and validates HS256 tokens for report owners
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}
