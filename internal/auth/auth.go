package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// creates a token manager; a zero ttl uses seven days
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// reports whether tokens can be issued and checked
func (m *Manager) Enabled() bool {
	return m != nil && len(m.secret) > 0
}

// creates a JWT token for the user
func (m *Manager) Generate(userID, email string) (string, error) {
	if !m.Enabled() {
		return "", ErrMissingSecret
	}

	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	now := m.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// validates a JWT token and returns the claims
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	if !m.Enabled() {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
