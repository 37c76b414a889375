// Package auth issues and verifies the bearer tokens that identify accounts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rongwang/budget-server/internal/models"
)

// ErrInvalidToken is returned for any token that must not be trusted
var ErrInvalidToken = errors.New("invalid token")

// TokenManager signs and verifies HS256 tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns how long issued tokens stay valid
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed token for the account
func (m *TokenManager) Issue(userID string) (string, models.Identity, error) {
	issuedAt := m.now().UTC()
	identity := models.Identity{
		UserID:    userID,
		TokenID:   uuid.New().String(),
		ExpiresAt: issuedAt.Add(m.ttl),
	}

	claims := jwt.RegisteredClaims{
		Subject:   identity.UserID,
		ID:        identity.TokenID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", models.Identity{}, fmt.Errorf("error signing token: %w", err)
	}
	return signed, identity, nil
}

// Verify checks the signature and expiry and returns the identity it carries
func (m *TokenManager) Verify(tokenString string) (models.Identity, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	if claims.Subject == "" || claims.ID == "" {
		return models.Identity{}, ErrInvalidToken
	}

	return models.Identity{
		UserID:    claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
