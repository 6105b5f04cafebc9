// Package auth holds the credential primitives of the server: bcrypt password
// hashing and HS256 session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the session identity plus the standard iat/exp claims.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies session tokens signed with one symmetric
// secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the given identity.
func (s *TokenService) Issue(userID, email string) (string, error) {
	if userID == "" || email == "" {
		return "", common.ErrorInvalidInput
	}
	if len(s.secret) == 0 {
		return "", errors.New("token secret is not configured")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	return token.SignedString(s.secret)
}

// Verify returns the claims of a valid, unexpired token. Any failure
// (malformed, expired, wrong signature or algorithm) yields (nil, false).
func (s *TokenService) Verify(tokenString string) (*Claims, bool) {
	if tokenString == "" || len(s.secret) == 0 {
		return nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}
	if claims.UserID == "" || claims.Email == "" {
		return nil, false
	}

	return claims, true
}
