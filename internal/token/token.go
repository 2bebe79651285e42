// Package token issues and verifies the bearer tokens handed out by the backend's login endpoint
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("a token signing secret is required")
)

// Claims represents the claims carried by an access token.
// The subject is the username of the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer issues and verifies HS256-signed access tokens
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewIssuer creates a new token issuer
func NewIssuer(secret []byte, lifetime time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}
	return &Issuer{
		secret:   secret,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Lifetime returns the lifetime of issued tokens
func (issuer *Issuer) Lifetime() time.Duration {
	return issuer.lifetime
}

// Issue creates a new signed access token for the given username
func (issuer *Issuer) Issue(username string) (string, time.Time, error) {
	now := issuer.now()
	expires := now.Add(issuer.lifetime)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(issuer.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify parses and verifies a raw token and returns the username it was issued for
func (issuer *Issuer) Verify(raw string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(issuer.now),
	)
	claims := new(Claims)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return issuer.secret, nil
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
