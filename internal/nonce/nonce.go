// Package nonce issues and checks the short lived anti-forgery tokens that
// guard the ajax endpoints.
package nonce

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ScopeAjax is the scope of the tokens accepted by the ajax endpoints.
const ScopeAjax = "ajax_nonce"

// DefaultLifetime applies when the configured lifetime is zero.
const DefaultLifetime = 24 * time.Hour

var (
	// ErrInvalid is returned for tokens that are malformed, expired, forged,
	// issued for another scope or for another user.
	ErrInvalid = errors.New("invalid security token")
	// ErrEmptySecret is returned by New without a signing secret.
	ErrEmptySecret = errors.New("nonce secret cannot be empty")
)

// Claims are the claims of a nonce token.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// Service creates and verifies tokens.
type Service struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// New returns a Service signing with secret.
func New(secret string, lifetime time.Duration) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	return &Service{secret: []byte(secret), lifetime: lifetime, now: time.Now}, nil
}

// Lifetime returns how long a token stays valid.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}

// Create returns a token for scope bound to userID.
func (s *Service) Create(scope string, userID uint64) (string, error) {
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
		Scope: scope,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing nonce: %w", err)
	}

	return signed, nil
}

// Verify checks that token was issued by this service for scope and userID
// and has not expired.
func (s *Service) Verify(token, scope string, userID uint64) error {
	if token == "" {
		return ErrInvalid
	}

	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(strconv.FormatUint(userID, 10)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if claims.Scope != scope {
		return ErrInvalid
	}

	return nil
}
