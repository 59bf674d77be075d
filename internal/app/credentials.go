// Package app holds the application services and business logic.
package app

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"weightlog/internal/domain"
)

const (
	tokenIssuer = "weightlog"
	// MinTokenKeyBytes is the shortest accepted HS256 signing key.
	MinTokenKeyBytes = 32
	// DefaultTokenTTL is used when CredentialsConfig.TokenTTL is zero.
	DefaultTokenTTL = 24 * time.Hour
)

// CredentialsConfig configures password hashing and token signing.
type CredentialsConfig struct {
	TokenKey string
	TokenTTL time.Duration
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost.
	HashCost int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Hasher hashes and checks passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher; a zero cost means bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Credentials hashes passwords and issues stateless bearer tokens.
type Credentials struct {
	*Hasher
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCredentials validates cfg and returns a Credentials.
func NewCredentials(cfg CredentialsConfig) (*Credentials, error) {
	if len(cfg.TokenKey) < MinTokenKeyBytes {
		return nil, fmt.Errorf("token key must be at least %d bytes", MinTokenKeyBytes)
	}
	c := &Credentials{
		Hasher: NewHasher(cfg.HashCost),
		key:    []byte(cfg.TokenKey),
		ttl:    cfg.TokenTTL,
		now:    cfg.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTokenTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrValidation)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches hash.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// IssueToken returns a signed token for userID and its expiry.
func (c *Credentials) IssueToken(userID int64) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ResolveToken returns the user id bound to token. It fails with
// domain.ErrExpired for stale tokens and domain.ErrUnauthenticated otherwise.
func (c *Credentials) ResolveToken(token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrUnauthenticated
	}
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return 0, domain.ErrExpired
	}
	if err != nil {
		return 0, domain.ErrUnauthenticated
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrUnauthenticated
	}
	return id, nil
}
