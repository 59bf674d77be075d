package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"weightlog/internal/domain"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenAuthority issues and resolves bearer tokens.
type TokenAuthority interface {
	IssueToken(userID int64) (string, time.Time, error)
	ResolveToken(token string) (int64, error)
}

// Token is an issued bearer credential.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// AuthService handles logins and token verification.
type AuthService struct {
	users  domain.UserRepository
	hasher PasswordHasher
	tokens TokenAuthority

	// dummyHash keeps unknown-user logins as slow as wrong-password ones.
	dummyHash string
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, hasher PasswordHasher, tokens TokenAuthority) (*AuthService, error) {
	dummy, err := hasher.Hash("weightlog-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("auth: dummy hash: %w", err)
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, dummyHash: dummy}, nil
}

// Login checks the username and password and issues a token. Unknown users
// and wrong passwords both fail with domain.ErrUnauthenticated.
func (s *AuthService) Login(ctx context.Context, username, password string) (Token, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		return Token{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return Token{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return Token{}, domain.ErrUnauthenticated
	}
	return s.issue(user.ID)
}

// LoginWithUser issues a token for a user already authenticated by an
// external identity provider. The user must exist.
func (s *AuthService) LoginWithUser(ctx context.Context, username string) (Token, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return Token{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return Token{}, err
	}
	return s.issue(user.ID)
}

// Authenticate resolves a bearer token to a user id without touching
// storage.
func (s *AuthService) Authenticate(token string) (int64, error) {
	return s.tokens.ResolveToken(token)
}

func (s *AuthService) issue(userID int64) (Token, error) {
	value, exp, err := s.tokens.IssueToken(userID)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, ExpiresAt: exp}, nil
}
