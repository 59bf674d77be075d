package app

import (
	"context"
	"fmt"
	"strings"

	"weightlog/internal/domain"
)

// AccountService owns user accounts: sign-up, settings, password and
// deletion.
type AccountService struct {
	users  domain.UserRepository
	hasher PasswordHasher
}

// NewAccountService creates an AccountService.
func NewAccountService(users domain.UserRepository, hasher PasswordHasher) *AccountService {
	return &AccountService{users: users, hasher: hasher}
}

// Settings are the user-editable account fields.
type Settings struct {
	Username   string
	Metric     bool
	GoalWeight float64
}

func (s Settings) normalize() (Settings, error) {
	name, err := domain.NormalizeUsername(s.Username)
	if err != nil {
		return Settings{}, err
	}
	if err := domain.ValidateGoalWeight(s.GoalWeight); err != nil {
		return Settings{}, err
	}
	s.Username = name
	return s, nil
}

// Create signs up a new user. It fails with domain.ErrConflict when the
// username is taken.
func (s *AccountService) Create(ctx context.Context, settings Settings, password string) (*domain.User, error) {
	settings, err := settings.normalize()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.users.CreateUser(ctx, domain.User{
		Username:     settings.Username,
		PasswordHash: hash,
		Metric:       settings.Metric,
		GoalWeight:   settings.GoalWeight,
	})
}

// Get returns the user or domain.ErrNotFound.
func (s *AccountService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

// FindByUsername returns the user or domain.ErrNotFound. Surrounding
// whitespace is ignored, as it is when the name is stored.
func (s *AccountService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
}

// List returns every user ordered by username.
func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

// Update replaces the user's settings. The goal weight is stored exactly as
// given; switching units does not convert it.
func (s *AccountService) Update(ctx context.Context, userID int64, settings Settings) (*domain.User, error) {
	settings, err := settings.normalize()
	if err != nil {
		return nil, err
	}
	return s.users.UpdateUser(ctx, domain.User{
		ID:         userID,
		Username:   settings.Username,
		Metric:     settings.Metric,
		GoalWeight: settings.GoalWeight,
	})
}

// ChangePassword replaces the password after checking the current one. A
// wrong current password fails with domain.ErrUnauthorized and leaves the
// stored hash untouched.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return fmt.Errorf("%w: current password is incorrect", domain.ErrUnauthorized)
	}
	return s.setPassword(ctx, userID, next)
}

// ResetPassword replaces the password without checking the current one.
// It is meant for operator tooling.
func (s *AccountService) ResetPassword(ctx context.Context, userID int64, next string) error {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.setPassword(ctx, userID, next)
}

func (s *AccountService) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, userID, hash)
}

// Delete removes the user together with all of their entries.
func (s *AccountService) Delete(ctx context.Context, userID int64) error {
	return s.users.DeleteUser(ctx, userID)
}
