// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxUsernameLength is the longest username accepted, in characters.
const MaxUsernameLength = 32

// User is an account owning a set of weight entries.
type User struct {
	ID           int64     `json:"-"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Metric       bool      `json:"metric"`
	GoalWeight   float64   `json:"goal_weight"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRepository defines the port for user persistence operations.
//
// Lookups return ErrNotFound for a missing user and writes return
// ErrConflict when a username is already taken.
type UserRepository interface {
	CreateUser(ctx context.Context, u User) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u User) (*User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	// DeleteUser removes the user and all of their entries atomically.
	DeleteUser(ctx context.Context, id int64) error
}

// NormalizeUsername trims the username and checks it is 1..32 characters
// without whitespace or control characters.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", ErrValidation)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", fmt.Errorf("%w: username must be at most %d characters", ErrValidation, MaxUsernameLength)
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: username must not contain whitespace", ErrValidation)
		}
	}
	return username, nil
}

// ValidateGoalWeight rejects non-positive or non-finite goals.
func ValidateGoalWeight(goal float64) error {
	if !isPositiveFinite(goal) {
		return fmt.Errorf("%w: goal weight must be greater than zero", ErrValidation)
	}
	return nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
