package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"weightlog/internal/adapter/memory"
	"weightlog/internal/app"
	"weightlog/internal/domain"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	hasher := app.NewHasher(bcrypt.MinCost)
	accounts := app.NewAccountService(db, hasher)

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"user", "add", "-english", "-goal", "150", "garfield"}, strings.NewReader("lasagna\n"), &out, accounts))
	require.Contains(t, out.String(), "created user garfield")

	u, err := accounts.FindByUsername(ctx, "garfield")
	require.NoError(t, err)
	require.False(t, u.Metric)
	require.Equal(t, 150.0, u.GoalWeight)
	require.True(t, hasher.Verify("lasagna", u.PasswordHash))

	out.Reset()
	require.NoError(t, run(ctx, []string{"user", "list"}, nil, &out, accounts))
	require.Contains(t, out.String(), "garfield")
	require.Contains(t, out.String(), "lb")

	require.NoError(t, run(ctx, []string{"user", "passwd", "-password", "pizza", "garfield"}, nil, &out, accounts))
	u, _ = accounts.FindByUsername(ctx, "garfield")
	require.True(t, hasher.Verify("pizza", u.PasswordHash))

	err = run(ctx, []string{"user", "add", "-goal", "60", "-password", "x", "garfield"}, nil, &out, accounts)
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, run(ctx, []string{"user", "delete", "garfield"}, nil, &out, accounts))
	_, err = accounts.FindByUsername(ctx, "garfield")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRun_Usage(t *testing.T) {
	accounts := app.NewAccountService(memory.New(), app.NewHasher(bcrypt.MinCost))
	var out bytes.Buffer

	for _, args := range [][]string{
		nil,
		{"entries", "list"},
		{"user", "rename", "a"},
		{"user", "delete"},
		{"user", "add", "-goal", "x", "a"},
	} {
		require.Error(t, run(context.Background(), args, strings.NewReader(""), &out, accounts), "args %v", args)
	}
}
