package app_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"weightlog/internal/adapter/memory"
	"weightlog/internal/app"
	"weightlog/internal/domain"
)

func setupEntries(t *testing.T) (*memory.DB, *app.AccountService, *app.EntryService) {
	t.Helper()
	db := memory.New()
	return db, app.NewAccountService(db, newCredentials(nil)), app.NewEntryService(db)
}

func TestEntryService_UpsertValidation(t *testing.T) {
	svc := app.NewEntryService(&mockEntryRepo{
		upsertFn: func(context.Context, int64, domain.Measurement) (domain.Entry, error) {
			t.Fatal("repository must not be called for invalid input")
			return domain.Entry{}, nil
		},
	})

	tests := []struct {
		name string
		m    domain.Measurement
	}{
		{"zero weight", domain.Measurement{Date: domain.NewDate(2024, 1, 1), Weight: 0}},
		{"negative weight", domain.Measurement{Date: domain.NewDate(2024, 1, 1), Weight: -2}},
		{"missing date", domain.Measurement{Weight: 70}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upsert(context.Background(), 1, tc.m)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestEntryService_UpsertIsIdempotent(t *testing.T) {
	_, accounts, entries := setupEntries(t)
	ctx := context.Background()
	u, err := accounts.Create(ctx, app.Settings{Username: "u", Metric: true, GoalWeight: 60}, "pw")
	require.NoError(t, err)

	m := domain.Measurement{Date: domain.NewDate(2024, time.March, 1), Weight: 70.5, IsMetric: true}
	a, err := entries.Upsert(ctx, u.ID, m)
	require.NoError(t, err)
	b, err := entries.Upsert(ctx, u.ID, m)
	require.NoError(t, err)
	require.Equal(t, a.ID, b.ID)

	list, err := entries.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestEntryService_Isolation(t *testing.T) {
	_, accounts, entries := setupEntries(t)
	ctx := context.Background()
	a, _ := accounts.Create(ctx, app.Settings{Username: "a", Metric: true, GoalWeight: 60}, "pw")
	b, _ := accounts.Create(ctx, app.Settings{Username: "b", Metric: false, GoalWeight: 150}, "pw")

	day := domain.NewDate(2024, time.January, 1)
	_, err := entries.Upsert(ctx, a.ID, domain.Measurement{Date: day, Weight: 70, IsMetric: true})
	require.NoError(t, err)
	bEntry, err := entries.Upsert(ctx, b.ID, domain.Measurement{Date: day, Weight: 160, IsMetric: false})
	require.NoError(t, err)

	list, err := entries.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 70.0, list[0].Weight)

	_, err = entries.Update(ctx, a.ID, bEntry.ID, domain.Measurement{Date: day, Weight: 1, IsMetric: true})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, entries.Delete(ctx, a.ID, day))
	list, _ = entries.List(ctx, b.ID)
	require.Len(t, list, 1, "deleting A's entry must not touch B's entry on the same date")
}

func TestEntryService_DeleteMissing(t *testing.T) {
	_, accounts, entries := setupEntries(t)
	ctx := context.Background()
	u, _ := accounts.Create(ctx, app.Settings{Username: "u", Metric: true, GoalWeight: 60}, "pw")

	err := entries.Delete(ctx, u.ID, domain.NewDate(2024, time.January, 1))
	require.ErrorIs(t, err, domain.ErrNotFound)

	n, err := entries.DeleteAll(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestEntryService_Update(t *testing.T) {
	_, accounts, entries := setupEntries(t)
	ctx := context.Background()
	u, _ := accounts.Create(ctx, app.Settings{Username: "u", Metric: true, GoalWeight: 60}, "pw")
	e, err := entries.Upsert(ctx, u.ID, domain.Measurement{Date: domain.NewDate(2024, 1, 1), Weight: 70, IsMetric: true})
	require.NoError(t, err)

	moved, err := entries.Update(ctx, u.ID, e.ID, domain.Measurement{Date: domain.NewDate(2024, 1, 5), Weight: 150, IsMetric: false})
	require.NoError(t, err)
	require.Equal(t, e.ID, moved.ID)

	list, _ := entries.List(ctx, u.ID)
	require.Len(t, list, 1)
	require.Equal(t, domain.NewDate(2024, 1, 5), list[0].Date)
	require.False(t, list[0].IsMetric)

	_, err = entries.Update(ctx, u.ID, e.ID, domain.Measurement{Date: domain.NewDate(2024, 1, 5), Weight: 0})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestEntryService_GarfieldScenario(t *testing.T) {
	_, accounts, entries := setupEntries(t)
	ctx := context.Background()

	u, err := accounts.Create(ctx, app.Settings{Username: "Garfield", Metric: true, GoalWeight: 50}, "lasagna")
	require.NoError(t, err)

	_, err = entries.Upsert(ctx, u.ID, domain.Measurement{Date: domain.MustParseDate("2024-01-01"), Weight: 70.5, IsMetric: true})
	require.NoError(t, err)

	list, err := entries.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 70.5, list[0].Weight)

	var buf bytes.Buffer
	require.NoError(t, entries.ExportCSV(ctx, u.ID, &buf))
	require.Equal(t, "date,weight,unit\n2024-01-01,70.5,metric\n", buf.String())

	exported := buf.String()
	n, err := entries.DeleteAll(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	imported, err := entries.ImportCSV(ctx, u.ID, strings.NewReader(exported))
	require.NoError(t, err)
	require.Equal(t, 1, imported)

	again, err := entries.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, again, 1)
	require.Equal(t, list[0].Measurement(), again[0].Measurement())
}

func TestEntryService_ImportIsAllOrNothing(t *testing.T) {
	var upserts int
	svc := app.NewEntryService(&mockEntryRepo{
		upsertManyFn: func(context.Context, int64, []domain.Measurement) error {
			upserts++
			return nil
		},
	})

	in := "date,weight,unit\n2024-01-01,70,metric\n2024-01-02,oops,metric\n"
	_, err := svc.ImportCSV(context.Background(), 1, strings.NewReader(in))
	require.ErrorIs(t, err, domain.ErrMalformedInput)
	require.Zero(t, upserts)

	n, err := svc.ImportCSV(context.Background(), 1, strings.NewReader("date,weight,unit\n"))
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, upserts)
}

func TestEntryService_ImportPropagatesStoreError(t *testing.T) {
	boom := errors.New("tx aborted")
	svc := app.NewEntryService(&mockEntryRepo{
		upsertManyFn: func(_ context.Context, userID int64, ms []domain.Measurement) error {
			require.Equal(t, int64(7), userID)
			require.Len(t, ms, 2)
			return boom
		},
	})
	in := "date,weight,unit\n2024-01-01,70,metric\n2024-01-02,154,english\n"
	_, err := svc.ImportCSV(context.Background(), 7, strings.NewReader(in))
	require.ErrorIs(t, err, boom)
}
