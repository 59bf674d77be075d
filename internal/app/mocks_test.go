package app_test

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"weightlog/internal/app"
	"weightlog/internal/domain"
)

const testTokenKey = "weightlog-test-token-key-0123456789abcdef"

func newCredentials(now func() time.Time) *app.Credentials {
	c, err := app.NewCredentials(app.CredentialsConfig{
		TokenKey: testTokenKey,
		TokenTTL: time.Hour,
		HashCost: bcrypt.MinCost,
		Now:      now,
	})
	if err != nil {
		panic(err)
	}
	return c
}

type mockUserRepo struct {
	createFn     func(ctx context.Context, u domain.User) (*domain.User, error)
	getFn        func(ctx context.Context, id int64) (*domain.User, error)
	getByNameFn  func(ctx context.Context, username string) (*domain.User, error)
	listFn       func(ctx context.Context) ([]domain.User, error)
	updateFn     func(ctx context.Context, u domain.User) (*domain.User, error)
	updateHashFn func(ctx context.Context, id int64, hash string) error
	deleteFn     func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = 1
	return &u, nil
}

func (m *mockUserRepo) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByNameFn != nil {
		return m.getByNameFn(ctx, username)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, u)
	}
	return &u, nil
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	if m.updateHashFn != nil {
		return m.updateHashFn(ctx, id, hash)
	}
	return nil
}

func (m *mockUserRepo) DeleteUser(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockEntryRepo struct {
	listFn       func(ctx context.Context, userID int64) ([]domain.Entry, error)
	upsertFn     func(ctx context.Context, userID int64, m domain.Measurement) (domain.Entry, error)
	upsertManyFn func(ctx context.Context, userID int64, ms []domain.Measurement) error
	updateFn     func(ctx context.Context, userID int64, e domain.Entry) (domain.Entry, error)
	deleteFn     func(ctx context.Context, userID int64, date domain.Date) error
	deleteAllFn  func(ctx context.Context, userID int64) (int64, error)
}

func (m *mockEntryRepo) ListEntries(ctx context.Context, userID int64) ([]domain.Entry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockEntryRepo) UpsertEntry(ctx context.Context, userID int64, ms domain.Measurement) (domain.Entry, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, ms)
	}
	return domain.Entry{ID: 1, UserID: userID, Date: ms.Date, Weight: ms.Weight, IsMetric: ms.IsMetric}, nil
}

func (m *mockEntryRepo) UpsertEntries(ctx context.Context, userID int64, ms []domain.Measurement) error {
	if m.upsertManyFn != nil {
		return m.upsertManyFn(ctx, userID, ms)
	}
	return nil
}

func (m *mockEntryRepo) UpdateEntry(ctx context.Context, userID int64, e domain.Entry) (domain.Entry, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, e)
	}
	return e, nil
}

func (m *mockEntryRepo) DeleteEntry(ctx context.Context, userID int64, date domain.Date) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, date)
	}
	return nil
}

func (m *mockEntryRepo) DeleteAllEntries(ctx context.Context, userID int64) (int64, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, userID)
	}
	return 0, nil
}
