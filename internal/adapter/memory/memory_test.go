package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"weightlog/internal/domain"
)

func mustUser(t *testing.T, db *DB, name string) *domain.User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), domain.User{Username: name, PasswordHash: "x", Metric: true, GoalWeight: 50})
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", name, err)
	}
	return u
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u := mustUser(t, db, "garfield")
	if u.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	if _, err := db.CreateUser(ctx, domain.User{Username: "garfield"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate username err = %v; want ErrConflict", err)
	}

	got, err := db.GetUserByUsername(ctx, "garfield")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByUsername = %v, %v", got, err)
	}

	odie := mustUser(t, db, "odie")
	if _, err := db.UpdateUser(ctx, domain.User{ID: odie.ID, Username: "garfield", GoalWeight: 1}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("rename onto taken name err = %v; want ErrConflict", err)
	}
	updated, err := db.UpdateUser(ctx, domain.User{ID: u.ID, Username: "garfield", Metric: false, GoalWeight: 110})
	if err != nil {
		t.Fatalf("UpdateUser keeping own name: %v", err)
	}
	if updated.Metric || updated.GoalWeight != 110 || updated.PasswordHash != "x" {
		t.Errorf("unexpected update result %+v", updated)
	}

	users, _ := db.ListUsers(ctx)
	if len(users) != 2 || users[0].Username != "garfield" {
		t.Errorf("ListUsers = %+v", users)
	}

	if _, err := db.GetUser(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUser missing err = %v", err)
	}
}

func TestEntryRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	jan1 := domain.NewDate(2024, time.January, 1)
	jan2 := domain.NewDate(2024, time.January, 2)

	first, err := db.UpsertEntry(ctx, a.ID, domain.Measurement{Date: jan2, Weight: 70, IsMetric: true})
	if err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}
	again, _ := db.UpsertEntry(ctx, a.ID, domain.Measurement{Date: jan2, Weight: 71, IsMetric: true})
	if again.ID != first.ID {
		t.Errorf("upsert on same date changed id %d -> %d", first.ID, again.ID)
	}
	_, _ = db.UpsertEntry(ctx, a.ID, domain.Measurement{Date: jan1, Weight: 72, IsMetric: true})
	_, _ = db.UpsertEntry(ctx, b.ID, domain.Measurement{Date: jan1, Weight: 160, IsMetric: false})

	list, _ := db.ListEntries(ctx, a.ID)
	if len(list) != 2 || list[0].Date != jan1 || list[1].Weight != 71 {
		t.Fatalf("ListEntries(a) = %+v", list)
	}
	for _, e := range list {
		if e.UserID != a.ID {
			t.Errorf("entry %d belongs to %d", e.ID, e.UserID)
		}
	}

	if _, err := db.UpdateEntry(ctx, b.ID, domain.Entry{ID: first.ID, Date: jan2, Weight: 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-user update err = %v; want ErrNotFound", err)
	}
	if _, err := db.UpdateEntry(ctx, a.ID, domain.Entry{ID: first.ID, Date: jan1, Weight: 1}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("update onto taken date err = %v; want ErrConflict", err)
	}

	if err := db.DeleteEntry(ctx, a.ID, domain.NewDate(2030, time.January, 1)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteEntry missing err = %v", err)
	}
	if err := db.DeleteEntry(ctx, a.ID, jan2); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	n, _ := db.DeleteAllEntries(ctx, a.ID)
	if n != 1 {
		t.Errorf("DeleteAllEntries removed %d; want 1", n)
	}
	if bl, _ := db.ListEntries(ctx, b.ID); len(bl) != 1 {
		t.Errorf("user b lost entries: %+v", bl)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := New()
	ctx := context.Background()
	u := mustUser(t, db, "gone")
	_, _ = db.UpsertEntry(ctx, u.ID, domain.Measurement{Date: domain.NewDate(2024, 1, 1), Weight: 80, IsMetric: true})

	if err := db.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := db.GetUser(ctx, u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUser after delete err = %v", err)
	}
	if list, _ := db.ListEntries(ctx, u.ID); len(list) != 0 {
		t.Errorf("orphaned entries: %+v", list)
	}
	if _, err := db.UpsertEntry(ctx, u.ID, domain.Measurement{Date: domain.NewDate(2024, 1, 2), Weight: 80}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("upsert for deleted user err = %v", err)
	}
}
