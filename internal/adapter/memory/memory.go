// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"weightlog/internal/domain"
)

type entryKey struct {
	userID int64
	date   domain.Date
}

// DB implements an in-memory database storage.
type DB struct {
	mu      sync.Mutex
	users   map[int64]domain.User
	entries map[int64]domain.Entry
	byDate  map[entryKey]int64

	userIDCounter  int64
	entryIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:   make(map[int64]domain.User),
		entries: make(map[int64]domain.Entry),
		byDate:  make(map[entryKey]int64),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.EntryRepository = (*DB)(nil)

// Close is a no-op.
func (db *DB) Close() error { return nil }

// --- UserRepository ---

// CreateUser stores u under a new id.
func (db *DB) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.usernameTaken(u.Username, 0) {
		return nil, fmt.Errorf("%w: username %q is taken", domain.ErrConflict, u.Username)
	}
	db.userIDCounter++
	u.ID = db.userIDCounter
	u.CreatedAt = time.Now().UTC()
	db.users[u.ID] = u
	return &u, nil
}

// GetUser retrieves a user by id.
func (db *DB) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListUsers returns all users ordered by username.
func (db *DB) ListUsers(ctx context.Context) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// UpdateUser replaces username, unit preference and goal.
func (db *DB) UpdateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cur, ok := db.users[u.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if db.usernameTaken(u.Username, u.ID) {
		return nil, fmt.Errorf("%w: username %q is taken", domain.ErrConflict, u.Username)
	}
	cur.Username = u.Username
	cur.Metric = u.Metric
	cur.GoalWeight = u.GoalWeight
	db.users[u.ID] = cur
	return &cur, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (db *DB) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	db.users[id] = u
	return nil
}

// DeleteUser removes the user and their entries under one lock.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[id]; !ok {
		return domain.ErrNotFound
	}
	db.deleteEntriesLocked(id)
	delete(db.users, id)
	return nil
}

func (db *DB) usernameTaken(username string, except int64) bool {
	for id, u := range db.users {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}

// --- EntryRepository ---

// ListEntries returns the user's entries ordered by date, then id.
func (db *DB) ListEntries(ctx context.Context, userID int64) ([]domain.Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Entry, 0)
	for _, e := range db.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpsertEntry inserts or replaces the entry for the date.
func (db *DB) UpsertEntry(ctx context.Context, userID int64, m domain.Measurement) (domain.Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.upsertLocked(userID, m)
}

// UpsertEntries applies all measurements under one lock.
func (db *DB) UpsertEntries(ctx context.Context, userID int64, ms []domain.Measurement) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[userID]; !ok {
		return domain.ErrNotFound
	}
	for _, m := range ms {
		if _, err := db.upsertLocked(userID, m); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) upsertLocked(userID int64, m domain.Measurement) (domain.Entry, error) {
	if _, ok := db.users[userID]; !ok {
		return domain.Entry{}, domain.ErrNotFound
	}
	key := entryKey{userID: userID, date: m.Date}
	id, ok := db.byDate[key]
	if !ok {
		db.entryIDCounter++
		id = db.entryIDCounter
		db.byDate[key] = id
	}
	e := domain.Entry{ID: id, UserID: userID, Date: m.Date, Weight: m.Weight, IsMetric: m.IsMetric}
	db.entries[id] = e
	return e, nil
}

// UpdateEntry rewrites an entry by id.
func (db *DB) UpdateEntry(ctx context.Context, userID int64, e domain.Entry) (domain.Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cur, ok := db.entries[e.ID]
	if !ok || cur.UserID != userID {
		return domain.Entry{}, domain.ErrNotFound
	}
	newKey := entryKey{userID: userID, date: e.Date}
	if other, taken := db.byDate[newKey]; taken && other != e.ID {
		return domain.Entry{}, fmt.Errorf("%w: an entry for %s already exists", domain.ErrConflict, e.Date)
	}
	delete(db.byDate, entryKey{userID: userID, date: cur.Date})
	db.byDate[newKey] = e.ID
	e.UserID = userID
	db.entries[e.ID] = e
	return e, nil
}

// DeleteEntry removes the entry for the date.
func (db *DB) DeleteEntry(ctx context.Context, userID int64, date domain.Date) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := entryKey{userID: userID, date: date}
	id, ok := db.byDate[key]
	if !ok {
		return fmt.Errorf("%w: no entry for %s", domain.ErrNotFound, date)
	}
	delete(db.byDate, key)
	delete(db.entries, id)
	return nil
}

// DeleteAllEntries removes every entry of the user.
func (db *DB) DeleteAllEntries(ctx context.Context, userID int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.deleteEntriesLocked(userID), nil
}

func (db *DB) deleteEntriesLocked(userID int64) int64 {
	var n int64
	for id, e := range db.entries {
		if e.UserID == userID {
			delete(db.entries, id)
			delete(db.byDate, entryKey{userID: userID, date: e.Date})
			n++
		}
	}
	return n
}
