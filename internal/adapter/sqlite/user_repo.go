package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"weightlog/internal/domain"
)

const userColumns = "id, username, password_hash, metric, goal_weight, created_at"

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Metric, &u.GoalWeight, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// CreateUser inserts a user and returns it with its new id.
func (d *DB) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := d.sql.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, metric, goal_weight, created_at) VALUES (?, ?, ?, ?, ?)",
		u.Username, u.PasswordHash, u.Metric, u.GoalWeight, u.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("username %q", u.Username))
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser retrieves a user by ID.
func (d *DB) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

// ListUsers returns all users ordered by username.
func (d *DB) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateUser replaces username, unit preference and goal weight.
func (d *DB) UpdateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE users SET username = ?, metric = ?, goal_weight = ? WHERE id = ?",
		u.Username, u.Metric, u.GoalWeight, u.ID,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("username %q", u.Username))
	}
	if err := expectAffected(res, "user"); err != nil {
		return nil, err
	}
	return d.GetUser(ctx, u.ID)
}

// UpdatePasswordHash replaces the stored password hash.
func (d *DB) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := d.sql.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "user")
}

// DeleteUser removes the user's entries and the user atomically. The
// explicit entry delete keeps the cascade independent of the foreign_keys
// pragma.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE user_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return err
		}
		return expectAffected(res, "user")
	})
}
