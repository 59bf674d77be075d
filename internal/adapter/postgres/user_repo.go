package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"weightlog/internal/domain"
)

const userColumns = "id, username, password_hash, metric, goal_weight, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Metric, &u.GoalWeight, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user and returns it with its new id.
func (d *DB) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	created, err := scanUser(d.sql.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash, metric, goal_weight) VALUES ($1, $2, $3, $4) RETURNING "+userColumns,
		u.Username, u.PasswordHash, u.Metric, u.GoalWeight,
	))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("username %q", u.Username))
	}
	return created, nil
}

// GetUser retrieves a user by ID.
func (d *DB) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username))
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
	updated, err := scanUser(d.sql.QueryRowContext(ctx,
		"UPDATE users SET username = $2, metric = $3, goal_weight = $4 WHERE id = $1 RETURNING "+userColumns,
		u.ID, u.Username, u.Metric, u.GoalWeight,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, mapError(err, "user")
		}
		return nil, mapError(err, fmt.Sprintf("username %q", u.Username))
	}
	return updated, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (d *DB) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := d.sql.ExecContext(ctx, "UPDATE users SET password_hash = $2 WHERE id = $1", id, hash)
	if err != nil {
		return err
	}
	return expectAffected(res, "user")
}

// DeleteUser removes the user's entries and then the user in one
// transaction.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE user_id = $1", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
		if err != nil {
			return err
		}
		return expectAffected(res, "user")
	})
}
