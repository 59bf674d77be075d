package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"weightlog/internal/domain"
)

const (
	entryColumns = "id, user_id, entry_date, weight, is_metric"

	upsertEntrySQL = `INSERT INTO entries (user_id, entry_date, weight, is_metric) VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, entry_date) DO UPDATE SET weight = excluded.weight, is_metric = excluded.is_metric
RETURNING ` + entryColumns
)

func scanEntry(row rowScanner) (domain.Entry, error) {
	var e domain.Entry
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Weight, &e.IsMetric)
	return e, err
}

// ListEntries returns the user's entries ordered by date, then id.
func (d *DB) ListEntries(ctx context.Context, userID int64) ([]domain.Entry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE user_id = ? ORDER BY entry_date, id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertEntry inserts the entry or replaces the one already recorded for
// the date, keeping its id.
func (d *DB) UpsertEntry(ctx context.Context, userID int64, m domain.Measurement) (domain.Entry, error) {
	e, err := scanEntry(d.sql.QueryRowContext(ctx, upsertEntrySQL, userID, m.Date, m.Weight, m.IsMetric))
	if err != nil {
		return domain.Entry{}, mapError(err, "entry")
	}
	return e, nil
}

// UpsertEntries applies every measurement or none of them.
func (d *DB) UpsertEntries(ctx context.Context, userID int64, ms []domain.Measurement) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		for _, m := range ms {
			if _, err := scanEntry(tx.QueryRowContext(ctx, upsertEntrySQL, userID, m.Date, m.Weight, m.IsMetric)); err != nil {
				return mapError(err, "entry")
			}
		}
		return nil
	})
}

// UpdateEntry rewrites an entry by id within the user's entries.
func (d *DB) UpdateEntry(ctx context.Context, userID int64, e domain.Entry) (domain.Entry, error) {
	updated, err := scanEntry(d.sql.QueryRowContext(ctx,
		"UPDATE entries SET entry_date = ?, weight = ?, is_metric = ? WHERE id = ? AND user_id = ? RETURNING "+entryColumns,
		e.Date, e.Weight, e.IsMetric, e.ID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("%w: entry %d", domain.ErrNotFound, e.ID)
	}
	if err != nil {
		return domain.Entry{}, mapError(err, fmt.Sprintf("an entry for %s", e.Date))
	}
	return updated, nil
}

// DeleteEntry removes the entry for the date.
func (d *DB) DeleteEntry(ctx context.Context, userID int64, date domain.Date) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM entries WHERE user_id = ? AND entry_date = ?", userID, date)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Sprintf("entry for %s", date))
}

// DeleteAllEntries removes every entry of the user.
func (d *DB) DeleteAllEntries(ctx context.Context, userID int64) (int64, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM entries WHERE user_id = ?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
