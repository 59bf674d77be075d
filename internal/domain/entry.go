package domain

import (
	"context"
	"fmt"
)

// Entry is a single dated weight measurement. Weight is stored in the unit
// it was recorded in, tagged by IsMetric.
type Entry struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"-"`
	Date     Date    `json:"date"`
	Weight   float64 `json:"weight"`
	IsMetric bool    `json:"is_metric"`
}

// Measurement is the user-supplied part of an entry, as accepted by upserts
// and produced by CSV decoding.
type Measurement struct {
	Date     Date    `json:"date"`
	Weight   float64 `json:"weight"`
	IsMetric bool    `json:"is_metric"`
}

// Measurement returns the user-supplied fields of e.
func (e Entry) Measurement() Measurement {
	return Measurement{Date: e.Date, Weight: e.Weight, IsMetric: e.IsMetric}
}

// Validate checks the date is set and the weight is positive.
func (m Measurement) Validate() error {
	if m.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if !isPositiveFinite(m.Weight) {
		return fmt.Errorf("%w: weight must be greater than zero", ErrValidation)
	}
	return nil
}

// EntryRepository is the port for entry persistence. Every method is scoped
// to userID; implementations never touch rows owned by other users.
type EntryRepository interface {
	// ListEntries returns entries ordered by date, then id.
	ListEntries(ctx context.Context, userID int64) ([]Entry, error)
	// UpsertEntry inserts or replaces the entry for (userID, m.Date).
	UpsertEntry(ctx context.Context, userID int64, m Measurement) (Entry, error)
	// UpsertEntries applies all measurements in one transaction.
	UpsertEntries(ctx context.Context, userID int64, ms []Measurement) error
	// UpdateEntry rewrites the entry with e.ID. ErrNotFound when the id is
	// not owned by userID, ErrConflict when e.Date is taken by another entry.
	UpdateEntry(ctx context.Context, userID int64, e Entry) (Entry, error)
	// DeleteEntry returns ErrNotFound when no entry exists for the date.
	DeleteEntry(ctx context.Context, userID int64, date Date) error
	// DeleteAllEntries returns the number of removed entries.
	DeleteAllEntries(ctx context.Context, userID int64) (int64, error)
}
