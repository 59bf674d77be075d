package app

import (
	"context"
	"io"

	"weightlog/internal/csvcodec"
	"weightlog/internal/domain"
)

// EntryService encapsulates weight entry use cases. Every method takes the
// authenticated user's id and only ever touches that user's entries.
type EntryService struct {
	repo domain.EntryRepository
}

// NewEntryService creates an EntryService backed by the given repository.
func NewEntryService(repo domain.EntryRepository) *EntryService {
	return &EntryService{repo: repo}
}

// List returns the user's entries in ascending date order.
func (s *EntryService) List(ctx context.Context, userID int64) ([]domain.Entry, error) {
	return s.repo.ListEntries(ctx, userID)
}

// Upsert records a weight for a date, replacing any existing entry for the
// same date. The returned entry carries its id.
func (s *EntryService) Upsert(ctx context.Context, userID int64, m domain.Measurement) (domain.Entry, error) {
	if err := m.Validate(); err != nil {
		return domain.Entry{}, err
	}
	return s.repo.UpsertEntry(ctx, userID, m)
}

// Update rewrites an existing entry by id.
func (s *EntryService) Update(ctx context.Context, userID, id int64, m domain.Measurement) (domain.Entry, error) {
	if err := m.Validate(); err != nil {
		return domain.Entry{}, err
	}
	return s.repo.UpdateEntry(ctx, userID, domain.Entry{
		ID:       id,
		UserID:   userID,
		Date:     m.Date,
		Weight:   m.Weight,
		IsMetric: m.IsMetric,
	})
}

// Delete removes the entry for date. Deleting a missing entry fails with
// domain.ErrNotFound.
func (s *EntryService) Delete(ctx context.Context, userID int64, date domain.Date) error {
	return s.repo.DeleteEntry(ctx, userID, date)
}

// DeleteAll removes every entry of the user and reports how many went.
func (s *EntryService) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	return s.repo.DeleteAllEntries(ctx, userID)
}

// ExportCSV writes the user's entries as CSV.
func (s *EntryService) ExportCSV(ctx context.Context, userID int64, w io.Writer) error {
	entries, err := s.repo.ListEntries(ctx, userID)
	if err != nil {
		return err
	}
	return csvcodec.Encode(w, entries)
}

// ImportCSV decodes the whole input and then upserts every row in one
// batch. Nothing is written unless every row is valid.
func (s *EntryService) ImportCSV(ctx context.Context, userID int64, r io.Reader) (int, error) {
	ms, err := csvcodec.Decode(r)
	if err != nil {
		return 0, err
	}
	if len(ms) == 0 {
		return 0, nil
	}
	if err := s.repo.UpsertEntries(ctx, userID, ms); err != nil {
		return 0, err
	}
	return len(ms), nil
}
