// Package memory provides an in-memory history store, used for tests and
// for temporary sessions that should leave nothing behind.
package memory

import (
	"context"
	"slices"

	"github.com/picatz/codegen/internal/history"
)

var _ history.Store = (*Store)(nil)

// Store is an in-memory history store backed by a slice in append order,
// which matches chronological order.
type Store struct {
	entries []history.Entry
}

// NewStore creates a new in-memory history store.
func NewStore() *Store {
	return &Store{}
}

// Append stores a new record and returns its ID.
func (s *Store) Append(ctx context.Context, rec history.Record) (string, error) {
	id := history.NewID()
	s.entries = append(s.entries, history.Entry{ID: id, Record: rec})
	return id, nil
}

// Get retrieves a record by its ID.
func (s *Store) Get(ctx context.Context, id string) (history.Record, bool, error) {
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry.Record, true, nil
		}
	}
	var zero history.Record
	return zero, false, nil
}

// List returns records in chronological order, keeping only the most recent
// limit records when limit is greater than zero.
func (s *Store) List(ctx context.Context, limit int) ([]history.Entry, error) {
	entries := s.entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return slices.Clone(entries), nil
}

// Delete removes a record by its ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	for i, entry := range s.entries {
		if entry.ID == id {
			s.entries = slices.Delete(s.entries, i, i+1)
			break
		}
	}
	return nil
}

// Erase removes all records.
func (s *Store) Erase(ctx context.Context) error {
	s.entries = nil
	return nil
}

// Flush is a no-op for the in-memory store.
func (s *Store) Flush(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(context.Context) error {
	return nil
}
