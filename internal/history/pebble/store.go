// Package pebble provides a history store backed by the Pebble storage
// engine. Pebble can use an in-memory filesystem or a directory on disk,
// depending on the options provided; the CLI uses a directory on disk by
// default.
package pebble

import (
	"context"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/picatz/codegen/internal/history"
)

// Ensure that Store implements the history.Store interface.
var _ history.Store = (*Store)(nil)

// Store is a history store that uses Pebble as the underlying storage engine.
//
// Record IDs are KSUIDs, so Pebble's lexicographic key order is also
// chronological order.
type Store struct {
	db    *pebble.DB
	codec history.Codec
}

// NewStore opens a Pebble-backed history store at dirname.
func NewStore(dirname string, opts *pebble.Options, codec history.Codec) (*Store, error) {
	db, err := pebble.Open(dirname, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}

	if codec == nil {
		codec = &history.JSONCodec{}
	}

	return &Store{db: db, codec: codec}, nil
}

// Append stores a new record under a fresh KSUID and returns it.
func (s *Store) Append(ctx context.Context, rec history.Record) (string, error) {
	id := history.NewID()

	value, err := s.codec.Encode(rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	if err := s.db.Set([]byte(id), value, nil); err != nil {
		return "", fmt.Errorf("failed to set record: %w", err)
	}

	return id, nil
}

// Get retrieves a record by its ID.
func (s *Store) Get(ctx context.Context, id string) (history.Record, bool, error) {
	var zero history.Record

	value, closer, err := s.db.Get([]byte(id))
	if err != nil {
		return zero, false, nil
	}
	defer closer.Close()

	rec, err := s.codec.Decode(value)
	if err != nil {
		return zero, false, fmt.Errorf("failed to decode record: %w", err)
	}

	return rec, true, nil
}

// List returns records in chronological order, keeping only the most recent
// limit records when limit is greater than zero.
func (s *Store) List(ctx context.Context, limit int) ([]history.Entry, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create pebble iterator: %w", err)
	}
	defer iter.Close()

	var entries []history.Entry

	for iter.First(); iter.Valid(); iter.Next() {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("stopped iteration via context: %w", ctx.Err())
		}

		rec, err := s.codec.Decode(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}

		entries = append(entries, history.Entry{
			ID:     string(iter.Key()),
			Record: rec,
		})
	}
	if iter.Error() != nil {
		return nil, fmt.Errorf("failed to list records: %w", iter.Error())
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	return entries, nil
}

// Delete removes a record by its ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete([]byte(id), nil); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Erase removes all records from the store.
func (s *Store) Erase(ctx context.Context) error {
	entries, err := s.List(ctx, 0)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := s.Delete(ctx, entry.ID); err != nil {
			return err
		}
	}

	return nil
}

// Flush flushes the underlying database.
func (s *Store) Flush(ctx context.Context) error {
	if err := s.db.Flush(); err != nil {
		return fmt.Errorf("failed to flush pebble database: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close pebble database: %w", err)
	}
	return nil
}
