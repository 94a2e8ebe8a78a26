// Package history provides a pluggable persistence layer for past code
// generation requests and their results. It provides a pebble backend by
// default, but can be extended to support other storage backends as needed.
package history

import (
	"cmp"
	"context"
	"os"
	"time"

	"github.com/segmentio/ksuid"
)

// DefaultPath defines the default location for the generation history,
// stored as a [pebble]-backed database.
//
// On Unix-like systems, it is set to ~/.codegen/history, and on Windows,
// it is set to %USERPROFILE%/.codegen/history.
//
// [pebble]: https://github.com/cockroachdb/pebble
var DefaultPath = cmp.Or(os.Getenv("HOME"), os.Getenv("USERPROFILE")) + "/.codegen/history"

// Operation names which generator operation produced a record.
type Operation string

const (
	OpGenerate Operation = "generate"
	OpComplete Operation = "complete"
	OpExplain  Operation = "explain"
	OpRefactor Operation = "refactor"
	OpDebug    Operation = "debug"
)

// Record is a single request/response pair: the prompt sent to the model
// and the text it returned, along with token accounting.
type Record struct {
	Operation    Operation `json:"operation"`
	Model        string    `json:"model"`
	Prompt       string    `json:"prompt"`
	Output       string    `json:"output"`
	PromptTokens int64     `json:"prompt_tokens,omitzero"`
	OutputTokens int64     `json:"output_tokens,omitzero"`
	CreatedAt    time.Time `json:"created_at"`
}

// Entry pairs a record with its store ID.
type Entry struct {
	ID     string
	Record Record
}

// NewID returns a new record ID. IDs are K-Sortable Unique IDentifiers
// (KSUIDs), so iterating a store in key order yields records in roughly
// chronological order.
func NewID() string {
	return ksuid.New().String()
}

// Store is a storage backend for generation records.
type Store interface {
	// Append stores a new record and returns its ID.
	Append(ctx context.Context, rec Record) (id string, err error)

	// Get retrieves a record by its ID.
	Get(ctx context.Context, id string) (rec Record, found bool, err error)

	// List returns records in chronological order. When limit is greater
	// than zero, only the most recent limit records are returned.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Delete removes a record by its ID.
	Delete(ctx context.Context, id string) error

	// Erase removes all records.
	Erase(ctx context.Context) error

	// Flush persists any buffered writes.
	Flush(ctx context.Context) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}
