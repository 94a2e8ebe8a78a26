// Package storetest provides a conformance suite run against every
// history.Store implementation.
package storetest

import (
	"testing"
	"time"

	"github.com/picatz/codegen/internal/history"
	"github.com/shoenig/test/must"
)

// StoreSuite tests a store implementation of the history package, using
// the provided store instance to perform the tests.
func StoreSuite(t *testing.T, store history.Store) {
	t.Helper()

	ctx := t.Context()

	first := history.Record{
		Operation: "generate",
		Model:     "gpt-4",
		Prompt:    "write a hello world program",
		Output:    "print(\"hello world\")",
		CreatedAt: time.Now().UTC(),
	}

	firstID, err := store.Append(ctx, first)
	must.NoError(t, err)
	must.NotEq(t, "", firstID)

	got, found, err := store.Get(ctx, firstID)
	must.NoError(t, err)
	must.True(t, found)
	must.Eq(t, first.Prompt, got.Prompt)
	must.Eq(t, first.Output, got.Output)

	_, found, err = store.Get(ctx, "does-not-exist")
	must.NoError(t, err)
	must.False(t, found)

	second := history.Record{
		Operation: "explain",
		Model:     "gpt-4",
		Prompt:    "explain this code",
		Output:    "it prints hello world",
		CreatedAt: time.Now().UTC(),
	}

	secondID, err := store.Append(ctx, second)
	must.NoError(t, err)
	must.NotEq(t, firstID, secondID)

	// Records list in chronological order.
	entries, err := store.List(ctx, 0)
	must.NoError(t, err)
	must.Len(t, 2, entries)
	must.Eq(t, firstID, entries[0].ID)
	must.Eq(t, secondID, entries[1].ID)

	// A limit keeps only the most recent records.
	entries, err = store.List(ctx, 1)
	must.NoError(t, err)
	must.Len(t, 1, entries)
	must.Eq(t, secondID, entries[0].ID)
	must.Eq(t, second.Output, entries[0].Record.Output)

	err = store.Delete(ctx, firstID)
	must.NoError(t, err)

	_, found, err = store.Get(ctx, firstID)
	must.NoError(t, err)
	must.False(t, found)

	err = store.Erase(ctx)
	must.NoError(t, err)

	entries, err = store.List(ctx, 0)
	must.NoError(t, err)
	must.Len(t, 0, entries)

	must.NoError(t, store.Flush(ctx))
}
