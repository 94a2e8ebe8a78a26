package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/picatz/codegen/internal/history"
	"github.com/picatz/codegen/internal/history/memory"
	pebbleStorage "github.com/picatz/codegen/internal/history/pebble"
)

// stderrLoggerAndTracer keeps pebble quiet unless something is fatal.
type stderrLoggerAndTracer struct{}

func (l *stderrLoggerAndTracer) Infof(format string, args ...interface{}) {}

func (l *stderrLoggerAndTracer) Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func (l *stderrLoggerAndTracer) Eventf(ctx context.Context, format string, args ...interface{}) {}

func (l *stderrLoggerAndTracer) IsTracingEnabled(ctx context.Context) bool {
	return false
}

// pebbleStore opens the default on-disk history store.
func pebbleStore() (history.Store, error) {
	opts := &pebble.Options{
		LoggerAndTracer: &stderrLoggerAndTracer{},
	}

	store, err := pebbleStorage.NewStore(history.DefaultPath, opts, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble history store: %w", err)
	}

	return store, nil
}

// memoryStore returns a history store that leaves nothing behind.
func memoryStore() history.Store {
	return memory.NewStore()
}
