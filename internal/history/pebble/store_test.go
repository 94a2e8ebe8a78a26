package pebble_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/picatz/codegen/internal/history"
	storePebble "github.com/picatz/codegen/internal/history/pebble"
	"github.com/picatz/codegen/internal/history/storetest"
	"github.com/shoenig/test/must"
)

func TestStore_dir(t *testing.T) {
	s, err := storePebble.NewStore(t.TempDir(), nil, &history.JSONCodec{})
	must.NoError(t, err)
	must.NotNil(t, s)
	t.Cleanup(func() {
		must.NoError(t, s.Close(context.Background()))
	})

	storetest.StoreSuite(t, s)
}

func TestStore_mem_vfs(t *testing.T) {
	opts := &pebble.Options{
		FS: vfs.NewMem(),
	}

	s, err := storePebble.NewStore("", opts, nil)
	must.NoError(t, err)
	must.NotNil(t, s)
	t.Cleanup(func() {
		must.NoError(t, s.Close(context.Background()))
	})

	storetest.StoreSuite(t, s)
}
