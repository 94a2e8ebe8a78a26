package memory_test

import (
	"testing"

	"github.com/picatz/codegen/internal/history/memory"
	"github.com/picatz/codegen/internal/history/storetest"
)

func TestStore(t *testing.T) {
	storetest.StoreSuite(t, memory.NewStore())
}
