package memory

import (
	"testing"

	"github.com/restoflow/restoflow-mobile/kv/tests"
)

func TestMemoryStore(t *testing.T) {
	store := NewInMemory()
	teardown := func() {
		store.(*memory).reset()
	}

	tests.RunStoreTests(t, store, teardown)
}
