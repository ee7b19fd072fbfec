package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/restoflow/restoflow-mobile/kv"
)

func RunStoreTests(t *testing.T, s kv.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s kv.Store){
		testSetAndGet,
		testOverwrite,
		testSetMany,
		testDelete,
	} {
		tf(t, s)
		teardown()
	}
}

func testSetAndGet(t *testing.T, s kv.Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, "token", "abc123"))

	got, err := s.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, "abc123", got)
}

func testOverwrite(t *testing.T, s kv.Store) {
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "token", "first"))
	require.NoError(t, s.Set(ctx, "token", "second"))

	got, err := s.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, "second", got)
}

func testSetMany(t *testing.T, s kv.Store) {
	ctx := context.Background()

	entries := map[string]string{
		"token":    "abc123",
		"userRole": "client",
		"userData": `{"id":42}`,
	}
	require.NoError(t, s.SetMany(ctx, entries))

	for key, want := range entries {
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func testDelete(t *testing.T, s kv.Store) {
	ctx := context.Background()

	require.NoError(t, s.SetMany(ctx, map[string]string{
		"token":    "abc123",
		"userRole": "client",
	}))

	require.NoError(t, s.Delete(ctx, "token", "userRole"))

	_, err := s.Get(ctx, "token")
	require.ErrorIs(t, err, kv.ErrNotFound)
	_, err = s.Get(ctx, "userRole")
	require.ErrorIs(t, err, kv.ErrNotFound)

	// Deleting absent keys is a no-op.
	require.NoError(t, s.Delete(ctx, "token"))
}
