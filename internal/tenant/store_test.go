package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "user-1", 42))

	orgID, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), orgID)

	// Selections are per user
	_, ok, err = store.Get(ctx, "user-2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear(ctx, "user-1"))

	_, ok, err = store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "user-1", 1))
	require.NoError(t, store.Set(ctx, "user-1", 2))

	orgID, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), orgID)
}
