package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "studies:7:detail", map[string]string{"title": "go study"}, time.Minute))

	var got map[string]string
	require.NoError(t, store.Get(ctx, "studies:7:detail", &got))
	assert.Equal(t, "go study", got["title"])
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore()

	var got string
	err := store.Get(context.Background(), "absent", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	err := store.Get(ctx, "k", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Zero(t, store.Len())
}

func TestMemoryStoreDeleteByPattern(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "studies:7:detail", 1, 0))
	require.NoError(t, store.Set(ctx, "studies:7:status", 2, 0))
	require.NoError(t, store.Set(ctx, "studies:70:detail", 3, 0))
	require.NoError(t, store.Set(ctx, "studies:list", 4, 0))

	require.NoError(t, store.DeleteByPattern(ctx, "studies:7:*"))

	var got int
	assert.ErrorIs(t, store.Get(ctx, "studies:7:detail", &got), ErrCacheMiss)
	assert.ErrorIs(t, store.Get(ctx, "studies:7:status", &got), ErrCacheMiss)
	assert.NoError(t, store.Get(ctx, "studies:70:detail", &got), "sibling ids must survive the prefix")
	assert.NoError(t, store.Get(ctx, "studies:list", &got))
}

func TestMemoryStoreDeleteExactKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "studies:list", 1, 0))
	require.NoError(t, store.DeleteByPattern(ctx, "studies:list"))

	var got int
	assert.ErrorIs(t, store.Get(ctx, "studies:list", &got), ErrCacheMiss)
}

func TestKeyBuilder(t *testing.T) {
	assert.Equal(t, "studies:list", Key("studies", "list"))
	assert.Equal(t, "studies:7:detail", Key("studies", int64(7), "detail"))
	assert.Equal(t, "roles", Key("roles"))
	assert.Equal(t, "studies:7:*", Pattern("studies", int64(7)))
}
