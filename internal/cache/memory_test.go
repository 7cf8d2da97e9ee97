package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/hieraengine/internal/cache"
	"github.com/Polqt/hieraengine/internal/herrors"
)

func TestMemoryCacheGetMissReturnsNotFound(t *testing.T) {
	t.Parallel()

	c := cache.NewMemoryCache()
	_, err := c.Get(context.Background(), "k", map[string]string{"env": "prod"}, false)
	require.Error(t, err)
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))
}

func TestMemoryCachePutThenGetExactMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewMemoryCache()
	require.NoError(t, c.Put(ctx, "k", map[string]string{"env": "prod"}, false, "v1"))

	got, err := c.Get(ctx, "k", map[string]string{"env": "prod"}, false)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	// Different facts: no match.
	_, err = c.Get(ctx, "k", map[string]string{"env": "stage"}, false)
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))

	// Different merge flag: no match, even with identical facts.
	_, err = c.Get(ctx, "k", map[string]string{"env": "prod"}, true)
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))
}

func TestMemoryCacheInvalidateUsesSubsetMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewMemoryCache()
	require.NoError(t, c.Put(ctx, "k", map[string]string{"env": "prod", "region": "us"}, false, "v1"))

	// Invalidating on a subset of the stored facts must still evict it.
	require.NoError(t, c.Invalidate(ctx, "k", map[string]string{"env": "prod"}))

	_, err := c.Get(ctx, "k", map[string]string{"env": "prod", "region": "us"}, false)
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))
}

func TestMemoryCacheInvalidateEmptyFactsClearsWholeKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewMemoryCache()
	require.NoError(t, c.Put(ctx, "k", map[string]string{"env": "prod"}, false, "v1"))
	require.NoError(t, c.Put(ctx, "k", map[string]string{"env": "stage"}, true, "v2"))
	require.NoError(t, c.Put(ctx, "other", map[string]string{"env": "prod"}, false, "v3"))

	require.NoError(t, c.Invalidate(ctx, "k", nil))

	_, err := c.Get(ctx, "k", map[string]string{"env": "prod"}, false)
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))
	_, err = c.Get(ctx, "k", map[string]string{"env": "stage"}, true)
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))

	// Unrelated key untouched.
	got, err := c.Get(ctx, "other", map[string]string{"env": "prod"}, false)
	require.NoError(t, err)
	assert.Equal(t, "v3", got)
}

func TestMemoryCacheClearAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewMemoryCache()
	require.NoError(t, c.Put(ctx, "k", map[string]string{"env": "prod"}, false, "v1"))
	require.NoError(t, c.ClearAll(ctx))

	_, err := c.Get(ctx, "k", map[string]string{"env": "prod"}, false)
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))
}
