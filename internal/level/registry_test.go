package level_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/level"
)

func TestRegistryOrderedLevelsAscendingPriority(t *testing.T) {
	t.Parallel()

	r := level.NewRegistry()
	r.Set(level.Level{ID: "common", Priority: 100})
	r.Set(level.Level{ID: "{env}", Priority: 50})

	assert.Equal(t, []string{"{env}", "common"}, r.OrderedLevels())
}

func TestRegistryGetNotFound(t *testing.T) {
	t.Parallel()

	r := level.NewRegistry()
	_, err := r.Get("missing")
	require.Error(t, err)
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))
}

func TestRegistrySetReplacesAndReordersSnapshot(t *testing.T) {
	t.Parallel()

	r := level.NewRegistry()
	r.Set(level.Level{ID: "a", Priority: 10})
	r.Set(level.Level{ID: "b", Priority: 20})
	assert.Equal(t, []string{"a", "b"}, r.OrderedLevels())

	r.Set(level.Level{ID: "a", Priority: 30})
	assert.Equal(t, []string{"b", "a"}, r.OrderedLevels())
}

func TestRegistryDelete(t *testing.T) {
	t.Parallel()

	r := level.NewRegistry()
	r.Set(level.Level{ID: "a", Priority: 10})
	r.Delete("a")

	_, err := r.Get("a")
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))
	assert.Empty(t, r.OrderedLevels())
}
