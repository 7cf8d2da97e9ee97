package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Polqt/hieraengine/internal/model"
)

func TestSetDropsDuplicatesPreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	s := model.NewSet([]any{"a", "b", "a", "c"})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []any{"a", "b", "c"}, s.Items())
}

func TestSetUnion(t *testing.T) {
	t.Parallel()

	a := model.NewSet([]any{"a", "b"})
	b := model.NewSet([]any{"b", "c"})
	u := model.Union(a, b)

	assert.Equal(t, 3, u.Len())
	assert.True(t, u.Equal(model.NewSet([]any{"a", "b", "c"})))
}

func TestSetEqualIgnoresOrder(t *testing.T) {
	t.Parallel()

	a := model.NewSet([]any{"a", "b", "c"})
	b := model.NewSet([]any{"c", "b", "a"})
	assert.True(t, a.Equal(b))

	c := model.NewSet([]any{"a", "b"})
	assert.False(t, a.Equal(c))
}
