package nodegroup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/hieraengine/internal/nodegroup"
)

func TestCacheSetGetDelete(t *testing.T) {
	t.Parallel()

	c := nodegroup.NewCache()
	assert.Empty(t, c.All())

	c.Set(nodegroup.Group{ID: "a"})
	c.Set(nodegroup.Group{ID: "b"})
	assert.Len(t, c.All(), 2)

	c.Delete("a")
	all := c.All()
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)
}
