package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Polqt/hieraengine/internal/nodegroup"
	"github.com/Polqt/hieraengine/internal/sync"
)

func TestNodeGroupProjectorApplyInsertBuildsFilters(t *testing.T) {
	t.Parallel()

	cache := nodegroup.NewCache()
	p := &sync.NodeGroupProjector{Cache: cache}

	doc, err := bson.Marshal(bson.M{
		"id": "web-prod",
		"filters": []bson.M{
			{"part": []bson.M{{"fact": "env", "values": []string{"prod"}}}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpInsert, FullDocument: doc}))

	matched := nodegroup.MatchingGroups(cache.All(), map[string]any{"env": "prod"})
	assert.Equal(t, []string{"web-prod"}, matched)
}

func TestNodeGroupProjectorApplyDeleteRemovesGroup(t *testing.T) {
	t.Parallel()

	cache := nodegroup.NewCache()
	cache.Set(nodegroup.Group{ID: "web-prod"})
	p := &sync.NodeGroupProjector{Cache: cache}

	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpDelete, DocumentID: "web-prod"}))

	assert.Empty(t, cache.All())
}
