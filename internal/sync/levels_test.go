package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Polqt/hieraengine/internal/level"
	"github.com/Polqt/hieraengine/internal/sync"
)

func TestLevelProjectorApplyInsertAddsLevel(t *testing.T) {
	t.Parallel()

	registry := level.NewRegistry()
	p := &sync.LevelProjector{Registry: registry}

	doc, err := bson.Marshal(bson.M{"id": "prod", "priority": 50})
	require.NoError(t, err)
	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpInsert, FullDocument: doc}))

	l, err := registry.Get("prod")
	require.NoError(t, err)
	assert.Equal(t, 50, l.Priority)
}

func TestLevelProjectorApplyDeleteRemovesLevel(t *testing.T) {
	t.Parallel()

	registry := level.NewRegistry()
	registry.Set(level.Level{ID: "prod", Priority: 50})
	p := &sync.LevelProjector{Registry: registry}

	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpDelete, DocumentID: "prod"}))

	_, err := registry.Get("prod")
	assert.Error(t, err)
}
