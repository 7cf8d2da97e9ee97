package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/sync"
)

func TestKeyModelProjectorApplyInsertAddsModel(t *testing.T) {
	t.Parallel()

	registry := model.NewRegistry()
	p := &sync.KeyModelProjector{Registry: registry}

	doc, err := bson.Marshal(bson.M{
		"id": "dynamic:cfg", "description": "config", "schema": []byte(`{"type":"string"}`),
	})
	require.NoError(t, err)

	err = p.Apply(context.Background(), sync.Event{Op: sync.OpInsert, FullDocument: doc})
	require.NoError(t, err)

	km, err := registry.Get("dynamic:cfg")
	require.NoError(t, err)
	assert.Equal(t, "config", km.Description)
}

func TestKeyModelProjectorApplyUpdateReplacesModel(t *testing.T) {
	t.Parallel()

	registry := model.NewRegistry()
	_, err := registry.Add("dynamic:cfg", "v1", []byte(`{"type":"string"}`))
	require.NoError(t, err)
	p := &sync.KeyModelProjector{Registry: registry}

	doc, err := bson.Marshal(bson.M{
		"id": "dynamic:cfg", "description": "v2", "schema": []byte(`{"type":"integer"}`),
	})
	require.NoError(t, err)

	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpUpdate, FullDocument: doc}))

	km, err := registry.Get("dynamic:cfg")
	require.NoError(t, err)
	assert.Equal(t, "v2", km.Description)
}

func TestKeyModelProjectorApplyDeleteRemovesModel(t *testing.T) {
	t.Parallel()

	registry := model.NewRegistry()
	_, err := registry.Add("dynamic:cfg", "v1", []byte(`{"type":"string"}`))
	require.NoError(t, err)
	p := &sync.KeyModelProjector{Registry: registry}

	// DocumentID arrives as a plain string because admin.go sets Mongo's
	// _id equal to the domain id on insert; a stray ObjectID here would
	// silently no-op instead of deleting.
	err = p.Apply(context.Background(), sync.Event{Op: sync.OpDelete, DocumentID: "dynamic:cfg"})
	require.NoError(t, err)

	_, err = registry.Get("dynamic:cfg")
	assert.Error(t, err)
}

func TestKeyModelProjectorApplyDeleteIgnoresNonStringDocumentID(t *testing.T) {
	t.Parallel()

	registry := model.NewRegistry()
	_, err := registry.Add("dynamic:cfg", "v1", []byte(`{"type":"string"}`))
	require.NoError(t, err)
	p := &sync.KeyModelProjector{Registry: registry}

	err = p.Apply(context.Background(), sync.Event{Op: sync.OpDelete, DocumentID: 12345})
	require.NoError(t, err)

	_, err = registry.Get("dynamic:cfg")
	assert.NoError(t, err, "model must still exist since the event carried no usable id")
}
