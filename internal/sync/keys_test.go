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

func newKeyProjectorFixture(t *testing.T) (*sync.KeyProjector, *model.Registry) {
	t.Helper()
	keyModels := model.NewRegistry()
	_, err := keyModels.Add("dynamic:cfg", "config", []byte(`{"type":"string"}`))
	require.NoError(t, err)
	keys := model.NewKeyRegistry()
	return &sync.KeyProjector{Keys: keys, KeyModels: keyModels}, keyModels
}

func TestKeyProjectorApplyInsertIncrementsModelRef(t *testing.T) {
	t.Parallel()

	p, keyModels := newKeyProjectorFixture(t)
	doc, err := bson.Marshal(bson.M{"id": "db_host", "key_model_id": "dynamic:cfg", "description": "", "deprecated": false})
	require.NoError(t, err)

	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpInsert, FullDocument: doc}))

	assert.Error(t, keyModels.Remove("dynamic:cfg"), "model must be InUse after a referencing key is projected")
}

func TestKeyProjectorApplyDeleteReleasesModelRef(t *testing.T) {
	t.Parallel()

	p, keyModels := newKeyProjectorFixture(t)
	doc, err := bson.Marshal(bson.M{"id": "db_host", "key_model_id": "dynamic:cfg", "description": "", "deprecated": false})
	require.NoError(t, err)
	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpInsert, FullDocument: doc}))

	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpDelete, DocumentID: "db_host"}))

	assert.NoError(t, keyModels.Remove("dynamic:cfg"), "model must be free once its only referencing key is deleted")
}

func TestKeyProjectorApplyUpdateRebindsModelRef(t *testing.T) {
	t.Parallel()

	p, keyModels := newKeyProjectorFixture(t)
	_, err := keyModels.Add("dynamic:other", "other", []byte(`{"type":"integer"}`))
	require.NoError(t, err)

	doc1, err := bson.Marshal(bson.M{"id": "db_host", "key_model_id": "dynamic:cfg", "description": "", "deprecated": false})
	require.NoError(t, err)
	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpInsert, FullDocument: doc1}))

	doc2, err := bson.Marshal(bson.M{"id": "db_host", "key_model_id": "dynamic:other", "description": "", "deprecated": false})
	require.NoError(t, err)
	require.NoError(t, p.Apply(context.Background(), sync.Event{Op: sync.OpUpdate, FullDocument: doc2}))

	assert.NoError(t, keyModels.Remove("dynamic:cfg"), "old model must be released after rebind")
	assert.Error(t, keyModels.Remove("dynamic:other"), "new model must now be in use")
}
