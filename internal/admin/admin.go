// Package admin implements the Admin Surface (C10): a thin coordinator
// that validates inputs via the engine's registries, persists the
// authoritative document to its backing collection, and asks the engine
// to apply the resulting invariant (schema compile, key-model binding,
// priority propagation, cache invalidation), splitting validation and
// storage the way a registry/compat-checker pair would: validation logic
// stays in the domain package (internal/hiera, internal/model), and this
// package only wires HTTP-free CRUD coordination around it.
package admin

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Polqt/hieraengine/internal/hiera"
	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/level"
	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/nodegroup"
	"github.com/Polqt/hieraengine/internal/store"
)

// Surface coordinates admin CRUD over key models, keys, levels, level
// data and node groups.
type Surface struct {
	engine         *hiera.Engine
	keyModelsColl  store.Collection
	keysColl       store.Collection
	levelsColl     store.Collection
	nodeGroupsColl store.Collection
	membership     *nodegroup.Membership
}

// New builds a Surface over engine and the backing document collections.
func New(engine *hiera.Engine, keyModelsColl, keysColl, levelsColl, nodeGroupsColl store.Collection) *Surface {
	return &Surface{
		engine:         engine,
		keyModelsColl:  keyModelsColl,
		keysColl:       keysColl,
		levelsColl:     levelsColl,
		nodeGroupsColl: nodeGroupsColl,
		membership:     nodegroup.NewMembership(nodeGroupsColl),
	}
}

func wrapDup(err error, msg string) error {
	if mongo.IsDuplicateKeyError(err) {
		return herrors.New(herrors.Duplicate, msg)
	}
	if err != nil {
		return herrors.Newf(herrors.BackendUnavailable, "%s: %v", msg, err)
	}
	return nil
}

// CreateKeyModel compiles and persists a dynamic KeyModel, then registers
// it in the Key Model Registry for immediate local use (the key_models
// change-stream synchroniser provides the same update to every other
// running instance).
func (s *Surface) CreateKeyModel(ctx context.Context, id, description string, schema json.RawMessage) (*model.KeyModel, error) {
	if _, err := model.CompileSchema(schema); err != nil {
		return nil, herrors.Newf(herrors.InvalidInput, "invalid schema for %q: %v", id, err)
	}
	doc := bson.M{"_id": id, "id": id, "description": description, "schema": schema, "created_at": time.Now()}
	if _, err := s.keyModelsColl.InsertOne(ctx, doc); err != nil {
		return nil, wrapDup(err, "key model "+id+" already exists")
	}
	return s.engine.KeyModels().Add(id, description, schema)
}

// DeleteKeyModel removes a dynamic KeyModel, failing InUse if any Key
// still references it.
func (s *Surface) DeleteKeyModel(ctx context.Context, id string) error {
	if err := s.engine.KeyModels().Remove(id); err != nil {
		return err
	}
	if _, err := s.keyModelsColl.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return herrors.Newf(herrors.BackendUnavailable, "delete key model %s: %v", id, err)
	}
	return nil
}

// ListKeyModels returns every registered KeyModel, optionally filtered.
func (s *Surface) ListKeyModels(filter func(*model.KeyModel) bool) []*model.KeyModel {
	return s.engine.KeyModels().List(filter)
}

// CreateKey persists a Key document and binds it to keyModelID.
func (s *Surface) CreateKey(ctx context.Context, id, keyModelID, description string) (*model.Key, error) {
	if !s.engine.KeyModels().Has(keyModelID) {
		return nil, herrors.Newf(herrors.NotFound, "key model %q not found", keyModelID)
	}
	doc := bson.M{
		"_id": id, "id": id, "key_model_id": keyModelID, "description": description,
		"deprecated": false, "created_at": time.Now(),
	}
	if _, err := s.keysColl.InsertOne(ctx, doc); err != nil {
		return nil, wrapDup(err, "key "+id+" already exists")
	}
	return s.engine.CreateKey(id, keyModelID, description)
}

// UpdateKeyModelBinding rebinds an existing Key to a new KeyModel,
// revalidating existing level data first. On success the Key
// document is updated to match.
func (s *Surface) UpdateKeyModelBinding(ctx context.Context, id, newKeyModelID string) (*model.Key, error) {
	updated, err := s.engine.UpdateKeyModel(ctx, id, newKeyModelID)
	if err != nil {
		return nil, err
	}
	dbErr := s.keysColl.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"key_model_id": newKeyModelID}}).Err()
	if dbErr != nil && dbErr != mongo.ErrNoDocuments {
		return nil, herrors.Newf(herrors.BackendUnavailable, "persist key model binding for %s: %v", id, dbErr)
	}
	return updated, nil
}

// DeleteKey removes a Key and all of its level data.
func (s *Surface) DeleteKey(ctx context.Context, id string) error {
	if err := s.engine.DeleteKey(ctx, id); err != nil {
		return err
	}
	_, err := s.keysColl.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return herrors.Newf(herrors.BackendUnavailable, "delete key %s: %v", id, err)
	}
	return nil
}

// CreateLevel persists a Level document and registers it.
func (s *Surface) CreateLevel(ctx context.Context, id string, priority int) (level.Level, error) {
	doc := bson.M{"_id": id, "id": id, "priority": priority, "created_at": time.Now()}
	if _, err := s.levelsColl.InsertOne(ctx, doc); err != nil {
		return level.Level{}, wrapDup(err, "level "+id+" already exists")
	}
	return s.engine.CreateLevel(id, priority), nil
}

// UpdateLevelPriority reorders a Level and propagates the new priority to
// every LevelData row referencing it, clearing the lookup cache.
func (s *Surface) UpdateLevelPriority(ctx context.Context, id string, newPriority int) (level.Level, error) {
	updated, err := s.engine.UpdateLevelPriority(ctx, id, newPriority)
	if err != nil {
		return level.Level{}, err
	}
	dbErr := s.levelsColl.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"priority": newPriority}}).Err()
	if dbErr != nil && dbErr != mongo.ErrNoDocuments {
		return level.Level{}, wrapDup(dbErr, "level priority "+id+" conflicts")
	}
	return updated, nil
}

// DeleteLevel removes a Level, its level data, and clears the cache.
func (s *Surface) DeleteLevel(ctx context.Context, id string) error {
	if err := s.engine.DeleteLevel(ctx, id); err != nil {
		return err
	}
	_, err := s.levelsColl.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return herrors.Newf(herrors.BackendUnavailable, "delete level %s: %v", id, err)
	}
	return nil
}

// CreateLevelData, UpdateLevelData and DeleteLevelData delegate directly to
// the engine, which owns both validation and persistence for LevelData
// rows (C5 is the authoritative store, not projected).
func (s *Surface) CreateLevelData(ctx context.Context, levelID, keyID string, facts map[string]string, data any) (store.LevelData, error) {
	return s.engine.CreateLevelData(ctx, levelID, keyID, facts, data)
}

func (s *Surface) UpdateLevelData(ctx context.Context, levelID, expandedID, keyID string, data any) (store.LevelData, error) {
	return s.engine.UpdateLevelData(ctx, levelID, expandedID, keyID, data)
}

func (s *Surface) DeleteLevelData(ctx context.Context, levelID, expandedID, keyID string) error {
	return s.engine.DeleteLevelData(ctx, levelID, expandedID, keyID)
}

// Lookup and LookupMerge expose the engine's read path.
func (s *Surface) Lookup(ctx context.Context, keyID string, facts map[string]string) (any, error) {
	return s.engine.Lookup(ctx, keyID, facts)
}

func (s *Surface) LookupMerge(ctx context.Context, keyID string, facts map[string]string) (any, error) {
	return s.engine.LookupMerge(ctx, keyID, facts)
}

// ReevaluateNodeMembership recomputes which node groups nodeID belongs to
// after an external fact-ingestion event changes its facts.
func (s *Surface) ReevaluateNodeMembership(ctx context.Context, nodeID string, groups []nodegroup.Group, facts map[string]any) ([]string, error) {
	return s.membership.Reevaluate(ctx, nodeID, groups, facts)
}
