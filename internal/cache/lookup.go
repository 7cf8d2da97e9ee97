// Package cache implements the Lookup Cache (C6): a memoisation layer in
// front of the Hiera Engine's lookup algorithm, keyed on (key id, merge
// flag, normalised fact set).
package cache

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/store"
)

// FactPair is one entry of a normalised, sorted fact assignment. Encoding
// facts this way (rather than as a BSON subdocument keyed by fact name)
// lets an invalidation sweep match any cache row whose fact set is a
// superset of the changed facts via a single $all query, instead of
// needing to know every possible fact key in advance.
type FactPair struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

// normalizeFacts sorts facts by key so identical fact maps always produce
// the same cache key regardless of map iteration order.
func normalizeFacts(facts map[string]string) []FactPair {
	pairs := make([]FactPair, 0, len(facts))
	for k, v := range facts {
		pairs = append(pairs, FactPair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs
}

// Cache is the Lookup Cache contract the Hiera Engine depends on.
type Cache interface {
	// Get returns the memoised result for (keyID, facts, merge), or
	// herrors.NotFound on a cache miss.
	Get(ctx context.Context, keyID string, facts map[string]string, merge bool) (any, error)
	// Put stores or replaces the memoised result.
	Put(ctx context.Context, keyID string, facts map[string]string, merge bool, result any) error
	// Invalidate drops every cached row for keyID whose fact set is a
	// superset of facts (or every row for keyID if facts is empty). Used
	// whenever level data changes, or a key is rebound to another key
	// model or deleted, such that keyID's lookups may now disagree with
	// the cache.
	Invalidate(ctx context.Context, keyID string, facts map[string]string) error
	// ClearAll drops the entire cache, used on level priority changes
	// where recomputing a precise invalidation set isn't worth it.
	ClearAll(ctx context.Context) error
}

type cacheDoc struct {
	KeyID  string     `bson:"key_id"`
	Merge  bool       `bson:"merge"`
	Facts  []FactPair `bson:"facts"`
	Result any        `bson:"result"`
}

// MongoCache is the production Cache, backed by the lookup_cache
// collection.
type MongoCache struct {
	coll store.Collection
}

// NewMongoCache wraps coll (normally a *mongo.Collection for the
// "lookup_cache" collection) as a Cache.
func NewMongoCache(coll store.Collection) *MongoCache {
	return &MongoCache{coll: coll}
}

// EnsureIndexes creates the compound index the cache's query shapes rely
// on for both exact-match (Get/Put) and $all subset-match (Invalidate)
// lookups.
func (c *MongoCache) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "key_id", Value: 1},
			{Key: "merge", Value: 1},
			{Key: "facts.key", Value: 1},
			{Key: "facts.value", Value: 1},
		},
	})
	if err != nil {
		return herrors.Newf(herrors.BackendUnavailable, "create cache index: %v", err)
	}
	return nil
}

func (c *MongoCache) Get(ctx context.Context, keyID string, facts map[string]string, merge bool) (any, error) {
	filter := bson.M{
		"key_id": keyID,
		"merge":  merge,
		"facts":  normalizeFacts(facts),
	}
	var doc cacheDoc
	err := c.coll.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, herrors.New(herrors.NotFound, "cache miss")
	}
	if err != nil {
		return nil, herrors.Newf(herrors.BackendUnavailable, "get cached lookup: %v", err)
	}
	return doc.Result, nil
}

func (c *MongoCache) Put(ctx context.Context, keyID string, facts map[string]string, merge bool, result any) error {
	normalized := normalizeFacts(facts)
	filter := bson.M{
		"key_id": keyID,
		"merge":  merge,
		"facts":  normalized,
	}
	update := bson.M{"$set": bson.M{
		"key_id": keyID,
		"merge":  merge,
		"facts":  normalized,
		"result": result,
	}}
	_, err := c.coll.UpdateMany(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return herrors.Newf(herrors.BackendUnavailable, "put cached lookup: %v", err)
	}
	return nil
}

// Invalidate uses an exact key_id match combined with a $all subset match
// on facts so that, e.g., a change to level data scoped by {"env":"prod"}
// also evicts a cached lookup keyed on the superset
// {"env":"prod","region":"us"}. Any cache row whose fact set could have
// observed the changed data is dropped, even though Get/Put use exact
// equality to avoid false-positive hits on an unrelated subset.
func (c *MongoCache) Invalidate(ctx context.Context, keyID string, facts map[string]string) error {
	normalized := normalizeFacts(facts)
	var filter bson.M
	if len(normalized) > 0 {
		filter = bson.M{"key_id": keyID, "facts": bson.M{"$all": normalized}}
	} else {
		filter = bson.M{"key_id": keyID}
	}
	_, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return herrors.Newf(herrors.BackendUnavailable, "invalidate cache: %v", err)
	}
	return nil
}

func (c *MongoCache) ClearAll(ctx context.Context) error {
	_, err := c.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return herrors.Newf(herrors.BackendUnavailable, "clear cache: %v", err)
	}
	return nil
}

var _ Cache = (*MongoCache)(nil)
