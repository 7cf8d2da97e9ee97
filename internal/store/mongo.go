package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Polqt/hieraengine/internal/herrors"
)

// levelDataDoc is the BSON shape of a level_data document. Facts are
// stored as a plain map (unlike the lookup cache's sorted-array
// encoding, since level-data facts are never used as an equality cache
// key; see internal/cache for that distinction.
type levelDataDoc struct {
	ID         string            `bson:"id"`
	LevelID    string            `bson:"level_id"`
	ExpandedID string            `bson:"expanded_id"`
	KeyID      string            `bson:"key_id"`
	Facts      map[string]string `bson:"facts"`
	Data       any               `bson:"data"`
	Priority   int               `bson:"priority"`
	CreatedAt  time.Time         `bson:"created_at"`
}

func toDoc(ld LevelData) levelDataDoc {
	return levelDataDoc{
		ID:         ld.ID,
		LevelID:    ld.LevelID,
		ExpandedID: ld.ExpandedID,
		KeyID:      ld.KeyID,
		Facts:      ld.Facts,
		Data:       ld.Data,
		Priority:   ld.Priority,
		CreatedAt:  ld.CreatedAt,
	}
}

func fromDoc(d levelDataDoc) LevelData {
	return LevelData{
		ID:         d.ID,
		LevelID:    d.LevelID,
		ExpandedID: d.ExpandedID,
		KeyID:      d.KeyID,
		Facts:      d.Facts,
		Data:       d.Data,
		Priority:   d.Priority,
		CreatedAt:  d.CreatedAt,
	}
}

// MongoLevelDataStore is the production LevelDataStore, backed by the
// level_data collection with a composite unique index on
// (key_id, expanded_id, level_id), plus a secondary on key_id for fan-out.
type MongoLevelDataStore struct {
	coll Collection
}

// NewMongoLevelDataStore wraps coll (normally a *mongo.Collection for the
// "level_data" collection) as a LevelDataStore.
func NewMongoLevelDataStore(coll Collection) *MongoLevelDataStore {
	return &MongoLevelDataStore{coll: coll}
}

// EnsureIndexes creates the indexes the lookup and admin paths rely on.
// Safe to call repeatedly; CreateOne is idempotent for identical specs.
func (s *MongoLevelDataStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key_id", Value: 1}, {Key: "expanded_id", Value: 1}, {Key: "level_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return wrapBackendErr("create composite index", err)
	}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "key_id", Value: 1}},
	})
	if err != nil {
		return wrapBackendErr("create key_id index", err)
	}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return wrapBackendErr("create id index", err)
}

func (s *MongoLevelDataStore) Create(ctx context.Context, ld LevelData) (LevelData, error) {
	if ld.ID == "" {
		ld.ID = uuid.NewString()
	}
	if ld.CreatedAt.IsZero() {
		ld.CreatedAt = time.Now()
	}
	doc := toDoc(ld)
	_, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return LevelData{}, herrors.Newf(herrors.Duplicate,
			"level data (%s,%s,%s) already exists", ld.LevelID, ld.ExpandedID, ld.KeyID)
	}
	if err != nil {
		return LevelData{}, wrapBackendErr("insert level data", err)
	}
	return ld, nil
}

func compositeFilter(levelID, expandedID, keyID string) bson.M {
	return bson.M{"level_id": levelID, "expanded_id": expandedID, "key_id": keyID}
}

func (s *MongoLevelDataStore) Get(ctx context.Context, levelID, expandedID, keyID string) (LevelData, error) {
	var doc levelDataDoc
	err := s.coll.FindOne(ctx, compositeFilter(levelID, expandedID, keyID)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return LevelData{}, herrors.Newf(herrors.NotFound, "level data (%s,%s,%s) not found", levelID, expandedID, keyID)
	}
	if err != nil {
		return LevelData{}, wrapBackendErr("get level data", err)
	}
	return fromDoc(doc), nil
}

func (s *MongoLevelDataStore) Update(ctx context.Context, levelID, expandedID, keyID string, data any) (LevelData, error) {
	var doc levelDataDoc
	err := s.coll.FindOneAndUpdate(
		ctx,
		compositeFilter(levelID, expandedID, keyID),
		bson.M{"$set": bson.M{"data": data}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return LevelData{}, herrors.Newf(herrors.NotFound, "level data (%s,%s,%s) not found", levelID, expandedID, keyID)
	}
	if err != nil {
		return LevelData{}, wrapBackendErr("update level data", err)
	}
	return fromDoc(doc), nil
}

func (s *MongoLevelDataStore) Delete(ctx context.Context, levelID, expandedID, keyID string) error {
	res, err := s.coll.DeleteOne(ctx, compositeFilter(levelID, expandedID, keyID))
	if err != nil {
		return wrapBackendErr("delete level data", err)
	}
	if res.DeletedCount == 0 {
		return herrors.Newf(herrors.NotFound, "level data (%s,%s,%s) not found", levelID, expandedID, keyID)
	}
	return nil
}

func (s *MongoLevelDataStore) SearchByKey(ctx context.Context, keyID string, expandedIDs []string) ([]LevelData, error) {
	filter := bson.M{"key_id": keyID, "expanded_id": bson.M{"$in": expandedIDs}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "priority", Value: 1}}))
	if err != nil {
		return nil, wrapBackendErr("search level data", err)
	}
	defer cur.Close(ctx)

	var out []LevelData
	for cur.Next(ctx) {
		var doc levelDataDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, wrapBackendErr("decode level data", err)
		}
		out = append(out, fromDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, wrapBackendErr("iterate level data", err)
	}
	return out, nil
}

func (s *MongoLevelDataStore) AllForKey(ctx context.Context, keyID string) ([]LevelData, error) {
	cur, err := s.coll.Find(ctx, bson.M{"key_id": keyID}, options.Find().SetSort(bson.D{{Key: "priority", Value: 1}}))
	if err != nil {
		return nil, wrapBackendErr("list level data for key", err)
	}
	defer cur.Close(ctx)

	var out []LevelData
	for cur.Next(ctx) {
		var doc levelDataDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, wrapBackendErr("decode level data", err)
		}
		out = append(out, fromDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, wrapBackendErr("iterate level data", err)
	}
	return out, nil
}

func (s *MongoLevelDataStore) UpdatePriorityByLevel(ctx context.Context, levelID string, priority int) error {
	_, err := s.coll.UpdateMany(ctx, bson.M{"level_id": levelID}, bson.M{"$set": bson.M{"priority": priority}})
	return wrapBackendErr("update priority by level", err)
}

func (s *MongoLevelDataStore) DeleteAllForLevel(ctx context.Context, levelID string) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"level_id": levelID})
	return wrapBackendErr("delete all for level", err)
}

func (s *MongoLevelDataStore) DeleteAllForKey(ctx context.Context, keyID string) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"key_id": keyID})
	return wrapBackendErr("delete all for key", err)
}

var _ LevelDataStore = (*MongoLevelDataStore)(nil)
