package sync

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/store"
)

type keyModelDoc struct {
	ID          string          `bson:"id"`
	Description string          `bson:"description"`
	Schema      json.RawMessage `bson:"schema"`
	CreatedAt   time.Time       `bson:"created_at"`
}

// KeyModelProjector projects the key_models collection into a
// *model.Registry's dynamic model set. Static models are seeded by
// model.NewRegistry and never touched here.
type KeyModelProjector struct {
	Registry *model.Registry
}

func (p *KeyModelProjector) LoadInitial(ctx context.Context, coll store.Collection) error {
	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc keyModelDoc
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		p.apply(doc)
	}
	return cur.Err()
}

func (p *KeyModelProjector) Apply(_ context.Context, event Event) error {
	switch event.Op {
	case OpInsert, OpUpdate, OpReplace:
		if event.FullDocument == nil {
			return nil
		}
		var doc keyModelDoc
		if err := bson.Unmarshal(event.FullDocument, &doc); err != nil {
			return err
		}
		p.apply(doc)
	case OpDelete:
		if id, ok := event.DocumentID.(string); ok {
			_ = p.Registry.Remove(id)
		}
	}
	return nil
}

func (p *KeyModelProjector) apply(doc keyModelDoc) {
	if _, err := p.Registry.Get(doc.ID); err == nil {
		_, _ = p.Registry.Replace(doc.ID, doc.Description, doc.Schema)
		return
	}
	_, _ = p.Registry.Add(doc.ID, doc.Description, doc.Schema)
}

var _ Projector = (*KeyModelProjector)(nil)
