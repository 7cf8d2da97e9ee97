package sync

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/store"
)

type keyDoc struct {
	ID          string    `bson:"id"`
	KeyModelID  string    `bson:"key_model_id"`
	Description string    `bson:"description"`
	Deprecated  bool      `bson:"deprecated"`
	CreatedAt   time.Time `bson:"created_at"`
}

// KeyProjector projects the keys collection into a *model.KeyRegistry,
// keeping the bound KeyModel's reference count in sync so dynamic models
// still in use can't be deleted out from under a live Key.
type KeyProjector struct {
	Keys      *model.KeyRegistry
	KeyModels *model.Registry
}

func (p *KeyProjector) LoadInitial(ctx context.Context, coll store.Collection) error {
	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc keyDoc
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		p.apply(doc)
	}
	return cur.Err()
}

func (p *KeyProjector) Apply(_ context.Context, event Event) error {
	switch event.Op {
	case OpInsert, OpUpdate, OpReplace:
		if event.FullDocument == nil {
			return nil
		}
		var doc keyDoc
		if err := bson.Unmarshal(event.FullDocument, &doc); err != nil {
			return err
		}
		p.apply(doc)
	case OpDelete:
		if id, ok := event.DocumentID.(string); ok {
			if existing, err := p.Keys.Get(id); err == nil {
				p.KeyModels.DecRef(existing.KeyModelID)
			}
			p.Keys.Delete(id)
		}
	}
	return nil
}

func (p *KeyProjector) apply(doc keyDoc) {
	if existing, err := p.Keys.Get(doc.ID); err == nil && existing.KeyModelID != doc.KeyModelID {
		p.KeyModels.DecRef(existing.KeyModelID)
		p.KeyModels.IncRef(doc.KeyModelID)
	} else if err != nil {
		p.KeyModels.IncRef(doc.KeyModelID)
	}
	p.Keys.Set(&model.Key{
		ID:          doc.ID,
		KeyModelID:  doc.KeyModelID,
		Description: doc.Description,
		Deprecated:  doc.Deprecated,
		CreatedAt:   doc.CreatedAt,
	})
}

var _ Projector = (*KeyProjector)(nil)
