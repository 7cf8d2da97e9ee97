package sync

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Polqt/hieraengine/internal/level"
	"github.com/Polqt/hieraengine/internal/store"
)

type levelDoc struct {
	ID        string    `bson:"id"`
	Priority  int       `bson:"priority"`
	CreatedAt time.Time `bson:"created_at"`
}

// LevelProjector projects the levels collection into a *level.Registry.
type LevelProjector struct {
	Registry *level.Registry
}

func (p *LevelProjector) LoadInitial(ctx context.Context, coll store.Collection) error {
	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc levelDoc
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		p.Registry.Set(level.Level{ID: doc.ID, Priority: doc.Priority, CreatedAt: doc.CreatedAt})
	}
	return cur.Err()
}

func (p *LevelProjector) Apply(_ context.Context, event Event) error {
	switch event.Op {
	case OpInsert, OpUpdate, OpReplace:
		if event.FullDocument == nil {
			return nil
		}
		var doc levelDoc
		if err := bson.Unmarshal(event.FullDocument, &doc); err != nil {
			return err
		}
		p.Registry.Set(level.Level{ID: doc.ID, Priority: doc.Priority, CreatedAt: doc.CreatedAt})
	case OpDelete:
		if id, ok := event.DocumentID.(string); ok {
			p.Registry.Delete(id)
		}
	}
	return nil
}

var _ Projector = (*LevelProjector)(nil)
