package sync

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Polqt/hieraengine/internal/nodegroup"
	"github.com/Polqt/hieraengine/internal/store"
)

type filterPartDoc struct {
	Fact   string   `bson:"fact"`
	Values []string `bson:"values"`
}

type filterRuleDoc struct {
	Part []filterPartDoc `bson:"part"`
}

type nodeGroupDoc struct {
	ID      string          `bson:"id"`
	Filters []filterRuleDoc `bson:"filters"`
}

func (d nodeGroupDoc) toGroup() nodegroup.Group {
	g := nodegroup.Group{ID: d.ID}
	for _, rule := range d.Filters {
		r := nodegroup.FilterRule{}
		for _, part := range rule.Part {
			r.Parts = append(r.Parts, nodegroup.FilterPart{FactPath: part.Fact, Values: part.Values})
		}
		g.Filters = append(g.Filters, r)
	}
	return g
}

// NodeGroupProjector projects the node_groups collection's filter rules
// into a *nodegroup.Cache, the input MatchingGroups/Reevaluate consult
// whenever a node's facts change.
type NodeGroupProjector struct {
	Cache *nodegroup.Cache
}

func (p *NodeGroupProjector) LoadInitial(ctx context.Context, coll store.Collection) error {
	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc nodeGroupDoc
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		p.Cache.Set(doc.toGroup())
	}
	return cur.Err()
}

func (p *NodeGroupProjector) Apply(_ context.Context, event Event) error {
	switch event.Op {
	case OpInsert, OpUpdate, OpReplace:
		if event.FullDocument == nil {
			return nil
		}
		var doc nodeGroupDoc
		if err := bson.Unmarshal(event.FullDocument, &doc); err != nil {
			return err
		}
		p.Cache.Set(doc.toGroup())
	case OpDelete:
		if id, ok := event.DocumentID.(string); ok {
			p.Cache.Delete(id)
		}
	}
	return nil
}

var _ Projector = (*NodeGroupProjector)(nil)
