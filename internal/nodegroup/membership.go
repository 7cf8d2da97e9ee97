package nodegroup

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/store"
)

// Membership recomputes node-group membership for a single node whenever
// its facts change, via a two-write bulk operation: pull the node out of
// every group it no longer matches, and add it to every group it now does.
type Membership struct {
	coll store.Collection
}

// NewMembership wraps coll (the "node_groups" collection) for bulk
// membership writes.
func NewMembership(coll store.Collection) *Membership {
	return &Membership{coll: coll}
}

// Reevaluate matches nodeFacts against every group in groups, then issues
// a single BulkWrite pulling nodeID from every non-matching group and
// adding it to every matching one. Returns the ids of groups the node now
// belongs to.
func (m *Membership) Reevaluate(ctx context.Context, nodeID string, groups []Group, nodeFacts map[string]any) ([]string, error) {
	matched := MatchingGroups(groups, nodeFacts)

	models := []mongo.WriteModel{
		mongo.NewUpdateManyModel().
			SetFilter(bson.M{"id": bson.M{"$nin": matched}}).
			SetUpdate(bson.M{"$pull": bson.M{"nodes": nodeID}}),
	}
	if len(matched) > 0 {
		models = append(models, mongo.NewUpdateManyModel().
			SetFilter(bson.M{"id": bson.M{"$in": matched}}).
			SetUpdate(bson.M{"$addToSet": bson.M{"nodes": nodeID}}))
	}

	if _, err := m.coll.BulkWrite(ctx, models); err != nil {
		return nil, herrors.Newf(herrors.BackendUnavailable, "reevaluate node membership: %v", err)
	}
	return matched, nil
}
