// Package store implements the Level-Data Store Adapter (C5): the
// persistence contract the Hiera Engine depends on, plus two
// implementations, a MongoDB-backed adapter for production and an
// in-memory fake for unit tests so engine and admin logic can be
// exercised without a live database.
package store

import (
	"context"
	"time"

	"github.com/Polqt/hieraengine/internal/herrors"
)

// LevelData is one concrete value: a key's data within a level, for a
// specific fact assignment. Composite identity is (LevelID, ExpandedID,
// KeyID); ID is a generated surrogate for external referencing (audit
// logs, admin UIs) that never participates in lookup or uniqueness logic.
type LevelData struct {
	ID         string
	LevelID    string
	ExpandedID string
	KeyID      string
	Facts      map[string]string
	Data       any
	Priority   int
	CreatedAt  time.Time
}

// LevelDataStore is the persistence contract the Hiera Engine (C7) depends
// on. Every method takes a context so callers can cancel in-flight store
// I/O; cancellation before a write commits rolls back cleanly since the
// engine holds no cross-operation locks.
type LevelDataStore interface {
	// Create inserts a new row. Returns herrors.Duplicate on a composite
	// primary-key collision.
	Create(ctx context.Context, ld LevelData) (LevelData, error)
	Get(ctx context.Context, levelID, expandedID, keyID string) (LevelData, error)
	// Update replaces the Data field of an existing row.
	Update(ctx context.Context, levelID, expandedID, keyID string, data any) (LevelData, error)
	Delete(ctx context.Context, levelID, expandedID, keyID string) error
	// SearchByKey returns every row for keyID whose ExpandedID is in
	// expandedIDs, sorted ascending by Priority: the primary lookup-path
	// query.
	SearchByKey(ctx context.Context, keyID string, expandedIDs []string) ([]LevelData, error)
	// AllForKey returns every row for keyID regardless of expanded id,
	// used by key-model-change revalidation.
	AllForKey(ctx context.Context, keyID string) ([]LevelData, error)
	// UpdatePriorityByLevel bulk-rewrites Priority on every row for
	// levelID, used when a Level's priority changes.
	UpdatePriorityByLevel(ctx context.Context, levelID string, priority int) error
	DeleteAllForLevel(ctx context.Context, levelID string) error
	DeleteAllForKey(ctx context.Context, keyID string) error
}

// wrapBackendErr turns a store-implementation-specific I/O failure into the
// engine's BackendUnavailable kind, so callers never need to know which
// concrete store they're talking to.
func wrapBackendErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return herrors.Newf(herrors.BackendUnavailable, "%s: %v", op, err)
}
