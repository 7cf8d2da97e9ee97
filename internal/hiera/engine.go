// Package hiera implements the Hiera Engine (C7): the component that
// orchestrates the key model registry, level registry, level-data store
// and lookup cache to answer lookups, validate writes, and drive cache
// invalidation. No package-level state is kept; every collaborator is
// passed in explicitly so a process can host more than one independent
// Engine, avoiding a global singleton the same way a schema registry
// avoids one for its own Registry handle.
package hiera

import (
	"github.com/Polqt/hieraengine/internal/cache"
	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/level"
	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/store"
)

// Engine answers lookups and coordinates writes across C2, C4, C5 and C6.
type Engine struct {
	keyModels *model.Registry
	keys      *model.KeyRegistry
	levels    *level.Registry
	data      store.LevelDataStore
	cache     cache.Cache
	stats     *Stats
}

// New builds an Engine from its collaborators. None of the arguments may
// be nil.
func New(keyModels *model.Registry, keys *model.KeyRegistry, levels *level.Registry, data store.LevelDataStore, lookupCache cache.Cache) *Engine {
	return &Engine{
		keyModels: keyModels,
		keys:      keys,
		levels:    levels,
		data:      data,
		cache:     lookupCache,
		stats:     newStats(),
	}
}

// Stats returns the engine's in-process lookup counters (A7).
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.snapshot()
}

// KeyModels returns the engine's Key Model Registry, for callers (the
// admin surface, change-stream synchronisers) that need direct access
// rather than going through an Engine operation.
func (e *Engine) KeyModels() *model.Registry { return e.keyModels }

// Keys returns the engine's Key Registry.
func (e *Engine) Keys() *model.KeyRegistry { return e.keys }

// Levels returns the engine's Level Registry.
func (e *Engine) Levels() *level.Registry { return e.levels }

// Store returns the engine's Level-Data Store.
func (e *Engine) Store() store.LevelDataStore { return e.data }

// Cache returns the engine's Lookup Cache.
func (e *Engine) Cache() cache.Cache { return e.cache }

// resolveKey returns the Key and its bound KeyModel, or a NotFound-style
// error for either lookup.
func (e *Engine) resolveKey(keyID string) (*model.Key, *model.KeyModel, error) {
	k, err := e.keys.Get(keyID)
	if err != nil {
		return nil, nil, err
	}
	km, err := e.keyModels.Get(k.KeyModelID)
	if err != nil {
		return nil, nil, herrors.Newf(herrors.NotFound, "key %q references unknown key model %q", keyID, k.KeyModelID)
	}
	return k, km, nil
}

// expandedCandidates walks the level registry's priority-ordered snapshot
// and returns, for each level that can be expanded against facts, the
// (levelID, expandedID) pair, skipping levels with missing placeholders
// rather than treating them as errors.
func expandedCandidates(levels *level.Registry, facts map[string]string) []levelExpansion {
	ordered := levels.OrderedLevels()
	out := make([]levelExpansion, 0, len(ordered))
	for _, levelID := range ordered {
		if !level.CanExpand(levelID, facts) {
			continue
		}
		expanded, err := level.Expand(levelID, facts)
		if err != nil {
			continue
		}
		out = append(out, levelExpansion{levelID: levelID, expandedID: expanded})
	}
	return out
}

type levelExpansion struct {
	levelID    string
	expandedID string
}

func expandedIDs(candidates []levelExpansion) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.expandedID
	}
	return out
}
