package level

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/Polqt/hieraengine/internal/herrors"
)

// Level is a named, priority-ordered lookup scope, optionally parameterised
// by facts via "{placeholder}" tokens in its ID.
type Level struct {
	ID        string
	Priority  int
	CreatedAt time.Time
}

// Registry is the in-memory, eventually-consistent projection of the
// store's levels collection, maintained by the levels change-stream
// synchroniser (internal/sync) and written directly by the engine's level
// operations for the local process's own writes. Readers take a lock-free
// snapshot via OrderedLevels so a lookup observes one consistent ordering
// for its whole duration.
type Registry struct {
	snapshot atomic.Pointer[[]Level]
	byID     atomic.Pointer[map[string]Level]
}

// NewRegistry returns an empty Level Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := []Level{}
	emptyIndex := map[string]Level{}
	r.snapshot.Store(&empty)
	r.byID.Store(&emptyIndex)
	return r
}

// OrderedLevels returns an immutable snapshot of level ids sorted
// ascending by priority (lowest number = highest precedence first).
func (r *Registry) OrderedLevels() []string {
	levels := *r.snapshot.Load()
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = l.ID
	}
	return out
}

// Get returns the current Level for id, or ErrNotFound.
func (r *Registry) Get(id string) (Level, error) {
	index := *r.byID.Load()
	l, ok := index[id]
	if !ok {
		return Level{}, herrors.Newf(herrors.NotFound, "level %q not found", id)
	}
	return l, nil
}

// Set inserts or replaces a Level by id, called by the levels
// synchroniser on insert/update/replace events. It enforces neither
// uniqueness of id (the store's unique index already guarantees that at
// write time) nor of priority. When two levels share a priority, their
// relative order in the rebuilt snapshot is not defined; the store
// remains the authority on which row actually won the write.
func (r *Registry) Set(l Level) {
	for {
		oldIndexPtr := r.byID.Load()
		newIndex := make(map[string]Level, len(*oldIndexPtr)+1)
		for k, v := range *oldIndexPtr {
			newIndex[k] = v
		}
		newIndex[l.ID] = l
		if r.byID.CompareAndSwap(oldIndexPtr, &newIndex) {
			r.rebuildSnapshot(newIndex)
			return
		}
	}
}

// Delete removes a Level by id, called on a delete event.
func (r *Registry) Delete(id string) {
	for {
		oldIndexPtr := r.byID.Load()
		if _, ok := (*oldIndexPtr)[id]; !ok {
			return
		}
		newIndex := make(map[string]Level, len(*oldIndexPtr))
		for k, v := range *oldIndexPtr {
			if k != id {
				newIndex[k] = v
			}
		}
		if r.byID.CompareAndSwap(oldIndexPtr, &newIndex) {
			r.rebuildSnapshot(newIndex)
			return
		}
	}
}

func (r *Registry) rebuildSnapshot(index map[string]Level) {
	levels := make([]Level, 0, len(index))
	for _, l := range index {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Priority < levels[j].Priority })
	r.snapshot.Store(&levels)
}

// All returns a snapshot of every known Level in no particular order
// (the underlying map iteration is randomised). Callers that need
// priority order should use OrderedLevels.
func (r *Registry) All() []Level {
	index := *r.byID.Load()
	out := make([]Level, 0, len(index))
	for _, l := range index {
		out = append(out, l)
	}
	return out
}
