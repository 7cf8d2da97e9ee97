package nodegroup

import "sync/atomic"

// Cache is the in-process, eventually-consistent projection of the
// node_groups collection, maintained by the node-group-filters
// change-stream synchroniser (internal/sync). It uses the same lock-free
// snapshot pattern as internal/level.Registry rather than a mutex-guarded
// map.
type Cache struct {
	snapshot atomic.Pointer[map[string]Group]
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	c := &Cache{}
	empty := map[string]Group{}
	c.snapshot.Store(&empty)
	return c
}

// Set inserts or replaces a Group by id.
func (c *Cache) Set(g Group) {
	for {
		oldPtr := c.snapshot.Load()
		next := make(map[string]Group, len(*oldPtr)+1)
		for k, v := range *oldPtr {
			next[k] = v
		}
		next[g.ID] = g
		if c.snapshot.CompareAndSwap(oldPtr, &next) {
			return
		}
	}
}

// Delete removes a Group by id.
func (c *Cache) Delete(id string) {
	for {
		oldPtr := c.snapshot.Load()
		if _, ok := (*oldPtr)[id]; !ok {
			return
		}
		next := make(map[string]Group, len(*oldPtr))
		for k, v := range *oldPtr {
			if k != id {
				next[k] = v
			}
		}
		if c.snapshot.CompareAndSwap(oldPtr, &next) {
			return
		}
	}
}

// All returns a snapshot of every known Group.
func (c *Cache) All() []Group {
	index := *c.snapshot.Load()
	out := make([]Group, 0, len(index))
	for _, g := range index {
		out = append(out, g)
	}
	return out
}
