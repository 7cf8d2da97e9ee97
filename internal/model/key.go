package model

import (
	"sync"
	"time"

	"github.com/Polqt/hieraengine/internal/herrors"
)

// Key is a user-facing configuration name bound to a KeyModel.
type Key struct {
	ID          string
	KeyModelID  string
	Description string
	Deprecated  bool
	CreatedAt   time.Time
}

// KeyRegistry is the in-process projection of the keys collection,
// maintained by the keys change-stream synchroniser (internal/sync). It
// holds no validation logic itself. key_model_id resolution happens
// against a *Registry supplied by the caller, keeping the two catalogues
// independently testable.
type KeyRegistry struct {
	mu   sync.RWMutex
	keys map[string]*Key
}

// NewKeyRegistry returns an empty KeyRegistry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{keys: make(map[string]*Key)}
}

// Set inserts or replaces a Key by id, called on an insert/update/replace
// change-stream event.
func (r *KeyRegistry) Set(k *Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[k.ID] = k
}

// Delete removes a Key by id, called on a delete event.
func (r *KeyRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, id)
}

// Get returns a Key by id, or ErrNotFound.
func (r *KeyRegistry) Get(id string) (*Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[id]
	if !ok {
		return nil, herrors.Newf(herrors.NotFound, "key %q not found", id)
	}
	return k, nil
}

// List returns a snapshot of every known Key, optionally filtered.
func (r *KeyRegistry) List(filter func(*Key) bool) []*Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Key, 0, len(r.keys))
	for _, k := range r.keys {
		if filter == nil || filter(k) {
			out = append(out, k)
		}
	}
	return out
}
