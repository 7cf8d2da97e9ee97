package model

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Polqt/hieraengine/internal/herrors"
)

const (
	// StaticPrefix marks a built-in key model id, e.g. "static:SimpleString".
	StaticPrefix = "static:"
	// DynamicPrefix marks a user-defined key model id, e.g. "dynamic:cfg".
	DynamicPrefix = "dynamic:"
)

// KeyModel is a named validator: either a built-in primitive (static) or a
// user-defined JSON-Schema fragment (dynamic).
type KeyModel struct {
	ID          string
	Description string
	Schema      json.RawMessage // nil for static models
	CreatedAt   time.Time

	validator Validator
}

// Validate runs the compiled validator against value.
func (m *KeyModel) Validate(value any) (any, *herrors.Error) {
	return m.validator(value)
}

// Registry is the namespaced catalogue of KeyModels: static primitives
// registered at construction, dynamic models added/removed by admin
// operations and mirrored from the change stream by internal/sync.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*KeyModel
	// refCount tracks how many Keys reference a dynamic model id, so
	// Remove can refuse deletion of an in-use model (ErrModelInUse).
	refCount map[string]int
}

// NewRegistry builds a Registry pre-seeded with the four static primitive
// models, which can never be removed.
func NewRegistry() *Registry {
	r := &Registry{
		models:   make(map[string]*KeyModel),
		refCount: make(map[string]int),
	}
	r.seedStatic("SimpleString", ValidateSimpleString)
	r.seedStatic("SimpleInt", ValidateSimpleInt)
	r.seedStatic("SimpleFloat", ValidateSimpleFloat)
	r.seedStatic("SimpleBool", ValidateSimpleBool)
	return r
}

func (r *Registry) seedStatic(name string, v Validator) {
	id := StaticPrefix + name
	r.models[id] = &KeyModel{ID: id, Description: "built-in " + name, validator: v, CreatedAt: time.Time{}}
}

// Add registers a dynamic key model. id must carry the "dynamic:" prefix.
func (r *Registry) Add(id, description string, schema json.RawMessage) (*KeyModel, error) {
	if !strings.HasPrefix(id, DynamicPrefix) {
		return nil, herrors.Newf(herrors.InvalidInput, "key model id %q must begin with %q", id, DynamicPrefix)
	}
	validator, err := CompileSchema(schema)
	if err != nil {
		return nil, herrors.Newf(herrors.InvalidInput, "compile schema for %q: %v", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[id]; exists {
		return nil, herrors.Newf(herrors.Duplicate, "key model %q already exists", id)
	}
	m := &KeyModel{ID: id, Description: description, Schema: schema, validator: validator, CreatedAt: time.Now()}
	r.models[id] = m
	return m, nil
}

// Remove deletes a dynamic model. Fails InUse if any Key still references
// it (tracked via IncRef/DecRef, driven by the keys change-stream
// projection) and InvalidInput for static ids.
func (r *Registry) Remove(id string) error {
	if strings.HasPrefix(id, StaticPrefix) {
		return herrors.Newf(herrors.InvalidInput, "static key model %q cannot be removed", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[id]; !ok {
		return herrors.Newf(herrors.NotFound, "key model %q not found", id)
	}
	if r.refCount[id] > 0 {
		return herrors.Newf(herrors.InUse, "key model %q is referenced by %d key(s)", id, r.refCount[id])
	}
	delete(r.models, id)
	delete(r.refCount, id)
	return nil
}

// Get returns a model by id, or ErrNotFound.
func (r *Registry) Get(id string) (*KeyModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[id]
	if !ok {
		return nil, herrors.Newf(herrors.NotFound, "key model %q not found", id)
	}
	return m, nil
}

// Has reports whether id resolves in the registry.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[id]
	return ok
}

// List returns a snapshot of all registered models, optionally filtered by
// a caller-supplied predicate.
func (r *Registry) List(filter func(*KeyModel) bool) []*KeyModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*KeyModel, 0, len(r.models))
	for _, m := range r.models {
		if filter == nil || filter(m) {
			out = append(out, m)
		}
	}
	return out
}

// IncRef records that a Key now references the dynamic model id. Called by
// the keys change-stream synchroniser (internal/sync) whenever a Key
// document is inserted or its key_model_id changes.
func (r *Registry) IncRef(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refCount[id]++
}

// DecRef releases a reference previously recorded with IncRef.
func (r *Registry) DecRef(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refCount[id] > 0 {
		r.refCount[id]--
	}
}

// Replace atomically swaps a dynamic model's schema/description in place
// (used when an admin updates a dynamic KeyModel without changing its id).
func (r *Registry) Replace(id, description string, schema json.RawMessage) (*KeyModel, error) {
	validator, err := CompileSchema(schema)
	if err != nil {
		return nil, herrors.Newf(herrors.InvalidInput, "compile schema for %q: %v", id, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.models[id]
	if !ok {
		return nil, herrors.Newf(herrors.NotFound, "key model %q not found", id)
	}
	m := &KeyModel{ID: id, Description: description, Schema: schema, validator: validator, CreatedAt: existing.CreatedAt}
	r.models[id] = m
	return m, nil
}
