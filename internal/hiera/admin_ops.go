package hiera

import (
	"context"
	"time"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/level"
	"github.com/Polqt/hieraengine/internal/model"
)

// CreateLevel registers a new Level in the level registry. It checks
// neither id nor priority uniqueness. internal/admin inserts the level
// document, whose _id is the level id, before calling it, so a duplicate
// id is rejected there as herrors.Duplicate. No index on the levels
// collection's priority is created by this module, so a duplicate
// priority is not rejected.
func (e *Engine) CreateLevel(levelID string, priority int) level.Level {
	l := level.Level{ID: levelID, Priority: priority, CreatedAt: time.Now()}
	e.levels.Set(l)
	return l
}

// UpdateLevelPriority changes a Level's priority, rewrites every
// LevelData row's denormalised priority, and clears the lookup cache.
func (e *Engine) UpdateLevelPriority(ctx context.Context, levelID string, newPriority int) (level.Level, error) {
	existing, err := e.levels.Get(levelID)
	if err != nil {
		return level.Level{}, err
	}
	existing.Priority = newPriority
	e.levels.Set(existing)
	if err := e.ApplyLevelPriorityChange(ctx, levelID, newPriority); err != nil {
		return level.Level{}, err
	}
	return existing, nil
}

// DeleteLevel removes a Level, all of its LevelData rows, and clears the
// lookup cache.
func (e *Engine) DeleteLevel(ctx context.Context, levelID string) error {
	if _, err := e.levels.Get(levelID); err != nil {
		return err
	}
	if err := e.ApplyLevelDeletion(ctx, levelID); err != nil {
		return err
	}
	e.levels.Delete(levelID)
	return nil
}

// CreateKey binds a new Key to an existing KeyModel, incrementing the
// model's reference count if it is dynamic.
func (e *Engine) CreateKey(keyID, keyModelID, description string) (*model.Key, error) {
	if !e.keyModels.Has(keyModelID) {
		return nil, herrors.Newf(herrors.NotFound, "key model %q not found", keyModelID)
	}
	if _, err := e.keys.Get(keyID); err == nil {
		return nil, herrors.Newf(herrors.Duplicate, "key %q already exists", keyID)
	}
	k := &model.Key{ID: keyID, KeyModelID: keyModelID, Description: description, CreatedAt: time.Now()}
	e.keys.Set(k)
	e.keyModels.IncRef(keyModelID)
	return k, nil
}

// UpdateKeyModel rebinds an existing Key to a new KeyModel, revalidating
// every existing LevelData row for that key against the new model first.
// The change is rejected atomically (the key retains its old model) if any
// row fails.
func (e *Engine) UpdateKeyModel(ctx context.Context, keyID, newKeyModelID string) (*model.Key, error) {
	existing, err := e.keys.Get(keyID)
	if err != nil {
		return nil, err
	}
	newModel, err := e.keyModels.Get(newKeyModelID)
	if err != nil {
		return nil, herrors.Newf(herrors.NotFound, "key model %q not found", newKeyModelID)
	}
	if err := e.RevalidateKeyModelChange(ctx, keyID, newModel); err != nil {
		return nil, err
	}

	oldModelID := existing.KeyModelID
	updated := &model.Key{
		ID:          existing.ID,
		KeyModelID:  newKeyModelID,
		Description: existing.Description,
		Deprecated:  existing.Deprecated,
		CreatedAt:   existing.CreatedAt,
	}
	e.keys.Set(updated)
	e.keyModels.IncRef(newKeyModelID)
	e.keyModels.DecRef(oldModelID)
	if err := e.cache.Invalidate(ctx, keyID, nil); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteKey removes a Key and releases its KeyModel reference.
func (e *Engine) DeleteKey(ctx context.Context, keyID string) error {
	existing, err := e.keys.Get(keyID)
	if err != nil {
		return err
	}
	if err := e.data.DeleteAllForKey(ctx, keyID); err != nil {
		return err
	}
	if err := e.cache.Invalidate(ctx, keyID, nil); err != nil {
		return err
	}
	e.keys.Delete(keyID)
	e.keyModels.DecRef(existing.KeyModelID)
	return nil
}
