package hiera

import (
	"context"
	"time"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/level"
	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/store"
)

// CreateLevelData validates data against the key's model, derives
// expanded_id as expand(level_id, facts), normalises facts to the level's
// placeholders, assigns priority from the level, inserts, and invalidates
// the cache for (key_id, facts). It takes no caller-supplied expanded_id,
// so there is no separate value to compare the expansion against.
func (e *Engine) CreateLevelData(ctx context.Context, levelID, keyID string, facts map[string]string, data any) (store.LevelData, error) {
	_, km, err := e.resolveKey(keyID)
	if err != nil {
		return store.LevelData{}, err
	}
	lvl, err := e.levels.Get(levelID)
	if err != nil {
		return store.LevelData{}, herrors.Newf(herrors.NotFound, "level %q not found", levelID)
	}

	expanded, err := level.Expand(levelID, facts)
	if err != nil {
		return store.LevelData{}, err
	}
	normalized := level.Normalize(levelID, facts)

	validated, verr := km.Validate(data)
	if verr != nil {
		return store.LevelData{}, verr
	}

	row := store.LevelData{
		LevelID:    levelID,
		ExpandedID: expanded,
		KeyID:      keyID,
		Facts:      normalized,
		Data:       validated,
		Priority:   lvl.Priority,
		CreatedAt:  time.Now(),
	}
	stored, err := e.data.Create(ctx, row)
	if err != nil {
		return store.LevelData{}, err
	}
	if err := e.cache.Invalidate(ctx, keyID, normalized); err != nil {
		return store.LevelData{}, err
	}
	return stored, nil
}

// UpdateLevelData re-validates the new data against the key's model,
// writes it, and invalidates the cache for the row's stored facts.
func (e *Engine) UpdateLevelData(ctx context.Context, levelID, expandedID, keyID string, data any) (store.LevelData, error) {
	_, km, err := e.resolveKey(keyID)
	if err != nil {
		return store.LevelData{}, err
	}
	validated, verr := km.Validate(data)
	if verr != nil {
		return store.LevelData{}, verr
	}
	row, err := e.data.Update(ctx, levelID, expandedID, keyID, validated)
	if err != nil {
		return store.LevelData{}, err
	}
	if err := e.cache.Invalidate(ctx, keyID, row.Facts); err != nil {
		return store.LevelData{}, err
	}
	return row, nil
}

// DeleteLevelData removes a row and invalidates the cache for its facts.
func (e *Engine) DeleteLevelData(ctx context.Context, levelID, expandedID, keyID string) error {
	row, err := e.data.Get(ctx, levelID, expandedID, keyID)
	if err != nil {
		return err
	}
	if err := e.data.Delete(ctx, levelID, expandedID, keyID); err != nil {
		return err
	}
	return e.cache.Invalidate(ctx, keyID, row.Facts)
}

// ApplyLevelPriorityChange rewrites Priority on every LevelData row for
// levelID and clears the entire lookup cache, since a priority change can
// reorder which row wins for every key that has data in this level.
// Computing a precise invalidation set isn't worth it.
func (e *Engine) ApplyLevelPriorityChange(ctx context.Context, levelID string, newPriority int) error {
	if err := e.data.UpdatePriorityByLevel(ctx, levelID, newPriority); err != nil {
		return err
	}
	return e.cache.ClearAll(ctx)
}

// ApplyLevelDeletion removes every LevelData row for levelID and clears the
// cache.
func (e *Engine) ApplyLevelDeletion(ctx context.Context, levelID string) error {
	if err := e.data.DeleteAllForLevel(ctx, levelID); err != nil {
		return err
	}
	return e.cache.ClearAll(ctx)
}

// RevalidateKeyModelChange checks every existing LevelData row for keyID
// against newModel before the caller commits the Key's key_model_id
// change. It returns InvalidInput atomically (no partial commit) if any
// row fails.
func (e *Engine) RevalidateKeyModelChange(ctx context.Context, keyID string, newModel *model.KeyModel) error {
	rows, err := e.data.AllForKey(ctx, keyID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, verr := newModel.Validate(row.Data); verr != nil {
			return herrors.Newf(herrors.InvalidInput,
				"existing level data for key %q at level %q fails validation under new model: %v",
				keyID, row.LevelID, verr)
		}
	}
	return nil
}
