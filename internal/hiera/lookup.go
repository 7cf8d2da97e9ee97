package hiera

import (
	"context"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/store"
)

// Lookup answers a single-value request (merge=false): consult the cache,
// else walk levels in priority order, take the first matching row,
// validate it through the key's model, cache and return.
func (e *Engine) Lookup(ctx context.Context, keyID string, facts map[string]string) (any, error) {
	return e.lookup(ctx, keyID, facts, false)
}

// LookupMerge answers a deep-merge request (merge=true): aggregate every
// matching row across every candidate level, validate each individually,
// then merge in reverse priority order so higher-priority values win
// scalar conflicts.
func (e *Engine) LookupMerge(ctx context.Context, keyID string, facts map[string]string) (any, error) {
	return e.lookup(ctx, keyID, facts, true)
}

func (e *Engine) lookup(ctx context.Context, keyID string, facts map[string]string, merge bool) (any, error) {
	_, km, err := e.resolveKey(keyID)
	if err != nil {
		e.stats.recordError()
		return nil, err
	}

	if cached, err := e.cache.Get(ctx, keyID, facts, merge); err == nil {
		e.stats.recordCacheHit()
		return cached, nil
	} else if herrors.KindOf(err) != herrors.NotFound {
		return nil, err
	}
	e.stats.recordCacheMiss()

	candidates := expandedCandidates(e.levels, facts)
	if len(candidates) == 0 {
		e.stats.recordError()
		return nil, herrors.Newf(herrors.NotFound, "no data found for key %q", keyID)
	}

	rows, err := e.data.SearchByKey(ctx, keyID, expandedIDs(candidates))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		e.stats.recordError()
		return nil, herrors.Newf(herrors.NotFound, "no data found for key %q", keyID)
	}

	var result any
	if merge {
		result, err = mergeRows(km, rows)
	} else {
		result, err = validateRow(km, rows[0])
	}
	if err != nil {
		e.stats.recordError()
		return nil, err
	}

	if err := e.cache.Put(ctx, keyID, facts, merge, result); err != nil {
		return nil, err
	}
	e.stats.recordLookup()
	return result, nil
}

func validateRow(km *model.KeyModel, row store.LevelData) (any, error) {
	value, verr := km.Validate(row.Data)
	if verr != nil {
		return nil, verr
	}
	return value, nil
}
