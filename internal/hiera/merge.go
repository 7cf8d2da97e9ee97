package hiera

import (
	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/store"
)

// mergeRows validates every contributing row individually, then folds them
// pairwise in reverse priority order (lowest precedence first, highest
// last), applying the map/set/list/scalar rule at every step rather than
// bailing out on the first non-object value. The final merged value is
// also validated against km.
func mergeRows(km *model.KeyModel, rows []store.LevelData) (any, error) {
	validated := make([]any, len(rows))
	for i, row := range rows {
		v, err := validateRow(km, row)
		if err != nil {
			return nil, err
		}
		validated[i] = v
	}

	result := validated[len(validated)-1]
	for i := len(validated) - 2; i >= 0; i-- {
		result = mergeValues(result, validated[i])
	}

	final, verr := km.Validate(result)
	if verr != nil {
		return nil, verr
	}
	return final, nil
}

// mergeValues folds lower into higher, applying:
//   - map ↔ map: recursive key-wise merge
//   - set ↔ set: union
//   - list ↔ list: concatenation (lower first, higher appended)
//   - scalar or type mismatch: higher replaces lower outright
func mergeValues(lower, higher any) any {
	switch h := higher.(type) {
	case map[string]any:
		if l, ok := lower.(map[string]any); ok {
			return mergeMaps(l, h)
		}
		return h
	case []any:
		if l, ok := lower.([]any); ok {
			return append(append([]any{}, l...), h...)
		}
		return h
	case model.Set:
		if l, ok := lower.(model.Set); ok {
			return model.Union(l, h)
		}
		return h
	default:
		return h
	}
}

// mergeMaps merges higher into lower key by key, recursing through
// mergeValues on any key present in both so a nested map/set/list still
// gets its own pairwise rule instead of a flat overwrite.
func mergeMaps(lower, higher map[string]any) map[string]any {
	result := make(map[string]any, len(lower)+len(higher))
	for k, v := range lower {
		result[k] = v
	}
	for k, hv := range higher {
		if lv, present := result[k]; present {
			result[k] = mergeValues(lv, hv)
			continue
		}
		result[k] = hv
	}
	return result
}
