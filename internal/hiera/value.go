package hiera

import "encoding/json"

// Value is the sum type stored as LevelData.Data and returned by lookups:
// string, int64, float64, bool, nil, map[string]any, []any, or model.Set once
// normalised by a KeyModel's validator. Go's `any` already models this
// union; the alias exists so call sites can document intent without
// importing a marker type.
type Value = any

// DecodeValue parses a JSON request body into a Value, matching the
// decode step every admin write performs before handing data to the
// engine for validation.
func DecodeValue(raw json.RawMessage) (Value, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
