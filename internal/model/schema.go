// Package model implements the Schema Model Factory (compiling JSON-Schema
// fragments into runtime validators) and the Key Model Registry (the
// namespaced catalogue of those validators, static and dynamic).
package model

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/Polqt/hieraengine/internal/herrors"
)

// Validator accepts a raw decoded JSON value and returns either a
// normalised value or a validation error. Validators are compiled once,
// at registration time, into a tree of closures. Evaluation never
// re-interprets the schema.
type Validator func(value any) (any, *herrors.Error)

// CompileSchema decodes a raw JSON-Schema fragment and compiles it into a
// Validator tree. raw is typically the "schema" field of a dynamic
// KeyModel, as stored by the admin surface.
func CompileSchema(raw json.RawMessage) (Validator, error) {
	var s jsonschema.Schema
	if len(raw) == 0 {
		return acceptAny, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode schema fragment: %w", err)
	}
	return compileNode(&s, "$")
}

func compileNode(s *jsonschema.Schema, path string) (Validator, error) {
	if s == nil {
		return acceptAny, nil
	}

	switch s.Type {
	case "object":
		return compileObject(s, path)
	case "array":
		return compileArray(s, path)
	case "string":
		return compileString(s, path)
	case "integer":
		return compileInteger(path), nil
	case "number":
		return compileNumber(path), nil
	case "boolean":
		return compileBoolean(path), nil
	default:
		if len(s.Enum) > 0 {
			return compileEnum(s.Enum, path), nil
		}
		// Unknown or missing type: open schema, accept any value.
		return acceptAny, nil
	}
}

func acceptAny(value any) (any, *herrors.Error) {
	return value, nil
}

func compileEnum(enum []any, path string) Validator {
	allowed := make([]any, len(enum))
	copy(allowed, enum)
	return func(value any) (any, *herrors.Error) {
		for _, candidate := range allowed {
			if candidate == value {
				return value, nil
			}
		}
		return nil, herrors.WithPath(herrors.InvalidInput, path,
			fmt.Sprintf("value %v is not one of the allowed enum values", value))
	}
}

func compileObject(s *jsonschema.Schema, path string) (Validator, error) {
	type field struct {
		name      string
		validator Validator
		required  bool
	}
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}

	fields := make([]field, 0, len(s.Properties))
	for name, propSchema := range s.Properties {
		v, err := compileNode(propSchema, path+"."+name)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		fields = append(fields, field{name: name, validator: v, required: required[name]})
	}

	// AdditionalProperties == &Schema{Not: ...} (false-schema) forbids
	// extra fields; nil or a true-schema allows them through unvalidated.
	disallowAdditional := s.AdditionalProperties != nil && isFalseSchema(s.AdditionalProperties)

	return func(value any) (any, *herrors.Error) {
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, herrors.WithPath(herrors.InvalidInput, path, "expected an object")
		}
		out := make(map[string]any, len(obj))
		seen := make(map[string]bool, len(fields))
		for _, f := range fields {
			seen[f.name] = true
			raw, present := obj[f.name]
			if !present {
				if f.required {
					return nil, herrors.WithPath(herrors.InvalidInput, path+"."+f.name, "required field missing")
				}
				continue
			}
			normalised, verr := f.validator(raw)
			if verr != nil {
				return nil, verr
			}
			out[f.name] = normalised
		}
		if disallowAdditional {
			for k := range obj {
				if !seen[k] {
					return nil, herrors.WithPath(herrors.InvalidInput, path+"."+k, "additional property not allowed")
				}
			}
		} else {
			for k, v := range obj {
				if !seen[k] {
					out[k] = v
				}
			}
		}
		return out, nil
	}, nil
}

func isFalseSchema(s *jsonschema.Schema) bool {
	return s.Not != nil
}

func compileArray(s *jsonschema.Schema, path string) (Validator, error) {
	itemValidator, err := compileNode(s.Items, path+"[]")
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	uniqueItems := s.UniqueItems

	return func(value any) (any, *herrors.Error) {
		// A Set is the already-normalised form of a uniqueItems array:
		// lookups re-validate stored data on every read, so this validator
		// must accept its own prior output, not just a raw decoded array.
		if set, ok := value.(Set); ok {
			if !uniqueItems {
				return nil, herrors.WithPath(herrors.InvalidInput, path, "expected an array")
			}
			return set, nil
		}
		arr, ok := value.([]any)
		if !ok {
			return nil, herrors.WithPath(herrors.InvalidInput, path, "expected an array")
		}
		normalised := make([]any, 0, len(arr))
		for i, item := range arr {
			v, verr := itemValidator(item)
			if verr != nil {
				return nil, herrors.WithPath(herrors.InvalidInput, fmt.Sprintf("%s[%d]", path, i), verr.Msg)
			}
			normalised = append(normalised, v)
		}
		if uniqueItems {
			return NewSet(normalised), nil
		}
		return normalised, nil
	}, nil
}

func compileString(s *jsonschema.Schema, path string) (Validator, error) {
	if len(s.Enum) > 0 {
		return compileEnum(s.Enum, path), nil
	}
	if s.Pattern == "" {
		return func(value any) (any, *herrors.Error) {
			str, ok := value.(string)
			if !ok {
				return nil, herrors.WithPath(herrors.InvalidInput, path, "expected a string")
			}
			return str, nil
		}, nil
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", s.Pattern, err)
	}
	return func(value any) (any, *herrors.Error) {
		str, ok := value.(string)
		if !ok {
			return nil, herrors.WithPath(herrors.InvalidInput, path, "expected a string")
		}
		if !re.MatchString(str) {
			return nil, herrors.WithPath(herrors.InvalidInput, path,
				fmt.Sprintf("value %q does not match pattern %q", str, s.Pattern))
		}
		return str, nil
	}, nil
}

func compileInteger(path string) Validator {
	return func(value any) (any, *herrors.Error) {
		switch n := value.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			if n != float64(int64(n)) {
				return nil, herrors.WithPath(herrors.InvalidInput, path, "expected an integer")
			}
			return int64(n), nil
		default:
			return nil, herrors.WithPath(herrors.InvalidInput, path, "expected an integer")
		}
	}
}

func compileNumber(path string) Validator {
	return func(value any) (any, *herrors.Error) {
		switch n := value.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case int:
			return float64(n), nil
		default:
			return nil, herrors.WithPath(herrors.InvalidInput, path, "expected a number")
		}
	}
}

func compileBoolean(path string) Validator {
	return func(value any) (any, *herrors.Error) {
		b, ok := value.(bool)
		if !ok {
			return nil, herrors.WithPath(herrors.InvalidInput, path, "expected a boolean")
		}
		return b, nil
	}
}

// Static validators for the built-in primitive key models. These are not
// compiled from a schema fragment; they exist for process lifetime.
var (
	ValidateSimpleString Validator = compileStaticString
	ValidateSimpleInt    Validator = compileInteger("$")
	ValidateSimpleFloat  Validator = compileNumber("$")
	ValidateSimpleBool   Validator = compileBoolean("$")
)

func compileStaticString(value any) (any, *herrors.Error) {
	str, ok := value.(string)
	if !ok {
		return nil, herrors.WithPath(herrors.InvalidInput, "$", "expected a string")
	}
	return str, nil
}
