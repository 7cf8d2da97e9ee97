package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/model"
)

func TestCompileSchemaPrimitives(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		schema string
		value  any
		wantOk bool
	}{
		"string accepted": {`{"type":"string"}`, "hello", true},
		"string rejects number": {`{"type":"string"}`, float64(1), false},
		"integer accepts whole float": {`{"type":"integer"}`, float64(3), true},
		"integer rejects fractional float": {`{"type":"integer"}`, float64(3.5), false},
		"boolean accepted": {`{"type":"boolean"}`, true, true},
		"enum accepts member": {`{"enum":["a","b"]}`, "a", true},
		"enum rejects non-member": {`{"enum":["a","b"]}`, "c", false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			validator, err := model.CompileSchema([]byte(tc.schema))
			require.NoError(t, err)

			_, verr := validator(tc.value)
			if tc.wantOk {
				assert.Nil(t, verr)
			} else {
				require.NotNil(t, verr)
				assert.Equal(t, herrors.InvalidInput, verr.Kind)
			}
		})
	}
}

func TestCompileSchemaObjectRequiredFields(t *testing.T) {
	t.Parallel()

	validator, err := model.CompileSchema([]byte(`{
		"type": "object",
		"properties": {"a": {"type": "string"}, "b": {"type": "integer"}},
		"required": ["a"]
	}`))
	require.NoError(t, err)

	_, verr := validator(map[string]any{"a": "x"})
	assert.Nil(t, verr)

	_, verr = validator(map[string]any{"b": float64(1)})
	require.NotNil(t, verr)
	assert.Equal(t, herrors.InvalidInput, verr.Kind)
}

func TestCompileSchemaObjectDisallowsAdditionalProperties(t *testing.T) {
	t.Parallel()

	validator, err := model.CompileSchema([]byte(`{
		"type": "object",
		"properties": {"a": {"type": "string"}},
		"additionalProperties": false
	}`))
	require.NoError(t, err)

	_, verr := validator(map[string]any{"a": "x", "extra": "y"})
	require.NotNil(t, verr)
	assert.Equal(t, herrors.InvalidInput, verr.Kind)
}

func TestCompileSchemaArrayUniqueItemsProducesSet(t *testing.T) {
	t.Parallel()

	validator, err := model.CompileSchema([]byte(`{
		"type": "array",
		"items": {"type": "string"},
		"uniqueItems": true
	}`))
	require.NoError(t, err)

	out, verr := validator([]any{"a", "b", "a"})
	require.Nil(t, verr)

	set, ok := out.(model.Set)
	require.True(t, ok)
	assert.Equal(t, 2, set.Len())
}

func TestCompileSchemaEmptyAcceptsAny(t *testing.T) {
	t.Parallel()

	validator, err := model.CompileSchema(nil)
	require.NoError(t, err)

	_, verr := validator(map[string]any{"whatever": true})
	assert.Nil(t, verr)
	_, verr = validator("a string too")
	assert.Nil(t, verr)
}
