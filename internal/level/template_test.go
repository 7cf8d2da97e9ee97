package level_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/level"
)

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, level.Placeholders("common"))
	assert.Equal(t, []string{"env"}, level.Placeholders("{env}"))
	assert.Equal(t, []string{"env", "region"}, level.Placeholders("{env}/{region}"))
}

func TestExpandSubstitutesFacts(t *testing.T) {
	t.Parallel()

	got, err := level.Expand("{env}", map[string]string{"env": "prod"})
	require.NoError(t, err)
	assert.Equal(t, "prod", got)

	got, err = level.Expand("{env}/{region}", map[string]string{"env": "prod", "region": "us"})
	require.NoError(t, err)
	assert.Equal(t, "prod/us", got)
}

func TestExpandMissingFactErrors(t *testing.T) {
	t.Parallel()

	_, err := level.Expand("{env}", map[string]string{})
	require.Error(t, err)
	assert.Equal(t, herrors.InvalidInput, herrors.KindOf(err))
}

func TestCanExpand(t *testing.T) {
	t.Parallel()

	assert.True(t, level.CanExpand("common", nil))
	assert.True(t, level.CanExpand("{env}", map[string]string{"env": "prod"}))
	assert.False(t, level.CanExpand("{env}", map[string]string{}))
}

func TestNormalizeDropsUnreferencedFacts(t *testing.T) {
	t.Parallel()

	out := level.Normalize("{env}", map[string]string{"env": "prod", "region": "us"})
	assert.Equal(t, map[string]string{"env": "prod"}, out)

	out = level.Normalize("common", map[string]string{"env": "prod"})
	assert.Empty(t, out)
}
