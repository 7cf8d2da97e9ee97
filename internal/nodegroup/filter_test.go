package nodegroup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Polqt/hieraengine/internal/nodegroup"
)

func TestGroupMatchesDNF(t *testing.T) {
	t.Parallel()

	g := nodegroup.Group{
		ID: "prod-web",
		Filters: []nodegroup.FilterRule{
			{Parts: []nodegroup.FilterPart{
				{FactPath: "env", Values: []string{"prod"}},
				{FactPath: "role", Values: []string{"web"}},
			}},
			{Parts: []nodegroup.FilterPart{
				{FactPath: "env", Values: []string{"staging"}},
			}},
		},
	}

	assert.True(t, g.Matches(map[string]any{"env": "prod", "role": "web"}))
	assert.True(t, g.Matches(map[string]any{"env": "staging", "role": "db"}))
	assert.False(t, g.Matches(map[string]any{"env": "prod", "role": "db"}))
	assert.False(t, g.Matches(map[string]any{"env": "dev"}))
}

func TestGroupMatchesEmptyFiltersNeverMatches(t *testing.T) {
	t.Parallel()

	g := nodegroup.Group{ID: "empty"}
	assert.False(t, g.Matches(map[string]any{"env": "prod"}))
}

func TestGroupMatchesDottedFactPath(t *testing.T) {
	t.Parallel()

	g := nodegroup.Group{
		Filters: []nodegroup.FilterRule{
			{Parts: []nodegroup.FilterPart{{FactPath: "os.family", Values: []string{"linux"}}}},
		},
	}

	facts := map[string]any{"os": map[string]any{"family": "linux"}}
	assert.True(t, g.Matches(facts))

	assert.False(t, g.Matches(map[string]any{"os": map[string]any{"family": "windows"}}))
	assert.False(t, g.Matches(map[string]any{"os": "not-a-map"}))
	assert.False(t, g.Matches(map[string]any{}))
}

func TestMatchingGroups(t *testing.T) {
	t.Parallel()

	groups := []nodegroup.Group{
		{ID: "a", Filters: []nodegroup.FilterRule{{Parts: []nodegroup.FilterPart{{FactPath: "env", Values: []string{"prod"}}}}}},
		{ID: "b", Filters: []nodegroup.FilterRule{{Parts: []nodegroup.FilterPart{{FactPath: "env", Values: []string{"stage"}}}}}},
	}

	got := nodegroup.MatchingGroups(groups, map[string]any{"env": "prod"})
	assert.Equal(t, []string{"a"}, got)
}
