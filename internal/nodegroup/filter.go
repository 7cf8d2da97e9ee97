// Package nodegroup implements the Node-Group Filter Evaluator (C9): a
// pure function evaluating a node-group's DNF filter tree against a
// node's fact map, plus the bulk membership recomputation that runs
// when a node's facts change.
package nodegroup

import "strings"

// FilterPart is one (fact_path, allowed values) membership test. fact_path
// may be dotted (e.g. "os.family") to address nested fact maps.
type FilterPart struct {
	FactPath string
	Values   []string
}

// FilterRule is a conjunction (AND) of FilterParts.
type FilterRule struct {
	Parts []FilterPart
}

// Group is a node-group's id plus its disjunction (OR) of FilterRules.
type Group struct {
	ID      string
	Filters []FilterRule
}

// Matches reports whether facts satisfies group's DNF filter: true when at
// least one rule's parts all match.
func (g Group) Matches(facts map[string]any) bool {
	if len(g.Filters) == 0 {
		return false
	}
	for _, rule := range g.Filters {
		if ruleMatches(rule, facts) {
			return true
		}
	}
	return false
}

func ruleMatches(rule FilterRule, facts map[string]any) bool {
	for _, part := range rule.Parts {
		if !partMatches(part, facts) {
			return false
		}
	}
	return true
}

func partMatches(part FilterPart, facts map[string]any) bool {
	value, ok := lookupPath(facts, part.FactPath)
	if !ok {
		return false
	}
	str, ok := value.(string)
	if !ok {
		return false
	}
	for _, v := range part.Values {
		if v == str {
			return true
		}
	}
	return false
}

// lookupPath walks a dotted fact path (e.g. "os.family") through nested
// maps, returning the leaf value and whether every segment resolved.
func lookupPath(facts map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var current any = facts
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// MatchingGroups returns the ids of every group in groups whose filter
// matches facts.
func MatchingGroups(groups []Group, facts map[string]any) []string {
	var out []string
	for _, g := range groups {
		if g.Matches(facts) {
			out = append(out, g.ID)
		}
	}
	return out
}
