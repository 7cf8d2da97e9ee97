// Package level implements the Level Template Resolver (C3), which parses
// and expands "{fact}" placeholders in level identifiers, and the Level
// Registry & Cache (C4), the eventually-consistent, priority-ordered
// projection of the store's levels collection.
package level

import (
	"strings"

	"github.com/Polqt/hieraengine/internal/herrors"
)

// Placeholders returns the ordered list of "{name}" tokens found in
// levelID, in first-occurrence order, duplicates included. A level id with
// no placeholders returns nil.
func Placeholders(levelID string) []string {
	var names []string
	i := 0
	for i < len(levelID) {
		open := strings.IndexByte(levelID[i:], '{')
		if open < 0 {
			break
		}
		open += i
		close := strings.IndexByte(levelID[open:], '}')
		if close < 0 {
			break
		}
		close += open
		names = append(names, levelID[open+1:close])
		i = close + 1
	}
	return names
}

// PlaceholderSet returns the distinct set of placeholder names in levelID.
func PlaceholderSet(levelID string) map[string]bool {
	set := make(map[string]bool)
	for _, p := range Placeholders(levelID) {
		set[p] = true
	}
	return set
}

// Expand substitutes every placeholder in levelID with its value from
// facts. A missing fact for a referenced placeholder is a pure-function
// error (herrors.InvalidInput); callers that want "skip this level"
// semantics (the lookup algorithm) check for that error themselves rather
// than treating it as a fatal failure.
func Expand(levelID string, facts map[string]string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(levelID) {
		open := strings.IndexByte(levelID[i:], '{')
		if open < 0 {
			b.WriteString(levelID[i:])
			break
		}
		open += i
		b.WriteString(levelID[i:open])
		close := strings.IndexByte(levelID[open:], '}')
		if close < 0 {
			// Unterminated placeholder: treat the rest as a literal. There is
			// no escaping mechanism for a literal brace.
			b.WriteString(levelID[open:])
			break
		}
		close += open
		name := levelID[open+1 : close]
		value, ok := facts[name]
		if !ok {
			return "", herrors.Newf(herrors.InvalidInput, "missing fact %q required by level %q", name, levelID)
		}
		b.WriteString(value)
		i = close + 1
	}
	return b.String(), nil
}

// CanExpand reports whether facts contains every placeholder levelID
// references, without building the expanded string.
func CanExpand(levelID string, facts map[string]string) bool {
	for _, name := range Placeholders(levelID) {
		if _, ok := facts[name]; !ok {
			return false
		}
	}
	return true
}

// Normalize restricts facts to exactly the placeholder names of levelID,
// dropping any keys that are not referenced. It is the write-path
// counterpart to Expand, so a row's stored Facts always match what a
// later Expand would need to re-derive its ExpandedID.
func Normalize(levelID string, facts map[string]string) map[string]string {
	wanted := PlaceholderSet(levelID)
	out := make(map[string]string, len(wanted))
	for k, v := range facts {
		if wanted[k] {
			out[k] = v
		}
	}
	return out
}
