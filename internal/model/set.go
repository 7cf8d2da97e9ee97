package model

// Set is the normalised representation of a JSON array with
// uniqueItems: true. Equality is order-independent; membership is
// what matters, not insertion order. Deep-merge (internal/hiera) unions
// two Sets rather than concatenating them.
type Set struct {
	order []any
	index map[any]struct{}
}

// NewSet builds a Set from items, dropping duplicates and keeping the
// first-seen order (useful for stable serialisation, even though
// equality ignores it).
func NewSet(items []any) Set {
	s := Set{index: make(map[any]struct{}, len(items))}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts item if not already present.
func (s *Set) Add(item any) {
	if s.index == nil {
		s.index = make(map[any]struct{})
	}
	if _, ok := s.index[item]; ok {
		return
	}
	s.index[item] = struct{}{}
	s.order = append(s.order, item)
}

// Items returns the set's elements in first-seen order.
func (s Set) Items() []any {
	out := make([]any, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of distinct elements.
func (s Set) Len() int { return len(s.order) }

// Union returns a new Set containing the elements of both sets.
func Union(a, b Set) Set {
	out := NewSet(a.Items())
	for _, item := range b.Items() {
		out.Add(item)
	}
	return out
}

// Equal reports whether a and b contain the same elements, ignoring order.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k := range s.index {
		if _, ok := other.index[k]; !ok {
			return false
		}
	}
	return true
}
