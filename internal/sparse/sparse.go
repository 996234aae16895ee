// Package sparse provides an ordered sparse set used as scratch space during
// on-line determinization.
//
// A sparse set supports O(1) insertion, membership testing and clearing while
// keeping a dense list of elements. Unlike a map-based set, iteration visits
// elements in insertion order, which matters for leftmost-first matching: the
// order in which instruction pointers were discovered by epsilon closure is
// the order in which they must be considered.
package sparse

// Set is a set of uint32 values over a bounded universe.
// It maintains a sparse array (for membership testing) and a dense array
// (for ordered iteration). The sparse array maps values to indices in dense.
type Set struct {
	sparse []uint32 // maps value -> index in dense
	dense  []uint32 // values, in insertion order
}

// NewSet creates a new sparse set whose universe is [0, capacity).
func NewSet(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Capacity returns the size of the universe (exclusive upper bound on values).
func (s *Set) Capacity() uint32 {
	return uint32(len(s.sparse))
}

// Resize grows the universe to [0, capacity) and clears the set.
// Shrinking is a no-op.
func (s *Set) Resize(capacity uint32) {
	if capacity <= s.Capacity() {
		return
	}
	s.sparse = make([]uint32, capacity)
	s.dense = make([]uint32, 0, capacity)
}

// Insert adds a value to the set. Inserting a value already present is a
// no-op, preserving the original insertion position.
func (s *Set) Insert(value uint32) {
	if s.Contains(value) {
		return
	}
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
}

// Contains returns true if the value is in the set.
func (s *Set) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < uint32(len(s.dense)) && s.dense[idx] == value
}

// Clear removes all elements in O(1) time. The dense storage is retained.
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of elements in the set.
func (s *Set) Len() int {
	return len(s.dense)
}

// IsEmpty returns true if the set contains no elements.
func (s *Set) IsEmpty() bool {
	return len(s.dense) == 0
}

// Values returns the elements in insertion order.
// The returned slice is valid until the next mutation.
func (s *Set) Values() []uint32 {
	return s.dense
}
