// Package prefilter provides fast candidate location for automaton search
// using literal prefixes.
//
// A prefilter scans the haystack for literals that every match must begin
// with. The automaton driver uses it to fast-forward from its start state:
// instead of feeding bytes one at a time through a state that only loops
// back to itself, it jumps directly to the next position where a match
// could possibly begin.
//
// A prefilter match is a candidate, not a verdict: the automaton still
// verifies it, unless IsComplete reports that the literal IS the whole
// pattern.
//
// Strategy selection is automatic:
//   - single one-byte literal  -> byte searcher (bytes.IndexByte)
//   - single literal           -> substring searcher (bytes.Index)
//   - multiple literals        -> Aho-Corasick automaton
package prefilter

import (
	"bytes"

	"github.com/coregx/ahocorasick"
)

// Prefilter locates candidate match positions before the full automaton runs.
type Prefilter interface {
	// Find returns the index of the first candidate at or after start,
	// or -1 if no candidate exists. start must satisfy
	// 0 <= start <= len(haystack).
	Find(haystack []byte, start int) int

	// IsComplete returns true if a prefilter hit is a guaranteed match,
	// making verification by the automaton unnecessary.
	IsComplete() bool

	// LiteralLen returns the length of the matched literal when
	// IsComplete is true, and 0 otherwise.
	LiteralLen() int
}

// ForLiterals builds a prefilter for the given literal prefixes.
// Returns nil when no useful prefilter can be built (empty set, or a
// literal that is itself empty and therefore matches everywhere).
// The literals are not copied; callers must not mutate them afterwards.
func ForLiterals(literals [][]byte) Prefilter {
	if len(literals) == 0 {
		return nil
	}
	for _, lit := range literals {
		if len(lit) == 0 {
			return nil
		}
	}
	if len(literals) == 1 {
		if len(literals[0]) == 1 {
			return &byteSearcher{b: literals[0][0]}
		}
		return &literalSearcher{lit: literals[0]}
	}
	builder := ahocorasick.NewBuilder()
	for _, lit := range literals {
		builder.AddPattern(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		// Degenerate literal set. Search is still correct without a
		// prefilter, just slower.
		return nil
	}
	return &multiSearcher{auto: auto}
}

// byteSearcher finds occurrences of a single byte.
type byteSearcher struct {
	b byte
}

func (s *byteSearcher) Find(haystack []byte, start int) int {
	if start > len(haystack) {
		return -1
	}
	i := bytes.IndexByte(haystack[start:], s.b)
	if i < 0 {
		return -1
	}
	return start + i
}

func (s *byteSearcher) IsComplete() bool { return false }
func (s *byteSearcher) LiteralLen() int  { return 0 }

// literalSearcher finds occurrences of a single multi-byte literal.
type literalSearcher struct {
	lit []byte
}

func (s *literalSearcher) Find(haystack []byte, start int) int {
	if start > len(haystack) {
		return -1
	}
	i := bytes.Index(haystack[start:], s.lit)
	if i < 0 {
		return -1
	}
	return start + i
}

func (s *literalSearcher) IsComplete() bool { return false }
func (s *literalSearcher) LiteralLen() int  { return 0 }

// multiSearcher finds the leftmost occurrence of any literal in a set using
// an Aho-Corasick automaton.
type multiSearcher struct {
	auto *ahocorasick.Automaton
}

func (s *multiSearcher) Find(haystack []byte, start int) int {
	if start > len(haystack) {
		return -1
	}
	m := s.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}

func (s *multiSearcher) IsComplete() bool { return false }
func (s *multiSearcher) LiteralLen() int  { return 0 }
