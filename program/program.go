// Package program defines the compiled byte-program representation executed
// by the matching engines.
//
// A program is a flat array of instructions addressed by 32-bit program
// counters. Instructions either consume one input byte (Bytes), branch
// (Split), record a capture offset (Save), test a zero-width condition
// (Assert) or report a match (Match). The instruction set is
// byte-oriented: Unicode-aware patterns are expected to be compiled down
// to byte ranges before reaching this package.
//
// Programs are immutable after construction. Build one with a Builder,
// which also derives the byte equivalence classes consumed by the
// deterministic engine.
package program

import (
	"math"

	"github.com/coregx/lazydfa/prefilter"
)

// InstKind identifies the operation an instruction performs.
type InstKind uint8

const (
	// InstBytes consumes one input byte in an inclusive range [lo, hi].
	InstBytes InstKind = iota

	// InstSplit branches to two alternatives. The first target has
	// higher priority under leftmost-first matching.
	InstSplit

	// InstSave records the current input offset into a capture slot.
	// The deterministic engine treats it as an unconditional jump.
	InstSave

	// InstAssert tests a zero-width condition without consuming input.
	InstAssert

	// InstMatch reports a match for one pattern in the program.
	InstMatch
)

// String returns the instruction kind name.
func (k InstKind) String() string {
	switch k {
	case InstBytes:
		return "Bytes"
	case InstSplit:
		return "Split"
	case InstSave:
		return "Save"
	case InstAssert:
		return "Assert"
	case InstMatch:
		return "Match"
	default:
		return "Unknown"
	}
}

// Assert identifies a zero-width condition tested by InstAssert.
type Assert uint8

const (
	// AssertBeginText matches at the start of the input.
	AssertBeginText Assert = iota

	// AssertEndText matches at the end of the input.
	AssertEndText

	// AssertBeginLine matches at the start of the input or after '\n'.
	AssertBeginLine

	// AssertEndLine matches at the end of the input or before '\n'.
	AssertEndLine

	// AssertWordBoundary matches between a word and a non-word byte.
	AssertWordBoundary

	// AssertNoWordBoundary matches where AssertWordBoundary does not.
	AssertNoWordBoundary
)

// String returns the assertion name.
func (a Assert) String() string {
	switch a {
	case AssertBeginText:
		return "BeginText"
	case AssertEndText:
		return "EndText"
	case AssertBeginLine:
		return "BeginLine"
	case AssertEndLine:
		return "EndLine"
	case AssertWordBoundary:
		return "WordBoundary"
	case AssertNoWordBoundary:
		return "NoWordBoundary"
	default:
		return "Unknown"
	}
}

// Inst is a single program instruction. Fields are interpreted per kind;
// use the accessor methods rather than reading fields directly.
type Inst struct {
	kind   InstKind
	out    uint32 // next pc (Bytes/Save/Assert), first arm (Split)
	alt    uint32 // second arm (Split)
	lo, hi byte   // byte range (Bytes)
	slot   uint32 // capture slot (Save)
	assert Assert // condition (Assert)
	match  uint32 // pattern index (Match)
}

// Kind returns the instruction's operation.
func (i *Inst) Kind() InstKind { return i.kind }

// Out returns the next program counter. For Split this is the
// higher-priority arm.
func (i *Inst) Out() uint32 { return i.out }

// Alt returns the lower-priority arm of a Split.
func (i *Inst) Alt() uint32 { return i.alt }

// ByteRange returns the inclusive byte range of a Bytes instruction.
func (i *Inst) ByteRange() (lo, hi byte) { return i.lo, i.hi }

// MatchesByte returns true if a Bytes instruction accepts b.
func (i *Inst) MatchesByte(b byte) bool { return i.lo <= b && b <= i.hi }

// Slot returns the capture slot of a Save instruction.
func (i *Inst) Slot() uint32 { return i.slot }

// Assert returns the condition of an Assert instruction.
func (i *Inst) Assert() Assert { return i.assert }

// MatchIndex returns the pattern index of a Match instruction.
func (i *Inst) MatchIndex() uint32 { return i.match }

// DefaultSizeLimit is the cache byte budget applied when a program does
// not configure its own. 2 MiB holds a few thousand states for typical
// patterns.
const DefaultSizeLimit = 2 << 20

// Program is an immutable compiled byte program plus the metadata the
// engines need to execute it: entry point, direction, anchoring, byte
// equivalence classes, cache budget and an optional literal prefilter.
type Program struct {
	insts      []Inst
	start      uint32
	matchCount int

	isReverse              bool
	anchoredStart          bool
	anchoredEnd            bool
	hasUnicodeWordBoundary bool

	byteClasses ByteClasses
	sizeLimit   int
	prefixes    prefilter.Prefilter
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.insts) }

// Inst returns the instruction at pc. pc must be in range.
func (p *Program) Inst(pc uint32) *Inst { return &p.insts[pc] }

// Start returns the entry program counter.
func (p *Program) Start() uint32 { return p.start }

// MatchCount returns the number of patterns the program can report.
// Single-pattern programs return 1.
func (p *Program) MatchCount() int { return p.matchCount }

// IsReverse returns true if the program matches the reversed pattern and
// is meant to be driven backwards over the input.
func (p *Program) IsReverse() bool { return p.isReverse }

// IsAnchoredStart returns true if every match must begin where the
// search begins.
func (p *Program) IsAnchoredStart() bool { return p.anchoredStart }

// IsAnchoredEnd returns true if every match must end at the end of the
// input.
func (p *Program) IsAnchoredEnd() bool { return p.anchoredEnd }

// HasUnicodeWordBoundary returns true if the program contains a word
// boundary assertion with Unicode semantics. The deterministic engine
// cannot decide such boundaries on non-ASCII bytes and gives up there.
func (p *Program) HasUnicodeWordBoundary() bool { return p.hasUnicodeWordBoundary }

// ByteClasses returns the byte equivalence classes derived at build time.
func (p *Program) ByteClasses() *ByteClasses { return &p.byteClasses }

// SizeLimit returns the cache byte budget for deterministic execution.
func (p *Program) SizeLimit() int { return p.sizeLimit }

// Prefixes returns the literal prefilter, or nil if none applies.
func (p *Program) Prefixes() prefilter.Prefilter { return p.prefixes }

// CanExec reports whether the program fits the deterministic engine's
// addressing scheme: a non-empty instruction list whose program counters
// fit the 32-bit state encoding, and a positive cache budget.
func (p *Program) CanExec() bool {
	return len(p.insts) > 0 && len(p.insts) <= math.MaxInt32 && p.sizeLimit > 0
}
