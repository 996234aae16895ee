package program

import (
	"fmt"

	"github.com/coregx/lazydfa/internal/conv"
	"github.com/coregx/lazydfa/prefilter"
)

// maxInsts bounds the instruction count so that every pc fits the 32-bit
// encoding with room left for the unanchored prefix loop Build appends.
const maxInsts = 1<<31 - 8

// Builder assembles a Program instruction by instruction.
//
// Emit methods return the pc of the new instruction. Forward jumps are
// emitted with a placeholder target (the following pc) and fixed up later
// with PatchOut/PatchAlt. A Builder is single-use: after Build it should
// be discarded.
//
// Minimal example, the program for "ab":
//
//	b := NewBuilder()
//	b.EmitBytes('a', 'a')
//	b.EmitBytes('b', 'b')
//	b.EmitMatch(0)
//	prog, err := b.Build()
type Builder struct {
	insts []Inst
	start uint32

	reverse       bool
	anchoredStart bool
	anchoredEnd   bool
	unicodeWord   bool

	sizeLimit int
	literals  [][]byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) push(inst Inst) uint32 {
	pc := conv.IntToUint32(len(b.insts))
	b.insts = append(b.insts, inst)
	return pc
}

// EmitBytes appends an instruction consuming one byte in [lo, hi].
// Its continuation defaults to the next pc.
func (b *Builder) EmitBytes(lo, hi byte) uint32 {
	pc := conv.IntToUint32(len(b.insts))
	return b.push(Inst{kind: InstBytes, lo: lo, hi: hi, out: pc + 1})
}

// EmitSplit appends a two-way branch. out has priority over alt.
func (b *Builder) EmitSplit(out, alt uint32) uint32 {
	return b.push(Inst{kind: InstSplit, out: out, alt: alt})
}

// EmitSave appends a capture-slot write. Its continuation defaults to
// the next pc.
func (b *Builder) EmitSave(slot uint32) uint32 {
	pc := conv.IntToUint32(len(b.insts))
	return b.push(Inst{kind: InstSave, slot: slot, out: pc + 1})
}

// EmitAssert appends a zero-width condition. Its continuation defaults
// to the next pc.
func (b *Builder) EmitAssert(a Assert) uint32 {
	pc := conv.IntToUint32(len(b.insts))
	return b.push(Inst{kind: InstAssert, assert: a, out: pc + 1})
}

// EmitMatch appends a match report for pattern index.
func (b *Builder) EmitMatch(index uint32) uint32 {
	return b.push(Inst{kind: InstMatch, match: index})
}

// PatchOut rewrites the continuation (or first Split arm) of pc.
func (b *Builder) PatchOut(pc, out uint32) {
	b.insts[pc].out = out
}

// PatchAlt rewrites the second Split arm of pc.
func (b *Builder) PatchAlt(pc, alt uint32) {
	b.insts[pc].alt = alt
}

// SetStart sets the entry pc. Defaults to 0.
func (b *Builder) SetStart(pc uint32) { b.start = pc }

// SetReverse marks the program as a reversed pattern, to be driven
// backwards over the input.
func (b *Builder) SetReverse(v bool) { b.reverse = v }

// SetAnchoredStart requires matches to begin where the search begins.
// Unanchored forward programs get a self-looping prefix appended by
// Build so the engine can find matches at any position.
func (b *Builder) SetAnchoredStart(v bool) { b.anchoredStart = v }

// SetAnchoredEnd requires matches to end at the end of the input.
func (b *Builder) SetAnchoredEnd(v bool) { b.anchoredEnd = v }

// SetUnicodeWordBoundary marks word boundary assertions as
// Unicode-aware. The deterministic engine then refuses to decide them on
// non-ASCII bytes and gives up instead of answering wrongly.
func (b *Builder) SetUnicodeWordBoundary(v bool) { b.unicodeWord = v }

// SetSizeLimit sets the cache byte budget for deterministic execution.
// Zero selects DefaultSizeLimit.
func (b *Builder) SetSizeLimit(n int) { b.sizeLimit = n }

// SetPrefixes supplies literals that every match must begin with. Build
// turns them into a prefilter for forward programs. The literals are not
// copied.
func (b *Builder) SetPrefixes(literals [][]byte) { b.literals = literals }

// Build validates the assembled instructions and produces an immutable
// Program.
//
// Beyond validation, Build derives everything the engines need:
//   - For unanchored forward programs, a ".*?"-style prefix loop is
//     appended and made the entry point, so a single anchored-style run
//     considers every starting position.
//   - Byte equivalence classes are computed from all byte ranges. Bytes
//     that zero-width assertions can distinguish ('\n' for line
//     anchors, word characters for word boundaries, and the non-ASCII
//     range for Unicode word boundaries) contribute boundaries too, so
//     no class mixes bytes an assertion would treat differently.
//   - Literal prefixes are compiled into a prefilter.
func (b *Builder) Build() (*Program, error) {
	if len(b.insts) == 0 {
		return nil, ErrNoInstructions
	}
	if len(b.insts) > maxInsts {
		return nil, &ProgramError{
			Kind:    TooManyInstructions,
			Message: fmt.Sprintf("program has %d instructions, limit is %d", len(b.insts), maxInsts),
		}
	}
	if b.sizeLimit < 0 {
		return nil, ErrInvalidSizeLimit
	}

	insts := make([]Inst, len(b.insts), len(b.insts)+2)
	copy(insts, b.insts)
	start := b.start

	if !b.anchoredStart && !b.reverse {
		// Prefix loop: try the pattern here, otherwise consume one
		// byte and retry. The pattern arm comes first so matches at
		// earlier positions win.
		loop := conv.IntToUint32(len(insts))
		insts = append(insts,
			Inst{kind: InstSplit, out: start, alt: loop + 1},
			Inst{kind: InstBytes, lo: 0x00, hi: 0xff, out: loop},
		)
		start = loop
	}

	n := uint32(len(insts))
	if start >= n {
		return nil, &ProgramError{
			Kind:    InvalidStart,
			Message: fmt.Sprintf("entry point %d out of range [0, %d)", start, n),
		}
	}

	var (
		set        ByteClassSet
		matchCount int
		maxMatch   uint32
		lineAssert bool
		wordAssert bool
	)
	for pc := range insts {
		inst := &insts[pc]
		switch inst.kind {
		case InstBytes:
			set.SetRange(inst.lo, inst.hi)
			if inst.out >= n {
				return nil, targetError(uint32(pc), inst.out, n)
			}
		case InstSplit:
			if inst.out >= n {
				return nil, targetError(uint32(pc), inst.out, n)
			}
			if inst.alt >= n {
				return nil, targetError(uint32(pc), inst.alt, n)
			}
		case InstSave, InstAssert:
			if inst.out >= n {
				return nil, targetError(uint32(pc), inst.out, n)
			}
			if inst.kind == InstAssert {
				switch inst.assert {
				case AssertBeginLine, AssertEndLine:
					lineAssert = true
				case AssertWordBoundary, AssertNoWordBoundary:
					wordAssert = true
				}
			}
		case InstMatch:
			matchCount++
			if inst.match > maxMatch {
				maxMatch = inst.match
			}
		}
	}
	if matchCount == 0 {
		return nil, ErrNoMatchInstruction
	}

	if lineAssert {
		set.SetByte('\n')
	}
	if wordAssert {
		set.SetRange('0', '9')
		set.SetRange('A', 'Z')
		set.SetByte('_')
		set.SetRange('a', 'z')
		if b.unicodeWord {
			set.SetRange(0x80, 0xff)
		}
	}

	sizeLimit := b.sizeLimit
	if sizeLimit == 0 {
		sizeLimit = DefaultSizeLimit
	}

	var prefixes prefilter.Prefilter
	if len(b.literals) > 0 && !b.reverse {
		prefixes = prefilter.ForLiterals(b.literals)
	}

	return &Program{
		insts:                  insts,
		start:                  start,
		matchCount:             int(maxMatch) + 1,
		isReverse:              b.reverse,
		anchoredStart:          b.anchoredStart,
		anchoredEnd:            b.anchoredEnd,
		hasUnicodeWordBoundary: wordAssert && b.unicodeWord,
		byteClasses:            set.ByteClasses(),
		sizeLimit:              sizeLimit,
		prefixes:               prefixes,
	}, nil
}

func targetError(pc, target, n uint32) error {
	return &ProgramError{
		Kind:    InvalidTarget,
		Message: fmt.Sprintf("instruction %d jumps to %d, out of range [0, %d)", pc, target, n),
	}
}
