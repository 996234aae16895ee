// Package pike implements a thread-based VM over compiled byte
// programs: the slow, complete matcher that backs up the deterministic
// engine.
//
// The VM tracks every viable program position at once in priority order,
// so it needs no state cache and can never give up. It answers exactly
// the questions the deterministic engine answers, with the same
// leftmost-first semantics and the same exclusive-end convention, which
// makes it both the fallback when a search Quits and the oracle
// equivalence tests compare against.
//
// Word boundary assertions are decided over ASCII word bytes, matching
// the deterministic engine on ASCII input. No capture slots are
// maintained here; capture extraction belongs to the calling layer.
package pike

import (
	"github.com/coregx/lazydfa/internal/conv"
	"github.com/coregx/lazydfa/internal/sparse"
	"github.com/coregx/lazydfa/program"
)

// VM executes one program. It holds reusable thread lists, so a VM is
// not safe for concurrent use; create one per goroutine.
type VM struct {
	prog  *program.Program
	clist *sparse.Set
	nlist *sparse.Set
}

// NewVM creates a VM for prog.
func NewVM(prog *program.Program) *VM {
	n := conv.IntToUint32(prog.Len())
	return &VM{
		prog:  prog,
		clist: sparse.NewSet(n),
		nlist: sparse.NewSet(n),
	}
}

// FindEnd searches text[at:] left to right and returns the exclusive
// end of the leftmost-first match. prog must be a forward program.
func (v *VM) FindEnd(text []byte, at int) (end int, matched bool) {
	v.clist.Clear()
	v.addThread(v.clist, v.prog.Start(), text, at)
	for pos := at; ; pos++ {
		if v.clist.IsEmpty() {
			break
		}
		v.nlist.Clear()
	threads:
		for _, pc := range v.clist.Values() {
			inst := v.prog.Inst(pc)
			switch inst.Kind() {
			case program.InstMatch:
				matched = true
				end = pos
				// Everything after this thread has lower
				// priority and can no longer win.
				break threads
			case program.InstBytes:
				if pos < len(text) && inst.MatchesByte(text[pos]) {
					v.addThread(v.nlist, inst.Out(), text, pos+1)
				}
			}
		}
		if pos >= len(text) {
			break
		}
		v.clist, v.nlist = v.nlist, v.clist
	}
	return end, matched
}

// IsMatch reports whether text[at:] contains a match.
func (v *VM) IsMatch(text []byte, at int) bool {
	_, ok := v.FindEnd(text, at)
	return ok
}

// FindMany searches text[at:] and sets matches[i] for every pattern i
// that matches anywhere in the region. len(matches) must equal
// prog.MatchCount(). Returns true if any pattern matched.
func (v *VM) FindMany(matches []bool, text []byte, at int) bool {
	if len(matches) != v.prog.MatchCount() {
		panic("pike: matches length does not match the program's pattern count")
	}
	any := false
	v.clist.Clear()
	v.addThread(v.clist, v.prog.Start(), text, at)
	for pos := at; ; pos++ {
		if v.clist.IsEmpty() {
			break
		}
		v.nlist.Clear()
		for _, pc := range v.clist.Values() {
			inst := v.prog.Inst(pc)
			switch inst.Kind() {
			case program.InstMatch:
				matches[inst.MatchIndex()] = true
				any = true
			case program.InstBytes:
				if pos < len(text) && inst.MatchesByte(text[pos]) {
					v.addThread(v.nlist, inst.Out(), text, pos+1)
				}
			}
		}
		if pos >= len(text) {
			break
		}
		v.clist, v.nlist = v.nlist, v.clist
	}
	return any
}

// FindStart searches text[:at] right to left with a reverse program and
// returns the inclusive start of the longest match ending at at.
func (v *VM) FindStart(text []byte, at int) (start int, matched bool) {
	v.clist.Clear()
	v.addThreadReverse(v.clist, v.prog.Start(), text, at)
	for pos := at; ; pos-- {
		if v.clist.IsEmpty() {
			break
		}
		v.nlist.Clear()
		for _, pc := range v.clist.Values() {
			inst := v.prog.Inst(pc)
			switch inst.Kind() {
			case program.InstMatch:
				// Keep going: a later (smaller) position means a
				// longer match, which reverse scans prefer.
				matched = true
				start = pos
			case program.InstBytes:
				if pos > 0 && inst.MatchesByte(text[pos-1]) {
					v.addThreadReverse(v.nlist, inst.Out(), text, pos-1)
				}
			}
		}
		if pos <= 0 {
			break
		}
		v.clist, v.nlist = v.nlist, v.clist
	}
	return start, matched
}

// addThread follows epsilon transitions from pc at input position pos,
// inserting every visited pc in priority order. The list doubles as the
// visited set.
func (v *VM) addThread(list *sparse.Set, pc uint32, text []byte, pos int) {
	if list.Contains(pc) {
		return
	}
	list.Insert(pc)
	inst := v.prog.Inst(pc)
	switch inst.Kind() {
	case program.InstSplit:
		v.addThread(list, inst.Out(), text, pos)
		v.addThread(list, inst.Alt(), text, pos)
	case program.InstSave:
		v.addThread(list, inst.Out(), text, pos)
	case program.InstAssert:
		if satisfied(inst.Assert(), text, pos) {
			v.addThread(list, inst.Out(), text, pos)
		}
	}
}

func (v *VM) addThreadReverse(list *sparse.Set, pc uint32, text []byte, pos int) {
	if list.Contains(pc) {
		return
	}
	list.Insert(pc)
	inst := v.prog.Inst(pc)
	switch inst.Kind() {
	case program.InstSplit:
		v.addThreadReverse(list, inst.Out(), text, pos)
		v.addThreadReverse(list, inst.Alt(), text, pos)
	case program.InstSave:
		v.addThreadReverse(list, inst.Out(), text, pos)
	case program.InstAssert:
		if satisfiedReverse(inst.Assert(), text, pos) {
			v.addThreadReverse(list, inst.Out(), text, pos)
		}
	}
}

func satisfied(a program.Assert, text []byte, pos int) bool {
	switch a {
	case program.AssertBeginText:
		return pos == 0
	case program.AssertEndText:
		return pos == len(text)
	case program.AssertBeginLine:
		return pos == 0 || text[pos-1] == '\n'
	case program.AssertEndLine:
		return pos == len(text) || text[pos] == '\n'
	case program.AssertWordBoundary:
		return wordBefore(text, pos) != wordAfter(text, pos)
	case program.AssertNoWordBoundary:
		return wordBefore(text, pos) == wordAfter(text, pos)
	default:
		return false
	}
}

// satisfiedReverse evaluates assertions for a reverse program, whose
// "begin" faces the end of the text.
func satisfiedReverse(a program.Assert, text []byte, pos int) bool {
	switch a {
	case program.AssertBeginText:
		return pos == len(text)
	case program.AssertEndText:
		return pos == 0
	case program.AssertBeginLine:
		return pos == len(text) || text[pos] == '\n'
	case program.AssertEndLine:
		return pos == 0 || text[pos-1] == '\n'
	case program.AssertWordBoundary:
		return wordBefore(text, pos) != wordAfter(text, pos)
	case program.AssertNoWordBoundary:
		return wordBefore(text, pos) == wordAfter(text, pos)
	default:
		return false
	}
}

func wordBefore(text []byte, pos int) bool {
	return pos > 0 && isWordByte(text[pos-1])
}

func wordAfter(text []byte, pos int) bool {
	return pos < len(text) && isWordByte(text[pos])
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('A' <= b && b <= 'Z') ||
		('a' <= b && b <= 'z')
}
