// Package lazy implements on-line determinization of a compiled byte
// program: a DFA whose states and transitions are built only as the
// input actually reaches them, cached in a bounded table, and thrown
// away under memory pressure.
//
// The engine executes the same programs as a thread-based VM but visits
// each input byte through a single table lookup on the hot path, which
// is typically an order of magnitude faster. The price is a third
// possible outcome: along with a match or a definitive no-match, a
// search may Quit when the engine hits something it cannot handle (a
// Unicode word boundary against non-ASCII input, or a cache that keeps
// thrashing). Quit carries no information; the caller re-runs the search
// on a slower, complete engine.
//
// Match positions are delayed by one byte internally: a transition's
// pointer is tagged as matching when a match ended just before the byte
// that transition consumed. This lets the end of the input be processed
// as one more (synthetic) byte through the same mechanism, instead of as
// a special case, at the cost of the off-by-one bookkeeping visible in
// the driver loops.
package lazy

import (
	"github.com/coregx/lazydfa/program"
)

// fsm is one in-flight search: the program, the cache it exclusively
// owns for the duration, and the driver's registers.
type fsm struct {
	prog  *program.Program
	cache *Cache

	// start is the (possibly start-tagged) pointer searches restart
	// from; flushes remap it.
	start statePtr

	// at is the current input position, tracked for flush progress
	// accounting.
	at          int
	lastFlushAt int

	// lastMatchSI points at the state that produced the most recent
	// match, so multi-pattern searches can read its match instructions
	// after the scan.
	lastMatchSI statePtr

	// quitAfterMatch stops at the first match position instead of
	// extending to the leftmost-first end.
	quitAfterMatch bool
}

// RunForward searches text[at:] left to right and returns the
// leftmost-first match as Match(end) with end exclusive, NoMatch(n) with
// n the scanned extent, or Quit.
func RunForward(prog *program.Program, cache *Cache, text []byte, at int) Result {
	return run(prog, cache, text, at, false, nil)
}

// RunForwardEarliest is RunForward stopping at the earliest position
// where a match is certain, without extending it. Useful when only
// match presence or a lower bound on the end is needed.
func RunForwardEarliest(prog *program.Program, cache *Cache, text []byte, at int) Result {
	return run(prog, cache, text, at, true, nil)
}

// RunReverse searches text[:at] right to left with a reverse-compiled
// program and returns Match(start) with start inclusive: the leftmost
// starting position reachable from at. Used to recover the start of a
// match whose end a forward scan already found.
func RunReverse(prog *program.Program, cache *Cache, text []byte, at int) Result {
	return run(prog, cache, text, at, false, nil)
}

// RunForwardMany is RunForward for multi-pattern programs: on a match it
// also sets matches[i] for every pattern i that matched. len(matches)
// must equal prog.MatchCount().
func RunForwardMany(prog *program.Program, cache *Cache, matches []bool, text []byte, at int) Result {
	if len(matches) != prog.MatchCount() {
		panic("lazy: matches length does not match the program's pattern count")
	}
	return run(prog, cache, text, at, false, matches)
}

func run(prog *program.Program, cache *Cache, text []byte, at int, earliest bool, matches []bool) Result {
	if !prog.CanExec() {
		return Quit()
	}
	cache.acquire(prog)
	defer cache.release()

	if at < 0 {
		at = 0
	}
	if at > len(text) {
		at = len(text)
	}

	d := &fsm{
		prog:           prog,
		cache:          cache,
		at:             at,
		lastFlushAt:    at,
		lastMatchSI:    stateUnknown,
		quitAfterMatch: earliest,
	}

	var flags emptyFlags
	var sflags byte
	if prog.IsReverse() {
		flags, sflags = d.startFlagsReverse(text, at)
	} else {
		flags, sflags = d.startFlags(text, at)
	}
	start, ok := d.startState(flags, sflags)
	if !ok {
		return Quit()
	}
	if start == stateDead {
		return NoMatch(at)
	}
	d.start = start

	var result Result
	if prog.IsReverse() {
		result = d.execAtReverse(text, at)
	} else {
		result = d.execAt(text, at)
	}

	if matches != nil && result.IsMatch() {
		if len(matches) == 1 {
			matches[0] = true
		} else {
			d.cache.stateAt(d.lastMatchSI).forEachPC(func(pc uint32) {
				inst := prog.Inst(pc)
				if inst.Kind() == program.InstMatch {
					matches[inst.MatchIndex()] = true
				}
			})
		}
	}
	return result
}

// nextSI reads the cached transition out of si on text[at]. Hot path:
// one class lookup, one table load, no branches.
func (d *fsm) nextSI(si statePtr, text []byte, at int) statePtr {
	cls := d.prog.ByteClasses().Get(text[at])
	return d.cache.table[int(si)+int(cls)]
}

// nextState resolves a transition the hot loop could not: it consults
// the cell once more and determinizes on a miss. ok=false means Quit.
func (d *fsm) nextState(si statePtr, b int) (statePtr, bool) {
	cell := d.cache.next(si, d.byteClass(b))
	switch cell {
	case stateUnknown:
		return d.execByte(si, b)
	case stateQuit:
		return 0, false
	default:
		return cell, true
	}
}

func (d *fsm) hasPrefix() bool {
	return !d.prog.IsReverse() &&
		!d.prog.IsAnchoredStart() &&
		d.prog.Prefixes() != nil
}

// startPtr tags a start-state pointer for prefix skipping when a
// prefilter applies.
func (d *fsm) startPtr(si statePtr) statePtr {
	if d.hasPrefix() {
		return si | stateStart
	}
	return si
}

// prefixAt fast-forwards to the next position where a match could
// begin, or -1 when the rest of the input cannot contain one.
func (d *fsm) prefixAt(text []byte, at int) int {
	return d.prog.Prefixes().Find(text, at)
}

// execAt drives a forward scan from at.
//
// Loop invariant at every tag/sentinel dispatch: nextSI is the pointer
// just fetched, prevSI is the state it was fetched from, and text[at-1]
// is the byte that transition consumed. The inner loop alternates
// fetches between the two registers and swaps on exit so the invariant
// holds without a copy per byte.
func (d *fsm) execAt(text []byte, at int) Result {
	result := NoMatch(at)
	prevSI, nextSI := d.start, d.start
	for at < len(text) {
		// Fetch through plain pointers as fast as possible, four
		// transitions per iteration.
		for nextSI <= stateMax && at < len(text) {
			prevSI = d.nextSI(nextSI, text, at)
			at++
			if prevSI > stateMax || at+2 >= len(text) {
				prevSI, nextSI = nextSI, prevSI
				break
			}
			nextSI = d.nextSI(prevSI, text, at)
			at++
			if nextSI > stateMax {
				break
			}
			prevSI = d.nextSI(nextSI, text, at)
			at++
			if prevSI > stateMax {
				prevSI, nextSI = nextSI, prevSI
				break
			}
			nextSI = d.nextSI(prevSI, text, at)
			at++
		}
		if nextSI&stateMatch > 0 {
			// A match ended just before the byte consumed above.
			nextSI &^= stateMatch
			result = Matched(at - 1)
			if d.quitAfterMatch {
				return result
			}
			d.lastMatchSI = nextSI
			prevSI = nextSI

			// Leftmost-first: extend the match while the automaton
			// keeps re-entering the same matching state.
			cur := at
			for nextSI&^stateMatch == prevSI && at+2 < len(text) {
				nextSI = d.nextSI(nextSI&^stateMatch, text, at)
				at++
			}
			if at > cur {
				result = Matched(at - 2)
			}
		} else if nextSI&stateStart > 0 {
			// Back in the start state with a prefilter available:
			// skip ahead to the next candidate.
			nextSI &^= stateStart
			prevSI = nextSI
			i := d.prefixAt(text, at)
			if i < 0 {
				return result.orNoMatch(len(text))
			}
			at = i
		} else if nextSI >= stateUnknown {
			if nextSI == stateQuit {
				return Quit()
			}
			prevSI &= stateMax
			d.at = at
			si, ok := d.nextState(prevSI, int(text[at-1]))
			if !ok {
				return Quit()
			}
			if si == stateDead {
				return result.orNoMatch(at)
			}
			nextSI = si
			if nextSI&stateMatch > 0 {
				nextSI &^= stateMatch
				result = Matched(at - 1)
				if d.quitAfterMatch {
					return result
				}
				d.lastMatchSI = nextSI
			}
			prevSI = nextSI
		} else {
			prevSI = nextSI
		}
	}

	// One more transition on the synthetic end-of-input byte, firing
	// any end-anchored assertions.
	prevSI = nextSI &^ stateStart
	si, ok := d.nextState(prevSI, eofByte)
	if !ok {
		return Quit()
	}
	if si == stateDead {
		return result.orNoMatch(len(text))
	}
	si &^= stateStart
	if si&stateMatch > 0 {
		d.lastMatchSI = si &^ stateMatch
		result = Matched(len(text))
	}
	return result
}

// execAtReverse mirrors execAt right to left over text[:at]. The byte
// consumed by the latest transition is text[at] after the decrement, a
// match tag means the (reversed) match started at at+1, and the
// synthetic end-of-input byte fires at the beginning of the text.
func (d *fsm) execAtReverse(text []byte, at int) Result {
	result := NoMatch(at)
	prevSI, nextSI := d.start, d.start
	for at > 0 {
		for nextSI <= stateMax && at > 0 {
			prevSI = d.nextSI(nextSI, text, at-1)
			at--
			if prevSI > stateMax || at <= 2 {
				prevSI, nextSI = nextSI, prevSI
				break
			}
			nextSI = d.nextSI(prevSI, text, at-1)
			at--
			if nextSI > stateMax {
				break
			}
			prevSI = d.nextSI(nextSI, text, at-1)
			at--
			if prevSI > stateMax {
				prevSI, nextSI = nextSI, prevSI
				break
			}
			nextSI = d.nextSI(prevSI, text, at-1)
			at--
		}
		if nextSI&stateMatch > 0 {
			nextSI &^= stateMatch
			result = Matched(at + 1)
			if d.quitAfterMatch {
				return result
			}
			d.lastMatchSI = nextSI
			prevSI = nextSI

			// Extend toward the leftmost start while the automaton
			// keeps matching.
			cur := at
			for nextSI&^stateMatch == prevSI && at >= 2 {
				nextSI = d.nextSI(nextSI&^stateMatch, text, at-1)
				at--
			}
			if at < cur {
				result = Matched(at + 2)
			}
		} else if nextSI >= stateUnknown {
			if nextSI == stateQuit {
				return Quit()
			}
			prevSI &= stateMax
			d.at = at
			si, ok := d.nextState(prevSI, int(text[at]))
			if !ok {
				return Quit()
			}
			if si == stateDead {
				return result.orNoMatch(at)
			}
			nextSI = si
			if nextSI&stateMatch > 0 {
				nextSI &^= stateMatch
				result = Matched(at + 1)
				if d.quitAfterMatch {
					return result
				}
				d.lastMatchSI = nextSI
			}
			prevSI = nextSI
		} else {
			prevSI = nextSI
		}
	}

	prevSI = nextSI &^ stateStart
	si, ok := d.nextState(prevSI, eofByte)
	if !ok {
		return Quit()
	}
	if si == stateDead {
		return result.orNoMatch(0)
	}
	si &^= stateStart
	if si&stateMatch > 0 {
		d.lastMatchSI = si &^ stateMatch
		result = Matched(0)
	}
	return result
}
