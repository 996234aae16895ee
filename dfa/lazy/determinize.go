package lazy

import (
	"github.com/coregx/lazydfa/internal/sparse"
	"github.com/coregx/lazydfa/program"
)

// eofByte is the synthetic byte fed to the automaton once the input is
// exhausted. It gets its own byte class (the last one in every row) and
// can never equal a real byte, which lets end-anchored assertions fire
// through the ordinary transition mechanism.
const eofByte = 256

// emptyFlags describes which zero-width assertions hold at one input
// position.
type emptyFlags struct {
	start           bool
	end             bool
	startLine       bool
	endLine         bool
	wordBoundary    bool
	notWordBoundary bool
}

func (f emptyFlags) satisfies(a program.Assert) bool {
	switch a {
	case program.AssertBeginText:
		return f.start
	case program.AssertEndText:
		return f.end
	case program.AssertBeginLine:
		return f.startLine
	case program.AssertEndLine:
		return f.endLine
	case program.AssertWordBoundary:
		return f.wordBoundary
	case program.AssertNoWordBoundary:
		return f.notWordBoundary
	default:
		return false
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('A' <= b && b <= 'Z') ||
		('a' <= b && b <= 'z')
}

func (d *fsm) byteClass(b int) int {
	if b == eofByte {
		return d.cache.eoiClass
	}
	return int(d.prog.ByteClasses().Get(byte(b)))
}

// continuePastFirstMatch reports whether determinization must keep
// processing lower-priority threads after the first match instruction.
// Reverse programs want the longest (leftmost-starting) match; programs
// with several patterns need every match instruction, not just the
// first.
func (d *fsm) continuePastFirstMatch() bool {
	return d.prog.IsReverse() || d.prog.MatchCount() > 1
}

// followEpsilons adds to q every pc reachable from pc without consuming
// input, in priority order. Splits push their low-priority arm onto an
// explicit stack; saves pass through; assertions pass through only when
// flags satisfies them, and otherwise stay in q as unresolved leaves so
// the next byte's boundary can retry them. q doubles as the visited set.
func (d *fsm) followEpsilons(pc uint32, q *sparse.Set, flags emptyFlags) {
	stack := append(d.cache.stack[:0], pc)
	for len(stack) > 0 {
		ip := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
	walk:
		for {
			if q.Contains(ip) {
				break
			}
			q.Insert(ip)
			inst := d.prog.Inst(ip)
			switch inst.Kind() {
			case program.InstBytes, program.InstMatch:
				break walk
			case program.InstSave:
				ip = inst.Out()
			case program.InstSplit:
				stack = append(stack, inst.Alt())
				ip = inst.Out()
			case program.InstAssert:
				if !flags.satisfies(inst.Assert()) {
					break walk
				}
				ip = inst.Out()
			}
		}
	}
	d.cache.stack = stack[:0]
}

// execByte computes the transition out of si on b (a byte or eofByte),
// compiling the target state if it has never been seen, and fills the
// table cell so the hot loop never comes back here for this pair.
//
// Match detection is delayed: the returned pointer carries stateMatch
// when a match ended just before b was consumed, i.e. when the TARGET
// state's instruction set was reached through a match instruction in the
// source set.
func (d *fsm) execByte(si statePtr, b int) (statePtr, bool) {
	c := d.cache
	qcur, qnext := c.qcur, c.qnext
	st := c.stateAt(si)

	qcur.Clear()
	st.forEachPC(func(pc uint32) {
		qcur.Insert(pc)
	})

	// The state holds assertions that could not be decided when it was
	// built. Now that the bytes on both sides of this boundary are
	// known, re-run the closure with the boundary's flags.
	if st.hasEmpty() {
		var flags emptyFlags
		if b == eofByte {
			flags.end = true
			flags.endLine = true
		} else if byte(b) == '\n' {
			flags.endLine = true
		}
		isWord := b != eofByte && isWordByte(byte(b))
		if isWord == st.isWord() {
			flags.notWordBoundary = true
		} else {
			flags.wordBoundary = true
		}
		qnext.Clear()
		for _, pc := range qcur.Values() {
			d.followEpsilons(pc, qnext, flags)
		}
		qcur, qnext = qnext, qcur
	}

	// Step over b. Flags here describe the boundary AFTER b; word
	// boundaries there depend on the byte after b and stay undecided,
	// which is what the word flag and the deferred closure above exist
	// for.
	var flags emptyFlags
	var sflags byte
	if b != eofByte {
		if byte(b) == '\n' {
			flags.startLine = true
		}
		if isWordByte(byte(b)) {
			sflags |= stateFlagWord
		}
	}
	qnext.Clear()
step:
	for _, pc := range qcur.Values() {
		inst := d.prog.Inst(pc)
		switch inst.Kind() {
		case program.InstBytes:
			if b != eofByte && inst.MatchesByte(byte(b)) {
				d.followEpsilons(inst.Out(), qnext, flags)
			}
		case program.InstMatch:
			sflags |= stateFlagMatch
			if !d.continuePastFirstMatch() {
				// Threads after a match can never win under
				// leftmost-first semantics.
				break step
			}
			if d.prog.MatchCount() > 1 {
				// A pattern that has matched stays matched: carry
				// its match instruction into every successor so
				// the final state lists all patterns seen.
				qnext.Insert(pc)
			}
		}
	}

	cacheable := true
	if b == eofByte && d.prog.MatchCount() > 1 {
		// For multi-pattern programs the caller needs the full set of
		// match instructions live at end of input, so the "target" is
		// the closed source set itself. It depends on this exact
		// search's endpoint, so it must not be written into the table.
		qcur, qnext = qnext, qcur
		cacheable = false
	}

	next, ok := d.cachedState(qnext, sflags, &si)
	if !ok {
		return 0, false
	}
	if next != stateDead {
		if d.start&^stateStart == next {
			// Start states are never match states (matches are
			// delayed one byte), so tagging cannot lose a match.
			next = d.startPtr(next)
		}
		if next <= stateMax && c.stateAt(next).isMatch() {
			next |= stateMatch
		}
	}
	if cacheable {
		c.setNext(si, d.byteClass(b), next)
	}
	return next, true
}

// cachedState resolves the canonical state for q: an existing pointer if
// the state was compiled before, a fresh compilation otherwise, flushing
// the cache first when over budget. currentSI, when non-nil, is a live
// pointer the caller still needs; a flush remaps it. Returns stateDead
// for a set that can never match, and ok=false when the search must give
// up.
func (d *fsm) cachedState(q *sparse.Set, sflags byte, currentSI *statePtr) (statePtr, bool) {
	key, alive := d.cachedStateKey(q, &sflags)
	if !alive {
		return stateDead, true
	}
	if si, ok := d.cache.lookup(key); ok {
		return si, true
	}
	if d.cache.size > d.cache.sizeLimit {
		if !d.flushAndRestore(currentSI) {
			return 0, false
		}
	}
	si, ok := d.cache.addState(key)
	if !ok {
		return 0, false
	}
	return si, true
}

// cachedStateKey canonicalizes q into a state encoding. Only byte,
// assertion and match instructions are kept: splits and saves influence
// which of those are present but carry no information of their own.
// sflags picks up the has-empty flag when unresolved assertions remain.
// The returned key aliases cache scratch; it is only valid until the
// next call.
func (d *fsm) cachedStateKey(q *sparse.Set, sflags *byte) (state, bool) {
	data := append(d.cache.keyScratch[:0], 0)
	flags := *sflags
	prev := uint32(0)
	empty := true
keep:
	for _, pc := range q.Values() {
		inst := d.prog.Inst(pc)
		switch inst.Kind() {
		case program.InstBytes:
			data = appendPC(data, prev, pc)
			prev = pc
			empty = false
		case program.InstAssert:
			flags |= stateFlagHasEmpty
			data = appendPC(data, prev, pc)
			prev = pc
			empty = false
		case program.InstMatch:
			data = appendPC(data, prev, pc)
			prev = pc
			empty = false
			if !d.continuePastFirstMatch() {
				break keep
			}
		}
	}
	d.cache.keyScratch = data
	if empty && flags&stateFlagMatch == 0 {
		return state{}, false
	}
	data[0] = flags
	*sflags = flags
	return state{data: data}, true
}

// startState resolves the start state for the position flags at the
// search's starting boundary, memoized on the 7 bits that fully
// determine it.
func (d *fsm) startState(flags emptyFlags, sflags byte) (statePtr, bool) {
	idx := startMemoIndex(flags, sflags)
	if si := d.cache.starts[idx]; si != stateUnknown {
		return si, true
	}
	q := d.cache.qcur
	q.Clear()
	d.followEpsilons(d.prog.Start(), q, flags)
	si, ok := d.cachedState(q, sflags, nil)
	if !ok {
		return 0, false
	}
	if si != stateDead {
		si = d.startPtr(si)
	}
	d.cache.starts[idx] = si
	return si, true
}

func startMemoIndex(flags emptyFlags, sflags byte) int {
	idx := 0
	if flags.start {
		idx |= 1 << 0
	}
	if flags.end {
		idx |= 1 << 1
	}
	if flags.startLine {
		idx |= 1 << 2
	}
	if flags.endLine {
		idx |= 1 << 3
	}
	if flags.wordBoundary {
		idx |= 1 << 4
	}
	if flags.notWordBoundary {
		idx |= 1 << 5
	}
	if sflags&stateFlagWord != 0 {
		idx |= 1 << 6
	}
	return idx
}

// startFlags computes the position flags for a forward search beginning
// at 'at'.
func (d *fsm) startFlags(text []byte, at int) (emptyFlags, byte) {
	var flags emptyFlags
	var sflags byte
	flags.start = at == 0
	flags.end = at == len(text)
	flags.startLine = at == 0 || text[at-1] == '\n'
	flags.endLine = at == len(text) || text[at] == '\n'

	wordBefore := at > 0 && isWordByte(text[at-1])
	wordAfter := at < len(text) && isWordByte(text[at])
	if wordBefore {
		sflags |= stateFlagWord
	}
	if wordBefore == wordAfter {
		flags.notWordBoundary = true
	} else {
		flags.wordBoundary = true
	}
	return flags, sflags
}

// startFlagsReverse mirrors startFlags for a reverse search beginning at
// 'at' and moving left. The reversed program's "begin" assertions face
// the end of the text, so the flags are computed mirrored.
func (d *fsm) startFlagsReverse(text []byte, at int) (emptyFlags, byte) {
	var flags emptyFlags
	var sflags byte
	flags.start = at == len(text)
	flags.end = at == 0
	flags.startLine = at == len(text) || text[at] == '\n'
	flags.endLine = at == 0 || text[at-1] == '\n'

	wordBefore := at < len(text) && isWordByte(text[at])
	wordAfter := at > 0 && isWordByte(text[at-1])
	if wordBefore {
		sflags |= stateFlagWord
	}
	if wordBefore == wordAfter {
		flags.notWordBoundary = true
	} else {
		flags.wordBoundary = true
	}
	return flags, sflags
}

// flushAndRestore wipes the cache but keeps the in-flight search viable
// by snapshotting and re-adding the states it still points at: the
// current start state, the last-match state and the caller's working
// state. Refuses (and the search gives up) when flushing has become
// thrashing: too many flushes with too little input progress between
// them.
func (d *fsm) flushAndRestore(currentSI *statePtr) bool {
	c := d.cache
	if len(c.states) == 0 {
		return true
	}
	progress := d.at - d.lastFlushAt
	if d.prog.IsReverse() {
		progress = d.lastFlushAt - d.at
	}
	if c.flushCount >= c.config.MaxFlushes &&
		progress <= c.config.FlushProgressFactor*len(c.states) {
		return false
	}
	d.lastFlushAt = d.at

	// state data is immutable, so snapshots can share it; flush only
	// drops the cache's references.
	startSnap := c.stateAt(d.start &^ stateStart)
	var matchSnap state
	haveMatch := d.lastMatchSI <= stateMax && len(c.states) > 0
	if haveMatch {
		matchSnap = c.stateAt(d.lastMatchSI)
	}
	var curSnap state
	if currentSI != nil {
		curSnap = c.stateAt(*currentSI)
	}

	c.flush()

	si, ok := c.restore(startSnap)
	if !ok {
		return false
	}
	d.start = d.startPtr(si)
	if haveMatch {
		if d.lastMatchSI, ok = c.restore(matchSnap); !ok {
			return false
		}
	}
	if currentSI != nil {
		if *currentSI, ok = c.restore(curSnap); !ok {
			return false
		}
	}
	return true
}
