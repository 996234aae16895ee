package lazy

// statePtr identifies a deterministic state, with room for tag bits and
// sentinels above the addressable range.
//
// A plain pointer (<= stateMax) is the byte offset of the state's row in
// the flat transition table, so the hot loop computes the next cell as
// ptr+class without a multiply. Tag bits decorate a plain pointer;
// sentinels replace it entirely:
//
//	stateMatch   tag: a match ended just before the byte whose
//	             transition produced this pointer. Match detection is
//	             delayed by one byte so the end-of-input sentinel byte
//	             is handled by the same mechanism as real bytes.
//	stateStart   tag: the target is the start state and a literal
//	             prefilter applies, so the driver may fast-forward.
//	stateUnknown sentinel: transition not computed yet.
//	stateDead    sentinel: no future match possible from here.
//	stateQuit    sentinel: the engine cannot decide this byte.
type statePtr = uint32

const (
	stateMatch   statePtr = 1 << 29
	stateStart   statePtr = 1 << 30
	stateUnknown statePtr = 1 << 31
	stateDead    statePtr = stateUnknown + 1
	stateQuit    statePtr = stateDead + 1

	// stateMax is the largest plain pointer. Anything above it carries
	// a tag or is a sentinel.
	stateMax = stateMatch - 1
)

// State flag bits, stored in the first byte of the encoding.
const (
	// stateFlagMatch: a match ended just before the transition into
	// this state.
	stateFlagMatch byte = 1 << 0

	// stateFlagWord: the byte consumed entering this state was an
	// ASCII word byte. Needed to decide word boundary assertions one
	// byte later.
	stateFlagWord byte = 1 << 1

	// stateFlagHasEmpty: the state holds unresolved zero-width
	// assertions that must be re-examined before the next byte.
	stateFlagHasEmpty byte = 1 << 2
)

// state is an immutable deterministic state: one flags byte followed by
// the program counters of its instruction set.
//
// The pcs are kept in priority order (the order epsilon closure found
// them) and stored as deltas from the previous pc, zigzag-encoded as
// varints. Delta coding keeps states small: neighboring pcs are usually
// close together, so most entries take one byte. The raw bytes double as
// the content-addressing key in the cache.
type state struct {
	data []byte
}

func (s state) flags() byte   { return s.data[0] }
func (s state) isMatch() bool { return s.data[0]&stateFlagMatch != 0 }
func (s state) isWord() bool  { return s.data[0]&stateFlagWord != 0 }
func (s state) hasEmpty() bool {
	return s.data[0]&stateFlagHasEmpty != 0
}

// forEachPC decodes the pc sequence in priority order without
// allocating. A corrupt encoding is a bug in this package and panics.
func (s state) forEachPC(f func(pc uint32)) {
	data := s.data[1:]
	pc := uint32(0)
	for len(data) > 0 {
		v, n := decodeVarint(data)
		data = data[n:]
		delta := int32(v>>1) ^ -int32(v&1)
		pc = uint32(int32(pc) + delta)
		f(pc)
	}
}

// appendPC appends pc to an encoding in progress. prev is the previously
// appended pc, or 0 for the first.
func appendPC(data []byte, prev, pc uint32) []byte {
	delta := int32(pc) - int32(prev)
	return appendVarint(data, uint32(delta<<1)^uint32(delta>>31))
}

func appendVarint(data []byte, v uint32) []byte {
	for v >= 0x80 {
		data = append(data, byte(v)|0x80)
		v >>= 7
	}
	return append(data, byte(v))
}

func decodeVarint(data []byte) (v uint32, n int) {
	var shift uint
	for i, b := range data {
		v |= uint32(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1
		}
		shift += 7
		if shift > 28 {
			break
		}
	}
	panic("lazy: corrupt state encoding")
}
