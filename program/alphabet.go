package program

// ByteClasses maps every byte value to its equivalence class.
//
// Two bytes land in the same class when no instruction in the program can
// tell them apart, so a deterministic state needs one transition per class
// rather than one per byte. Typical programs reduce 256 bytes to well under
// 32 classes, shrinking every transition row accordingly.
//
// The deterministic engine reserves one extra class past AlphabetLen for
// the end-of-input sentinel, so its row stride is AlphabetLen()+1.
type ByteClasses struct {
	classes [256]byte
}

// SingletonByteClasses returns classes with no reduction: every byte is
// its own class.
func SingletonByteClasses() ByteClasses {
	var bc ByteClasses
	for i := 0; i < 256; i++ {
		bc.classes[i] = byte(i)
	}
	return bc
}

// Get returns the equivalence class of b.
func (bc *ByteClasses) Get(b byte) byte {
	return bc.classes[b]
}

// AlphabetLen returns the number of distinct classes. Classes are
// numbered densely from 0, so this is the highest class value plus one.
func (bc *ByteClasses) AlphabetLen() int {
	// Classes are assigned in ascending byte order, so the last entry
	// holds the highest class.
	return int(bc.classes[255]) + 1
}

// IsSingleton returns true if no reduction happened (256 classes).
func (bc *ByteClasses) IsSingleton() bool {
	return bc.AlphabetLen() == 256
}

// Representatives returns one byte per class, the smallest member of each.
func (bc *ByteClasses) Representatives() []byte {
	reps := make([]byte, 0, bc.AlphabetLen())
	seen := [256]bool{}
	for b := 0; b < 256; b++ {
		c := bc.classes[b]
		if !seen[c] {
			seen[c] = true
			reps = append(reps, byte(b))
		}
	}
	return reps
}

// Elements returns all bytes belonging to class.
func (bc *ByteClasses) Elements(class byte) []byte {
	var elems []byte
	for b := 0; b < 256; b++ {
		if bc.classes[b] == class {
			elems = append(elems, byte(b))
		}
	}
	return elems
}

// ByteClassSet accumulates class boundaries while a program is built.
//
// Every byte range an instruction can discriminate on contributes two
// boundaries: the byte just before the range start, and the range end.
// Walking the 256 byte values and bumping the class number after each
// boundary yields the final table.
type ByteClassSet struct {
	bits [4]uint64
}

// SetRange records that bytes inside [start, end] may transition
// differently from bytes outside it.
func (s *ByteClassSet) SetRange(start, end byte) {
	if start > 0 {
		s.setBit(start - 1)
	}
	s.setBit(end)
}

// SetByte records a single distinguished byte.
func (s *ByteClassSet) SetByte(b byte) {
	s.SetRange(b, b)
}

func (s *ByteClassSet) setBit(b byte) {
	s.bits[b/64] |= 1 << (b % 64)
}

func (s *ByteClassSet) getBit(b byte) bool {
	return s.bits[b/64]&(1<<(b%64)) != 0
}

// ByteClasses converts the accumulated boundaries into a lookup table.
func (s *ByteClassSet) ByteClasses() ByteClasses {
	var bc ByteClasses
	class := byte(0)
	for b := 0; b < 256; b++ {
		bc.classes[b] = class
		if s.getBit(byte(b)) {
			class++
		}
	}
	return bc
}

// Merge folds the boundaries of other into s.
func (s *ByteClassSet) Merge(other *ByteClassSet) {
	for i := range s.bits {
		s.bits[i] |= other.bits[i]
	}
}
