package lazy

import (
	"fmt"

	"github.com/coregx/lazydfa/internal/conv"
	"github.com/coregx/lazydfa/internal/sparse"
	"github.com/coregx/lazydfa/program"
)

// cacheEntryOverhead approximates the per-state bookkeeping cost beyond
// the encoding and the transition row: the map entry and the slice
// headers.
const cacheEntryOverhead = 40

// Cache holds all mutable scratch for lazy determinization of one
// program: the transition table, the compiled states, the start-state
// memo and the closure work sets. Separating it from the program lets
// callers reuse one program from many goroutines, each with its own
// Cache.
//
// A Cache is exclusively owned by one in-flight search. Starting a
// second search on a Cache already in use is a programming error and
// panics; use one Cache per goroutine instead.
type Cache struct {
	prog   *program.Program
	config Config
	inUse  bool

	// stride is the width of one transition row: one cell per byte
	// class plus one for the end-of-input sentinel.
	stride   int
	eoiClass int

	// quitClasses are the classes of non-ASCII bytes, pre-poisoned on
	// every new row when the program carries a Unicode word boundary.
	quitClasses []int

	// table is the flat transition table, row-major. A statePtr is its
	// row's base offset into table. Unfilled cells hold stateUnknown.
	table []statePtr

	// states maps row index (ptr/stride) to the state stored there.
	// compiled is the content-addressed inverse: encoding -> pointer.
	states   []state
	compiled map[string]statePtr

	// starts memoizes start states by the 7-bit combination of
	// position flags that determines them.
	starts [128]statePtr

	// Scratch reused across searches.
	qcur, qnext *sparse.Set
	stack       []uint32
	keyScratch  []byte

	size       int
	sizeLimit  int
	flushCount int
}

// NewCache creates a cache for prog with the default configuration.
func NewCache(prog *program.Program) *Cache {
	c, err := NewCacheWithConfig(prog, DefaultConfig())
	if err != nil {
		// DefaultConfig always validates.
		panic(err)
	}
	return c
}

// NewCacheWithConfig creates a cache for prog with explicit tuning.
func NewCacheWithConfig(prog *program.Program, config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !prog.CanExec() {
		return nil, ErrUnsupportedProgram
	}
	stride := prog.ByteClasses().AlphabetLen() + 1
	c := &Cache{
		prog:     prog,
		config:   config,
		stride:   stride,
		eoiClass: stride - 1,
		compiled: make(map[string]statePtr),
		qcur:     sparse.NewSet(conv.IntToUint32(prog.Len())),
		qnext:    sparse.NewSet(conv.IntToUint32(prog.Len())),
	}
	c.sizeLimit = prog.SizeLimit()
	if config.SizeLimit > 0 {
		c.sizeLimit = config.SizeLimit
	}
	for i := range c.starts {
		c.starts[i] = stateUnknown
	}
	if prog.HasUnicodeWordBoundary() {
		bc := prog.ByteClasses()
		seen := make(map[int]bool)
		for b := 0x80; b <= 0xff; b++ {
			cls := int(bc.Get(byte(b)))
			if !seen[cls] {
				seen[cls] = true
				c.quitClasses = append(c.quitClasses, cls)
			}
		}
	}
	return c, nil
}

// CacheStats reports cache occupancy for diagnostics.
type CacheStats struct {
	// States is the number of compiled deterministic states.
	States int

	// SizeBytes approximates the heap held by compiled states.
	SizeBytes int

	// Flushes counts how many times the cache was wiped mid-search.
	Flushes int
}

// Stats returns a snapshot of cache occupancy.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		States:    len(c.states),
		SizeBytes: c.size,
		Flushes:   c.flushCount,
	}
}

// Reset drops all compiled states, the start memo and the flush history,
// returning the cache to its freshly constructed condition.
func (c *Cache) Reset() {
	c.flush()
	c.flushCount = 0
}

// acquire claims exclusive ownership for one search.
func (c *Cache) acquire(prog *program.Program) {
	if c.prog != prog {
		panic("lazy: cache was built for a different program")
	}
	if c.inUse {
		panic("lazy: cache is already in use by another search")
	}
	c.inUse = true
}

func (c *Cache) release() {
	c.inUse = false
}

// stateAt returns the state stored at a plain pointer.
func (c *Cache) stateAt(si statePtr) state {
	return c.states[int(si)/c.stride]
}

// next reads the cell for (si, class).
func (c *Cache) next(si statePtr, class int) statePtr {
	return c.table[int(si)+class]
}

// setNext fills the cell for (si, class).
func (c *Cache) setNext(si statePtr, class int, next statePtr) {
	c.table[int(si)+class] = next
}

// lookup finds an already compiled state by its encoding.
func (c *Cache) lookup(key state) (statePtr, bool) {
	si, ok := c.compiled[string(key.data)]
	return si, ok
}

// addState compiles a new state: allocates its transition row, copies
// the key encoding and indexes it. Fails when the next row's base offset
// would not fit a plain pointer; the search must then give up.
func (c *Cache) addState(key state) (statePtr, bool) {
	base := len(c.table)
	if base > int(stateMax) {
		return 0, false
	}
	data := make([]byte, len(key.data))
	copy(data, key.data)

	for i := 0; i < c.stride; i++ {
		c.table = append(c.table, stateUnknown)
	}
	for _, cls := range c.quitClasses {
		c.table[base+cls] = stateQuit
	}
	si := statePtr(base)
	c.states = append(c.states, state{data: data})
	c.compiled[string(data)] = si
	c.size += len(data) + 4*c.stride + cacheEntryOverhead
	return si, true
}

// restore re-adds a state snapshot after a flush, deduplicating against
// anything already restored.
func (c *Cache) restore(snapshot state) (statePtr, bool) {
	if si, ok := c.lookup(snapshot); ok {
		return si, true
	}
	return c.addState(snapshot)
}

// flush wipes the transition table, the compiled states and the start
// memo. Callers needing the in-flight search to survive must snapshot
// and restore its live states around this.
func (c *Cache) flush() {
	c.table = c.table[:0]
	c.states = c.states[:0]
	clear(c.compiled)
	for i := range c.starts {
		c.starts[i] = stateUnknown
	}
	c.size = 0
	c.flushCount++
}

// String formats a cache summary for diagnostics.
func (c *Cache) String() string {
	return fmt.Sprintf("lazy.Cache{states: %d, bytes: %d, flushes: %d}",
		len(c.states), c.size, c.flushCount)
}
