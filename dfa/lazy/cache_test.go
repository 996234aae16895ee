package lazy

import (
	"errors"
	"testing"

	"github.com/coregx/lazydfa/program"
)

func testProgram(t *testing.T) *program.Program {
	t.Helper()
	b := program.NewBuilder()
	b.EmitBytes('a', 'a') // 0
	b.EmitSplit(0, 2)     // 1
	b.EmitBytes('b', 'b') // 2
	b.EmitMatch(0)        // 3
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return prog
}

func TestCacheStride(t *testing.T) {
	prog := testProgram(t)
	c := NewCache(prog)
	if got, want := c.stride, prog.ByteClasses().AlphabetLen()+1; got != want {
		t.Errorf("stride = %d, want %d", got, want)
	}
	if got := c.eoiClass; got != c.stride-1 {
		t.Errorf("eoiClass = %d, want %d", got, c.stride-1)
	}
}

func TestAddStateAndLookup(t *testing.T) {
	c := NewCache(testProgram(t))
	key := encodePCs(0, []uint32{0, 2})

	si, ok := c.addState(key)
	if !ok {
		t.Fatal("addState failed")
	}
	if si != 0 {
		t.Errorf("first state pointer = %d, want 0", si)
	}
	if got := len(c.table); got != c.stride {
		t.Errorf("table has %d cells, want %d", got, c.stride)
	}
	for i, cell := range c.table {
		if cell != stateUnknown {
			t.Errorf("fresh cell %d = %#x, want stateUnknown", i, cell)
		}
	}

	got, found := c.lookup(key)
	if !found || got != si {
		t.Errorf("lookup = (%d, %v), want (%d, true)", got, found, si)
	}

	si2, ok := c.addState(encodePCs(0, []uint32{1}))
	if !ok {
		t.Fatal("second addState failed")
	}
	if si2 != statePtr(c.stride) {
		t.Errorf("second state pointer = %d, want %d (row base offset)", si2, c.stride)
	}
}

func TestFlushDropsEverything(t *testing.T) {
	c := NewCache(testProgram(t))
	c.addState(encodePCs(0, []uint32{0}))
	c.starts[3] = 0
	c.setNext(0, 1, 0)

	c.flush()

	if len(c.states) != 0 || len(c.table) != 0 || len(c.compiled) != 0 {
		t.Error("flush left compiled states behind")
	}
	for i, s := range c.starts {
		if s != stateUnknown {
			t.Errorf("starts[%d] = %#x after flush, want stateUnknown", i, s)
		}
	}
	if c.size != 0 {
		t.Errorf("size = %d after flush, want 0", c.size)
	}
	if c.flushCount != 1 {
		t.Errorf("flushCount = %d, want 1", c.flushCount)
	}
}

func TestRestoreDeduplicates(t *testing.T) {
	c := NewCache(testProgram(t))
	key := encodePCs(stateFlagWord, []uint32{0, 2})
	si, _ := c.addState(key)
	snap := c.stateAt(si)

	c.flush()

	r1, ok := c.restore(snap)
	if !ok {
		t.Fatal("restore failed")
	}
	r2, ok := c.restore(snap)
	if !ok || r2 != r1 {
		t.Errorf("second restore = (%d, %v), want (%d, true)", r2, ok, r1)
	}
	if len(c.states) != 1 {
		t.Errorf("restore duplicated the state: %d states", len(c.states))
	}
}

func TestUnicodeWordBoundaryPoisoning(t *testing.T) {
	b := program.NewBuilder()
	b.EmitAssert(program.AssertWordBoundary)
	b.EmitBytes('a', 'a')
	b.EmitMatch(0)
	b.SetUnicodeWordBoundary(true)
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	c := NewCache(prog)
	if len(c.quitClasses) == 0 {
		t.Fatal("no quit classes for a Unicode word boundary program")
	}
	si, ok := c.addState(encodePCs(0, []uint32{1}))
	if !ok {
		t.Fatal("addState failed")
	}
	bc := prog.ByteClasses()
	for v := 0x80; v <= 0xff; v++ {
		if got := c.next(si, int(bc.Get(byte(v)))); got != stateQuit {
			t.Fatalf("cell for byte %#x = %#x, want stateQuit", v, got)
		}
	}
	for v := 0; v < 0x80; v++ {
		if got := c.next(si, int(bc.Get(byte(v)))); got != stateUnknown {
			t.Fatalf("cell for ASCII byte %#x = %#x, want stateUnknown", v, got)
		}
	}
}

func TestCacheConfigValidation(t *testing.T) {
	prog := testProgram(t)
	bad := []Config{
		{SizeLimit: -1, MaxFlushes: 3, FlushProgressFactor: 10},
		{MaxFlushes: 0, FlushProgressFactor: 10},
		{MaxFlushes: 3, FlushProgressFactor: 0},
	}
	for _, cfg := range bad {
		if _, err := NewCacheWithConfig(prog, cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("NewCacheWithConfig(%+v) error = %v, want ErrInvalidConfig", cfg, err)
		}
	}
	if _, err := NewCacheWithConfig(prog, DefaultConfig()); err != nil {
		t.Errorf("NewCacheWithConfig(default) error = %v", err)
	}
}

func TestCacheSizeLimitOverride(t *testing.T) {
	prog := testProgram(t)
	c, err := NewCacheWithConfig(prog, DefaultConfig().WithSizeLimit(123))
	if err != nil {
		t.Fatalf("NewCacheWithConfig error: %v", err)
	}
	if c.sizeLimit != 123 {
		t.Errorf("sizeLimit = %d, want 123", c.sizeLimit)
	}
	c = NewCache(prog)
	if c.sizeLimit != prog.SizeLimit() {
		t.Errorf("sizeLimit = %d, want program's %d", c.sizeLimit, prog.SizeLimit())
	}
}

func TestStats(t *testing.T) {
	c := NewCache(testProgram(t))
	c.addState(encodePCs(0, []uint32{0}))
	c.addState(encodePCs(0, []uint32{2}))

	stats := c.Stats()
	if stats.States != 2 {
		t.Errorf("Stats().States = %d, want 2", stats.States)
	}
	if stats.SizeBytes <= 0 {
		t.Errorf("Stats().SizeBytes = %d, want > 0", stats.SizeBytes)
	}

	c.Reset()
	stats = c.Stats()
	if stats.States != 0 || stats.Flushes != 0 {
		t.Errorf("after Reset: %+v, want zero states and flushes", stats)
	}
}
