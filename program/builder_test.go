package program

import (
	"errors"
	"testing"
)

// buildAPlusB assembles the program for unanchored "a+b".
func buildAPlusB(t *testing.T) *Program {
	t.Helper()
	b := NewBuilder()
	b.EmitBytes('a', 'a') // 0
	b.EmitSplit(0, 2)     // 1: greedy repeat
	b.EmitBytes('b', 'b') // 2
	b.EmitMatch(0)        // 3
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return prog
}

func TestBuildBasics(t *testing.T) {
	prog := buildAPlusB(t)

	// Unanchored forward programs get the two-instruction prefix loop.
	if got := prog.Len(); got != 6 {
		t.Errorf("Len() = %d, want 6", got)
	}
	if got := prog.Start(); got != 4 {
		t.Errorf("Start() = %d, want 4 (prefix loop)", got)
	}
	if got := prog.MatchCount(); got != 1 {
		t.Errorf("MatchCount() = %d, want 1", got)
	}
	if !prog.CanExec() {
		t.Error("CanExec() = false, want true")
	}
	if got := prog.SizeLimit(); got != DefaultSizeLimit {
		t.Errorf("SizeLimit() = %d, want default %d", got, DefaultSizeLimit)
	}

	loop := prog.Inst(prog.Start())
	if loop.Kind() != InstSplit {
		t.Fatalf("entry instruction is %v, want Split", loop.Kind())
	}
	if loop.Out() != 0 {
		t.Errorf("prefix loop tries pattern at pc %d first, want 0", loop.Out())
	}
}

func TestBuildAnchoredSkipsPrefixLoop(t *testing.T) {
	b := NewBuilder()
	b.EmitBytes('a', 'a')
	b.EmitMatch(0)
	b.SetAnchoredStart(true)
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := prog.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if got := prog.Start(); got != 0 {
		t.Errorf("Start() = %d, want 0", got)
	}
	if !prog.IsAnchoredStart() {
		t.Error("IsAnchoredStart() = false, want true")
	}
}

func TestBuildByteClasses(t *testing.T) {
	prog := buildAPlusB(t)
	bc := prog.ByteClasses()

	// The prefix loop spans all bytes, so the classes come from 'a'
	// and 'b' alone: below-a, a, b, above-b.
	if bc.Get('a') == bc.Get('b') {
		t.Error("'a' and 'b' share a class")
	}
	if bc.Get('a') == bc.Get('x') {
		t.Error("'a' and 'x' share a class")
	}
	if bc.Get('c') != bc.Get('x') {
		t.Errorf("Get('c') = %d, Get('x') = %d, want same class", bc.Get('c'), bc.Get('x'))
	}
	if got := bc.AlphabetLen(); got != 4 {
		t.Errorf("AlphabetLen() = %d, want 4", got)
	}
}

func TestBuildWordAssertAddsClasses(t *testing.T) {
	b := NewBuilder()
	b.EmitAssert(AssertWordBoundary) // 0
	b.EmitBytes('-', '-')            // 1
	b.EmitMatch(0)                   // 2
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	bc := prog.ByteClasses()
	// Word bytes must not share classes with non-word bytes, or two
	// bytes in one class would disagree on the boundary assert.
	if bc.Get('a') == bc.Get(' ') {
		t.Error("'a' and ' ' share a class despite a word boundary assert")
	}
	if bc.Get('_') == bc.Get('-') {
		t.Error("'_' and '-' share a class despite a word boundary assert")
	}
}

func TestBuildUnicodeWordBoundaryFlag(t *testing.T) {
	b := NewBuilder()
	b.EmitAssert(AssertWordBoundary)
	b.EmitBytes('a', 'a')
	b.EmitMatch(0)
	b.SetUnicodeWordBoundary(true)
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !prog.HasUnicodeWordBoundary() {
		t.Error("HasUnicodeWordBoundary() = false, want true")
	}
	// Non-ASCII bytes must not share classes with ASCII.
	if prog.ByteClasses().Get(0x7f) == prog.ByteClasses().Get(0x80) {
		t.Error("0x7f and 0x80 share a class despite a Unicode word boundary")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func() *Builder
		want  error
	}{
		{
			name:  "empty",
			setup: NewBuilder,
			want:  ErrNoInstructions,
		},
		{
			name: "no match instruction",
			setup: func() *Builder {
				b := NewBuilder()
				b.EmitBytes('a', 'a')
				b.PatchOut(0, 0)
				return b
			},
			want: ErrNoMatchInstruction,
		},
		{
			name: "dangling target",
			setup: func() *Builder {
				b := NewBuilder()
				b.EmitBytes('a', 'a')
				b.EmitMatch(0)
				b.PatchOut(0, 99)
				b.SetAnchoredStart(true)
				return b
			},
			want: ErrInvalidTarget,
		},
		{
			name: "entry out of range",
			setup: func() *Builder {
				b := NewBuilder()
				b.EmitMatch(0)
				b.SetStart(5)
				b.SetAnchoredStart(true)
				return b
			},
			want: ErrInvalidStart,
		},
		{
			name: "negative size limit",
			setup: func() *Builder {
				b := NewBuilder()
				b.EmitMatch(0)
				b.SetSizeLimit(-1)
				return b
			},
			want: ErrInvalidSizeLimit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.setup().Build()
			if err == nil {
				t.Fatal("Build() error = nil, want error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestBuildMultiPattern(t *testing.T) {
	b := NewBuilder()
	b.EmitSplit(1, 3)      // 0
	b.EmitBytes('a', 'a')  // 1
	b.EmitMatch(0)         // 2
	b.EmitBytes('b', 'b')  // 3
	b.EmitMatch(1)         // 4
	b.PatchOut(1, 2)
	b.PatchOut(3, 4)
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := prog.MatchCount(); got != 2 {
		t.Errorf("MatchCount() = %d, want 2", got)
	}
}

func TestBuildWithPrefixes(t *testing.T) {
	b := NewBuilder()
	b.EmitBytes('f', 'f')
	b.EmitBytes('o', 'o')
	b.EmitBytes('o', 'o')
	b.EmitMatch(0)
	b.SetPrefixes([][]byte{[]byte("foo")})
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	p := prog.Prefixes()
	if p == nil {
		t.Fatal("Prefixes() = nil, want a prefilter")
	}
	if got := p.Find([]byte("xxfoo"), 0); got != 2 {
		t.Errorf("Prefixes().Find(xxfoo, 0) = %d, want 2", got)
	}
}
