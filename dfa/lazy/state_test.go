package lazy

import "testing"

func encodePCs(flags byte, pcs []uint32) state {
	data := []byte{flags}
	prev := uint32(0)
	for _, pc := range pcs {
		data = appendPC(data, prev, pc)
		prev = pc
	}
	return state{data: data}
}

func TestStateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pcs  []uint32
	}{
		{"empty", nil},
		{"single", []uint32{0}},
		{"ascending", []uint32{1, 2, 3, 70, 71}},
		{"descending deltas", []uint32{500, 3, 499, 4}},
		{"large", []uint32{0, 1 << 20, 5, 1 << 27}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := encodePCs(0, tt.pcs)
			var got []uint32
			s.forEachPC(func(pc uint32) {
				got = append(got, pc)
			})
			if len(got) != len(tt.pcs) {
				t.Fatalf("decoded %d pcs, want %d", len(got), len(tt.pcs))
			}
			for i, pc := range tt.pcs {
				if got[i] != pc {
					t.Errorf("pc[%d] = %d, want %d", i, got[i], pc)
				}
			}
		})
	}
}

func TestStateFlags(t *testing.T) {
	s := encodePCs(stateFlagMatch|stateFlagWord, []uint32{7})
	if !s.isMatch() {
		t.Error("isMatch() = false, want true")
	}
	if !s.isWord() {
		t.Error("isWord() = false, want true")
	}
	if s.hasEmpty() {
		t.Error("hasEmpty() = true, want false")
	}

	s = encodePCs(stateFlagHasEmpty, []uint32{7})
	if !s.hasEmpty() {
		t.Error("hasEmpty() = false, want true")
	}
	if s.isMatch() {
		t.Error("isMatch() = true, want false")
	}
}

func TestStateDeltaCompression(t *testing.T) {
	// Neighboring pcs should cost one byte each regardless of their
	// absolute magnitude.
	s := encodePCs(0, []uint32{1 << 25, 1<<25 + 1, 1<<25 + 2, 1<<25 + 3})
	firstCost := len(encodePCs(0, []uint32{1 << 25}).data) - 1
	if got, want := len(s.data), 1+firstCost+3; got != want {
		t.Errorf("encoded size = %d, want %d", got, want)
	}
}

func TestStatePointerLayout(t *testing.T) {
	// Tag bits and sentinels must live strictly above every plain row
	// pointer, and the sentinels above the tags.
	if stateMax >= stateMatch {
		t.Error("stateMax overlaps the match tag")
	}
	if stateMatch|stateMax >= stateStart {
		t.Error("a match-tagged pointer can collide with the start tag")
	}
	if stateStart|stateMatch|stateMax >= stateUnknown {
		t.Error("a fully tagged pointer can collide with the sentinels")
	}
	if !(stateUnknown < stateDead && stateDead < stateQuit) {
		t.Error("sentinels are not distinct and ordered")
	}
}

func TestDecodeVarintMultiByte(t *testing.T) {
	data := appendVarint(nil, 300)
	v, n := decodeVarint(data)
	if v != 300 || n != len(data) {
		t.Errorf("decodeVarint = (%d, %d), want (300, %d)", v, n, len(data))
	}
}
