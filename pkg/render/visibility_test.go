package render

import (
	"testing"

	"github.com/flatmol/flatmol/pkg/mol"
)

func chainFrame(chains ...string) *mol.Frame {
	f := &mol.Frame{
		Coords: make([]mol.Vec3, len(chains)),
		Chains: chains,
	}
	for i := range f.Coords {
		f.Coords[i] = mol.Vec3{X: float64(i)}
	}
	return f
}

func TestResolveDefaultEmptySelection(t *testing.T) {
	f := chainFrame("A", "A", "B")
	mask := Selection{Mode: SelectDefault}.Resolve(f)

	if mask != nil {
		t.Fatalf("got mask of size %d, want nil (everything visible)", len(mask))
	}
	for i := 0; i < 3; i++ {
		if !mask.Visible(i) {
			t.Errorf("position %d hidden under the nil mask", i)
		}
	}
	if got := mask.CountOf(3); got != 3 {
		t.Errorf("CountOf = %d, want 3", got)
	}
}

func TestResolveExplicitEmptySelection(t *testing.T) {
	f := chainFrame("A", "A", "B")
	mask := Selection{Mode: SelectExplicit}.Resolve(f)

	if mask == nil {
		t.Fatal("got nil mask, want empty non-nil (nothing visible)")
	}
	if len(mask) != 0 {
		t.Fatalf("got mask of size %d, want 0", len(mask))
	}
	if mask.Visible(0) {
		t.Error("position visible under an explicit empty selection")
	}
	if got := mask.CountOf(3); got != 0 {
		t.Errorf("CountOf = %d, want 0", got)
	}
}

func TestResolveExplicitPositions(t *testing.T) {
	f := chainFrame("A", "A", "B", "B")
	sel := NewSelection([]int{0, 1}, nil, nil, SelectExplicit)
	mask := sel.Resolve(f)

	if len(mask) != 2 {
		t.Fatalf("got mask of size %d, want 2", len(mask))
	}
	for _, i := range []int{0, 1} {
		if !mask.Visible(i) {
			t.Errorf("position %d hidden", i)
		}
	}
	if mask.Visible(2) || mask.Visible(3) {
		t.Error("unselected positions visible")
	}
}

func TestResolveChains(t *testing.T) {
	f := chainFrame("A", "B", "A", "C")
	mask := NewSelection(nil, []string{"A"}, nil, SelectDefault).Resolve(f)

	want := map[int]bool{0: true, 2: true}
	for i := 0; i < 4; i++ {
		if mask.Visible(i) != want[i] {
			t.Errorf("position %d visible = %v, want %v", i, mask.Visible(i), want[i])
		}
	}
}

func TestResolveChainsFilterPositions(t *testing.T) {
	// Both facets given: positions restricted to the selected chains.
	f := chainFrame("A", "A", "B")
	mask := NewSelection([]int{0, 1, 2}, []string{"A"}, nil, SelectDefault).Resolve(f)

	if !mask.Visible(0) || !mask.Visible(1) {
		t.Error("chain A positions hidden")
	}
	if mask.Visible(2) {
		t.Error("position on chain B survived the chain filter")
	}
}

func TestResolvePositionsOutOfRange(t *testing.T) {
	f := chainFrame("A", "A")
	mask := NewSelection([]int{-5, 1, 99}, nil, nil, SelectDefault).Resolve(f)

	if mask.Visible(-5) || mask.Visible(99) {
		t.Error("out-of-range positions entered the mask")
	}
	if !mask.Visible(1) {
		t.Error("valid position hidden")
	}
	if len(mask) != 1 {
		t.Errorf("mask size = %d, want 1", len(mask))
	}
}

func TestResolveBoxRanges(t *testing.T) {
	f := chainFrame("A", "A", "A", "A", "A", "A", "A", "A", "A", "A")
	sel := NewSelection(nil, nil, []Box{{X1: 1, X2: 2, Y1: 7, Y2: 8}}, SelectDefault)
	mask := sel.Resolve(f)

	want := map[int]bool{1: true, 2: true, 7: true, 8: true}
	for i := 0; i < 10; i++ {
		if mask.Visible(i) != want[i] {
			t.Errorf("position %d visible = %v, want %v", i, mask.Visible(i), want[i])
		}
	}
}

func TestResolveBoxNormalization(t *testing.T) {
	f := chainFrame("A", "A", "A", "A")
	// Reversed endpoints and out-of-range bounds: swapped and clamped.
	sel := NewSelection(nil, nil, []Box{{X1: 2, X2: 1, Y1: -10, Y2: 0}}, SelectDefault)
	mask := sel.Resolve(f)

	for _, i := range []int{0, 1, 2} {
		if !mask.Visible(i) {
			t.Errorf("position %d hidden", i)
		}
	}
	if mask.Visible(3) {
		t.Error("position 3 visible")
	}
}

func TestResolveBoxesIgnoreChainFilter(t *testing.T) {
	// Box ranges join the union as-is; the chain facet only filters the
	// position facet.
	f := chainFrame("A", "B", "B")
	sel := NewSelection(nil, []string{"A"}, []Box{{X1: 2, X2: 2, Y1: 2, Y2: 2}}, SelectDefault)
	mask := sel.Resolve(f)

	if !mask.Visible(0) {
		t.Error("chain A position hidden")
	}
	if !mask.Visible(2) {
		t.Error("boxed position on chain B hidden")
	}
	if mask.Visible(1) {
		t.Error("position outside both facets visible")
	}
}

func TestResolveBoxesGrowTheUnion(t *testing.T) {
	f := chainFrame("A", "A", "B", "B", "B")
	base := NewSelection([]int{0}, nil, nil, SelectDefault)
	boxed := base
	boxed.Boxes = []Box{{X1: 3, X2: 4, Y1: 3, Y2: 4}}

	baseMask := base.Resolve(f)
	boxedMask := boxed.Resolve(f)
	for i := range baseMask {
		if !boxedMask.Visible(i) {
			t.Errorf("position %d lost when a box was added", i)
		}
	}
	if !boxedMask.Visible(3) || !boxedMask.Visible(4) {
		t.Error("boxed positions missing")
	}
}

func TestSegmentVisibleUsesLogicalIndices(t *testing.T) {
	// Overlay segments carry shifted render indices; visibility keys off
	// the per-frame logical pair.
	seg := Segment{Idx1: 100, Idx2: 101, Orig1: 0, Orig2: 1}

	if !segmentVisible(seg, VisibilityMask{0: true, 1: true}) {
		t.Error("segment hidden with both logical endpoints visible")
	}
	if segmentVisible(seg, VisibilityMask{0: true}) {
		t.Error("segment visible with one endpoint hidden")
	}
	if !segmentVisible(seg, nil) {
		t.Error("segment hidden under the nil mask")
	}
}

func TestParseSelectionMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SelectionMode
		wantErr bool
	}{
		{"default", SelectDefault, false},
		{"explicit", SelectExplicit, false},
		{"EXPLICIT", SelectExplicit, false},
		{"bogus", SelectDefault, true},
	}
	for _, tt := range tests {
		got, err := ParseSelectionMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSelectionMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseSelectionMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
